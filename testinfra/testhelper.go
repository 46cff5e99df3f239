package testinfra

import (
	"io/ioutil"
	"net/http"
	"net/http/httptest"

	"authkernel/authority"
	"authkernel/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
)

// BuildSecCtx build security context for tests
func BuildSecCtx(uid, tenantId types.ID, perms ...string) *session.Context {
	return &session.Context{
		Token:    "test-token",
		Identity: session.Identity{ID: uid, TenantID: tenantId},
		Perms:    authority.Permissions(perms),
	}
}

// ExecuteRequest run the request against the engine and collect the response
func ExecuteRequest(req *http.Request, engine *gin.Engine) (int, string, *http.Response) {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	resp := w.Result()
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		panic(err)
	}
	return resp.StatusCode, string(body), resp
}
