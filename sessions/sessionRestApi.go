package sessions

import (
	"net/http"
	"time"

	"authkernel/bizerror"
	"authkernel/security"
	"authkernel/session"

	"github.com/gin-gonic/gin"
)

func RegisterSessionHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/session", middleWares...)
	g.GET("", DetailSessionSecurityContext)
}

// DetailSessionSecurityContext refreshes the caller's security context with a
// freshly resolved permission set and extends the token.
func DetailSessionSecurityContext(c *gin.Context) {
	sec := session.FindSecurityContext(c)
	if sec == nil {
		panic(bizerror.ErrUnauthenticated)
	}

	now := time.Now()
	ttl := session.TokenExpiration - now.Sub(sec.SigningTime)
	if ttl <= 0 {
		panic(bizerror.ErrUnauthenticated)
	}

	resolved, err := security.ResolveAuthorityFunc(sec.Identity.ID, sec.Identity.TenantID)
	if err != nil {
		panic(err)
	}
	securityContext := session.Context{Token: sec.Token, Identity: sec.Identity,
		Perms: resolved.Permissions, IsAdmin: resolved.IsAdmin, IsSubAdmin: resolved.IsSubAdmin,
		SigningTime: now}
	session.TokenCache.Set(sec.Token, &securityContext, ttl)
	c.JSON(http.StatusOK, &securityContext)
}
