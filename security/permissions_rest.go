package security

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	PathPermissions = "/v1/permissions"
)

func RegisterPermissionsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathPermissions, middleWares...)
	g.GET("", handleQueryPermissions)
}

func handleQueryPermissions(c *gin.Context) {
	records, err := QueryPermissionsFunc()
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}
