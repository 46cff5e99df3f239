package security

import (
	"net/http"

	"authkernel/authority"
	"authkernel/bizerror"
	"authkernel/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathAssignments = "/v1/assignments"
)

func RegisterAssignmentsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathAssignments, middleWares...)
	g.POST("", handleCreateAssignments)
	g.PUT("", handleUpdateAssignments)
	g.GET("", handleQueryAssignments)
	g.DELETE("", handleDeleteAssignment)
}

func handleCreateAssignments(c *gin.Context) {
	creation := authority.AssignmentBatchCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	records, err := CreateAssignmentsFunc(&creation, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleUpdateAssignments(c *gin.Context) {
	updating := authority.AssignmentBatchUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	records, err := UpdateAssignmentsFunc(&updating, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleQueryAssignments(c *gin.Context) {
	query := authority.AssignmentQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	records, err := QueryAssignmentsFunc(&query, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleDeleteAssignment(c *gin.Context) {
	deletion := authority.AssignmentDeletion{}
	if err := c.ShouldBindWith(&deletion, binding.Query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := DeleteAssignmentFunc(deletion.ID, session.FindSecurityContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusNoContent)
}
