package security_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"authkernel/authority"
	"authkernel/bizerror"
	"authkernel/common"
	"authkernel/security"
	"authkernel/session"
	"authkernel/testinfra"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("AssignmentsRestAPI", func() {
	var (
		router     *gin.Engine
		ts         types.Timestamp
		timeString string
	)
	BeforeEach(func() {
		router = gin.Default()
		router.Use(bizerror.ErrorHandling())
		security.RegisterAssignmentsRestAPI(router)

		ts = types.TimestampOfDate(2021, 1, 1, 0, 0, 0, 0, time.UTC)
		timeBytes, err := ts.MarshalJSON()
		Expect(err).To(BeNil())
		timeString = strings.Trim(string(timeBytes), `"`)
	})

	Describe("handleCreateAssignments", func() {
		It("should be able to serve create request", func() {
			var payload *authority.AssignmentBatchCreation
			security.CreateAssignmentsFunc = func(c *authority.AssignmentBatchCreation, sec *session.Context) ([]authority.AssignmentDetail, error) {
				payload = c
				return []authority.AssignmentDetail{{
					Assignment: authority.Assignment{ID: 123, TenantID: 100, UserID: c.UserID,
						ProjectID: c.Entries[0].ProjectID, Lock: c.Entries[0].Lock, CreateTime: ts, UpdateTime: ts},
					UserName: "ann", ProjectName: "demo project",
					Roles: []authority.RoleDetail{},
				}}, nil
			}

			req := httptest.NewRequest(http.MethodPost, security.PathAssignments, common.StringReader(`
				{"userId": "10", "entries": [{"projectId": "1", "roles": ["20"], "lock": true}]}
			`))
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`[{"id": "123", "tenantId": "100", "userId": "10", "projectId": "1",
				"userName": "ann", "projectName": "demo project",
				"isDefault": false, "disabled": false, "lock": true, "deleted": false,
				"createTime": "` + timeString + `", "updateTime": "` + timeString + `", "roles": []}]`))

			Expect(*payload).To(Equal(authority.AssignmentBatchCreation{UserID: 10,
				Entries: []authority.ProjectRoleEntry{{ProjectID: 1, Roles: []types.ID{20}, Lock: true}}}))
		})

		It("should return 400 when entries are missing", func() {
			req := httptest.NewRequest(http.MethodPost, security.PathAssignments, common.StringReader(`{"userId": "10"}`))
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(body).To(MatchJSON(`{"code":"common.bad_param","message":"Key: 'AssignmentBatchCreation.Entries' Error:Field validation for 'Entries' failed on the 'required' tag"}`))
		})

		It("should return 409 when an assignment already exists", func() {
			security.CreateAssignmentsFunc = func(c *authority.AssignmentBatchCreation, sec *session.Context) ([]authority.AssignmentDetail, error) {
				return nil, bizerror.Conflict("assignment already exists for project 1")
			}
			req := httptest.NewRequest(http.MethodPost, security.PathAssignments, common.StringReader(`
				{"userId": "10", "entries": [{"projectId": "1", "roles": ["20"]}]}
			`))
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusConflict))
			Expect(body).To(MatchJSON(`{"code":"common.conflict","message":"assignment already exists for project 1"}`))
		})
	})

	Describe("handleUpdateAssignments", func() {
		It("should be able to serve update request with empty entries", func() {
			var payload *authority.AssignmentBatchUpdating
			security.UpdateAssignmentsFunc = func(u *authority.AssignmentBatchUpdating, sec *session.Context) ([]authority.AssignmentDetail, error) {
				payload = u
				return []authority.AssignmentDetail{}, nil
			}

			req := httptest.NewRequest(http.MethodPut, security.PathAssignments, common.StringReader(`{"userId": "10"}`))
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`[]`))
			Expect(*payload).To(Equal(authority.AssignmentBatchUpdating{UserID: 10}))
		})

		It("should return 404 when a reference does not resolve", func() {
			security.UpdateAssignmentsFunc = func(u *authority.AssignmentBatchUpdating, sec *session.Context) ([]authority.AssignmentDetail, error) {
				return nil, bizerror.NotFound("project")
			}
			req := httptest.NewRequest(http.MethodPut, security.PathAssignments, common.StringReader(`
				{"userId": "10", "entries": [{"projectId": "99", "roles": ["20"]}]}
			`))
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusNotFound))
			Expect(body).To(MatchJSON(`{"code":"common.record_not_found","message":"project not found"}`))
		})
	})

	Describe("handleQueryAssignments", func() {
		It("should pass supplied filters through", func() {
			var query *authority.AssignmentQuery
			security.QueryAssignmentsFunc = func(q *authority.AssignmentQuery, sec *session.Context) ([]authority.AssignmentDetail, error) {
				query = q
				return []authority.AssignmentDetail{}, nil
			}

			req := httptest.NewRequest(http.MethodGet, security.PathAssignments+"?userId=10&projectId=1", nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`[]`))
			Expect(*query.UserID).To(Equal(types.ID(10)))
			Expect(*query.ProjectID).To(Equal(types.ID(1)))
		})

		It("should leave absent filters nil", func() {
			var query *authority.AssignmentQuery
			security.QueryAssignmentsFunc = func(q *authority.AssignmentQuery, sec *session.Context) ([]authority.AssignmentDetail, error) {
				query = q
				return []authority.AssignmentDetail{}, nil
			}

			req := httptest.NewRequest(http.MethodGet, security.PathAssignments, nil)
			status, _, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(query.UserID).To(BeNil())
			Expect(query.ProjectID).To(BeNil())
		})
	})

	Describe("handleDeleteAssignment", func() {
		It("should be able to serve delete request", func() {
			var deletedId types.ID
			security.DeleteAssignmentFunc = func(id types.ID, sec *session.Context) error {
				deletedId = id
				return nil
			}

			req := httptest.NewRequest(http.MethodDelete, security.PathAssignments+"?id=123", nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusNoContent))
			Expect(body).To(BeZero())
			Expect(deletedId).To(Equal(types.ID(123)))
		})

		It("should return 400 when id is missing", func() {
			req := httptest.NewRequest(http.MethodDelete, security.PathAssignments, nil)
			status, _, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusBadRequest))
		})
	})
})

var _ = Describe("PermissionsRestAPI", func() {
	var router *gin.Engine
	BeforeEach(func() {
		router = gin.Default()
		router.Use(bizerror.ErrorHandling())
		security.RegisterPermissionsRestAPI(router)
	})

	It("should be able to serve query request", func() {
		security.QueryPermissionsFunc = func() ([]authority.Permission, error) {
			return []authority.Permission{authority.RoleManagePermission}, nil
		}

		req := httptest.NewRequest(http.MethodGet, security.PathPermissions, nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`[{"id": "role:manage", "title": "Role Management", "description": "", "active": true}]`))
	})
})
