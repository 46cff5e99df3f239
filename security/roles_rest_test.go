package security_test

import (
	"errors"
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

var _ = Describe("RolesRestAPI", func() {
	var (
		router     *gin.Engine
		ts         types.Timestamp
		timeString string
	)
	BeforeEach(func() {
		router = gin.Default()
		router.Use(bizerror.ErrorHandling())
		security.RegisterRolesRestAPI(router)

		ts = types.TimestampOfDate(2021, 1, 1, 0, 0, 0, 0, time.UTC)
		timeBytes, err := ts.MarshalJSON()
		Expect(err).To(BeNil())
		timeString = strings.Trim(string(timeBytes), `"`)
	})

	Describe("handleCreateRole", func() {
		It("should be able to serve create request", func() {
			var payload *authority.RoleCreation
			security.CreateRoleFunc = func(c *authority.RoleCreation, sec *session.Context) (*authority.RoleDetail, error) {
				payload = c
				return &authority.RoleDetail{
					Role: authority.Role{ID: 123, TenantID: 100, Name: c.Name, Description: c.Description,
						Active: true, CreatorID: 10, UpdaterID: 10, CreateTime: ts, UpdateTime: ts},
					Permissions: []authority.Permission{authority.DashboardViewPermission},
				}, nil
			}

			req := httptest.NewRequest(http.MethodPost, security.PathRoles, common.StringReader(`
				{"name": "Reviewer", "description": "read only", "permissions": ["dashboard:view"]}
			`))
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`{"id": "123", "tenantId": "100", "name": "Reviewer", "description": "read only",
				"active": true, "deleted": false, "creatorId": "10", "updaterId": "10",
				"createTime": "` + timeString + `", "updateTime": "` + timeString + `",
				"permissions": [{"id": "dashboard:view", "title": "Dashboard View", "description": "", "active": true}]}`))

			Expect(*payload).To(Equal(authority.RoleCreation{Name: "Reviewer", Description: "read only",
				Permissions: []string{"dashboard:view"}}))
		})

		It("should return 400 when bind failed", func() {
			req := httptest.NewRequest(http.MethodPost, security.PathRoles, common.StringReader(`bad json`))
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(body).To(MatchJSON(`{"code":"common.bad_param","message":"invalid character 'b' looking for beginning of value"}`))
		})

		It("should return 400 when validate failed", func() {
			req := httptest.NewRequest(http.MethodPost, security.PathRoles, common.StringReader(`{}`))
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(body).To(MatchJSON(`{"code":"common.bad_param","message":"Key: 'RoleCreation.Name' Error:Field validation for 'Name' failed on the 'required' tag"}`))
		})

		It("should return 409 when name conflicts", func() {
			security.CreateRoleFunc = func(c *authority.RoleCreation, sec *session.Context) (*authority.RoleDetail, error) {
				return nil, bizerror.Conflict("role name %s already exists", c.Name)
			}
			req := httptest.NewRequest(http.MethodPost, security.PathRoles, common.StringReader(`{"name": "Reviewer"}`))
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusConflict))
			Expect(body).To(MatchJSON(`{"code":"common.conflict","message":"role name Reviewer already exists"}`))
		})
	})

	Describe("handleQueryRoles", func() {
		It("should be able to serve query request", func() {
			security.QueryRolesFunc = func(sec *session.Context) ([]authority.RoleDetail, error) {
				return []authority.RoleDetail{{
					Role: authority.Role{ID: 123, TenantID: 100, Name: "Reviewer", Active: true,
						CreatorID: 10, UpdaterID: 10, CreateTime: ts, UpdateTime: ts},
					Permissions: []authority.Permission{},
				}}, nil
			}

			req := httptest.NewRequest(http.MethodGet, security.PathRoles, nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`[{"id": "123", "tenantId": "100", "name": "Reviewer", "description": "",
				"active": true, "deleted": false, "creatorId": "10", "updaterId": "10",
				"createTime": "` + timeString + `", "updateTime": "` + timeString + `", "permissions": []}]`))
		})

		It("should return 500 when service failed", func() {
			security.QueryRolesFunc = func(sec *session.Context) ([]authority.RoleDetail, error) {
				return nil, errors.New("a mocked error")
			}
			req := httptest.NewRequest(http.MethodGet, security.PathRoles, nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusInternalServerError))
			Expect(body).To(MatchJSON(`{"code":"common.internal_server_error","message":"a mocked error"}`))
		})
	})

	Describe("handleDetailRole", func() {
		It("should be able to serve detail request", func() {
			var detailedId types.ID
			security.DetailRoleFunc = func(id types.ID, sec *session.Context) (*authority.RoleDetail, error) {
				detailedId = id
				return &authority.RoleDetail{
					Role:        authority.Role{ID: id, TenantID: 100, Name: "Reviewer", Active: true, CreateTime: ts, UpdateTime: ts},
					Permissions: []authority.Permission{},
				}, nil
			}

			req := httptest.NewRequest(http.MethodGet, security.PathRoles+"/123", nil)
			status, _, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(detailedId).To(Equal(types.ID(123)))
		})

		It("should return 400 when id is invalid", func() {
			req := httptest.NewRequest(http.MethodGet, security.PathRoles+"/abc", nil)
			status, _, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusBadRequest))
		})

		It("should return 404 when role is not found", func() {
			security.DetailRoleFunc = func(id types.ID, sec *session.Context) (*authority.RoleDetail, error) {
				return nil, bizerror.NotFound("role")
			}
			req := httptest.NewRequest(http.MethodGet, security.PathRoles+"/123", nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusNotFound))
			Expect(body).To(MatchJSON(`{"code":"common.record_not_found","message":"role not found"}`))
		})
	})

	Describe("handleUpdateRole", func() {
		It("should be able to serve update request", func() {
			var updatedId types.ID
			var payload *authority.RoleUpdating
			security.UpdateRoleFunc = func(id types.ID, u *authority.RoleUpdating, sec *session.Context) (*authority.RoleDetail, error) {
				updatedId = id
				payload = u
				return &authority.RoleDetail{
					Role:        authority.Role{ID: id, TenantID: 100, Name: *u.Name, Active: true, CreateTime: ts, UpdateTime: ts},
					Permissions: []authority.Permission{},
				}, nil
			}

			req := httptest.NewRequest(http.MethodPut, security.PathRoles+"/123",
				common.StringReader(`{"name": "Auditor"}`))
			status, _, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(updatedId).To(Equal(types.ID(123)))
			Expect(*payload.Name).To(Equal("Auditor"))
			Expect(payload.Description).To(BeNil())
			Expect(payload.Permissions).To(BeNil())
		})
	})

	Describe("handleDeleteRole", func() {
		It("should be able to serve delete request", func() {
			var deletedId types.ID
			security.DeleteRoleFunc = func(id types.ID, sec *session.Context) error {
				deletedId = id
				return nil
			}

			req := httptest.NewRequest(http.MethodDelete, security.PathRoles+"/123", nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusNoContent))
			Expect(body).To(BeZero())
			Expect(deletedId).To(Equal(types.ID(123)))
		})
	})

	Describe("handleCopyRole", func() {
		It("should be able to serve copy request", func() {
			var sourceId types.ID
			security.CopyRoleFunc = func(id types.ID, sec *session.Context) (*authority.RoleDetail, error) {
				sourceId = id
				return &authority.RoleDetail{
					Role:        authority.Role{ID: 456, TenantID: 100, Name: "Reviewer (Copy)", Active: true, CreateTime: ts, UpdateTime: ts},
					Permissions: []authority.Permission{},
				}, nil
			}

			req := httptest.NewRequest(http.MethodPost, security.PathRoles+"/123/copies", nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(sourceId).To(Equal(types.ID(123)))
			Expect(body).To(ContainSubstring(`"name":"Reviewer (Copy)"`))
		})
	})
})
