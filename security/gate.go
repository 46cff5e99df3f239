package security

import (
	"errors"

	"authkernel/account"
	"authkernel/authority"
	"authkernel/bizerror"
	"authkernel/common"
	"authkernel/persistence"
	"authkernel/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

var (
	ResolveAuthorityFunc = ResolveAuthority
)

type ResolvedAuthority struct {
	Permissions authority.Permissions `json:"permissions"`
	IsAdmin     bool                  `json:"isAdmin"`
	IsSubAdmin  bool                  `json:"isSubAdmin"`
}

// CheckPermissions guards a route with an OR-list of permission keys.
// An empty list allows any authenticated user; otherwise the caller's
// resolved permission set must intersect the wanted keys.
func CheckPermissions(keys ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sec := session.FindSecurityContext(c)
		if sec == nil || sec.Identity.ID == 0 {
			panic(&bizerror.ErrBadParam{Cause: errors.New("user id is absent")})
		}

		resolved, err := ResolveAuthorityFunc(sec.Identity.ID, sec.Identity.TenantID)
		if err != nil {
			panic(err)
		}

		sec.Perms = resolved.Permissions
		sec.IsAdmin = resolved.IsAdmin
		sec.IsSubAdmin = resolved.IsSubAdmin
		session.SaveSecurityContext(c, sec)

		if !resolved.Permissions.HasAny(keys...) {
			panic(bizerror.ErrForbidden)
		}
		c.Next()
	}
}

// CheckTenantAdmin requires the caller's primary role to carry the tenant
// super-admin permission. Every failure mode collapses to forbidden so the
// response does not leak whether the user or role exists; the underlying
// cause is only logged.
func CheckTenantAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sec := session.FindSecurityContext(c)
		if sec == nil {
			panic(bizerror.ErrForbidden)
		}
		if err := CheckTenantAdminAccess(sec); err != nil {
			panic(err)
		}
		c.Next()
	}
}

// ResolveAuthority computes the caller's effective permission set: the
// permissions of the primary role plus those granted through live,
// non-disabled project assignments.
func ResolveAuthority(userId, tenantId types.ID) (*ResolvedAuthority, error) {
	db := persistence.ActiveDataSourceManager.GormDB()

	user, err := account.FindLiveUser(db, tenantId, userId)
	if err != nil {
		return nil, err
	}

	var roleIds []types.ID
	roleSeen := map[types.ID]bool{}
	if user.RoleID > 0 {
		roleSeen[user.RoleID] = true
		roleIds = append(roleIds, user.RoleID)
	}

	var assignments []authority.Assignment
	if err := db.Model(&authority.Assignment{}).Scopes(persistence.NotDeleted).
		Where("tenant_id = ? AND user_id = ? AND disabled = ?", tenantId, userId, false).
		Find(&assignments).Error; err != nil {
		return nil, err
	}
	if len(assignments) > 0 {
		var assignmentIds []types.ID
		for _, a := range assignments {
			assignmentIds = append(assignmentIds, a.ID)
		}
		var bindings []authority.AssignmentRoleBinding
		if err := db.Model(&authority.AssignmentRoleBinding{}).
			Where("assignment_id IN (?)", assignmentIds).Find(&bindings).Error; err != nil {
			return nil, err
		}
		for _, b := range bindings {
			if !roleSeen[b.RoleID] {
				roleSeen[b.RoleID] = true
				roleIds = append(roleIds, b.RoleID)
			}
		}
	}

	perms, err := resolveRolePermissionKeys(db, tenantId, roleIds)
	if err != nil {
		return nil, err
	}

	return &ResolvedAuthority{
		Permissions: perms,
		IsAdmin:     perms.HasRole(authority.SystemAdminPermission.ID),
		IsSubAdmin:  perms.HasRole(authority.SystemSubAdminPermission.ID),
	}, nil
}

// CheckTenantAdminAccess is the narrow binary check behind CheckTenantAdmin.
func CheckTenantAdminAccess(sec *session.Context) error {
	if sec.Identity.ID == 0 {
		common.Log.Warn("tenant admin check: user id is absent")
		return bizerror.ErrForbidden
	}

	db := persistence.ActiveDataSourceManager.GormDB()
	user, err := account.FindLiveUser(db, sec.Identity.TenantID, sec.Identity.ID)
	if err != nil {
		common.Log.Warnf("tenant admin check: user %s not resolved: %v", sec.Identity.ID.String(), err)
		return bizerror.ErrForbidden
	}
	if user.RoleID == 0 {
		common.Log.Warnf("tenant admin check: user %s has no primary role", user.ID.String())
		return bizerror.ErrForbidden
	}

	role, err := findLiveRole(db, sec.Identity.TenantID, user.RoleID)
	if err != nil {
		common.Log.Warnf("tenant admin check: role %s not resolved: %v", user.RoleID.String(), err)
		return bizerror.ErrForbidden
	}

	var count int
	if err := db.Model(&authority.RolePermissionBinding{}).
		Where("role_id = ? AND permission_id = ?", role.ID, authority.TenantSuperAdminPermission.ID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return bizerror.ErrForbidden
	}
	return nil
}

func resolveRolePermissionKeys(db *gorm.DB, tenantId types.ID, roleIds []types.ID) (authority.Permissions, error) {
	if len(roleIds) == 0 {
		return authority.Permissions{}, nil
	}

	roles, err := findLiveRolesByIds(db, tenantId, roleIds)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return authority.Permissions{}, nil
	}

	var liveRoleIds []types.ID
	for _, r := range roles {
		liveRoleIds = append(liveRoleIds, r.ID)
	}

	var permKeys []string
	if err := db.Model(&authority.RolePermissionBinding{}).
		Where("role_id IN (?)", liveRoleIds).Pluck("permission_id", &permKeys).Error; err != nil {
		return nil, err
	}
	if len(permKeys) == 0 {
		return authority.Permissions{}, nil
	}

	// only active permissions count towards the effective set
	var activeKeys []string
	if err := db.Model(&authority.Permission{}).Scopes(persistence.ActiveRecords).
		Where("id IN (?)", distinctPermissionKeys(permKeys)).
		Order("id ASC").Pluck("id", &activeKeys).Error; err != nil {
		return nil, err
	}

	return authority.Permissions(activeKeys), nil
}
