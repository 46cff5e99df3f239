package security

import (
	"errors"
	"fmt"

	"authkernel/authority"
	"authkernel/bizerror"
	"authkernel/idgen"
	"authkernel/persistence"
	"authkernel/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	roleIdWorker    = sonyflake.NewSonyflake(sonyflake.Settings{})
	bindingIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateRoleFunc = CreateRole
	DetailRoleFunc = DetailRole
	QueryRolesFunc = QueryRoles
	UpdateRoleFunc = UpdateRole
	DeleteRoleFunc = DeleteRole
	CopyRoleFunc   = CopyRole
)

func CreateRole(c *authority.RoleCreation, sec *session.Context) (*authority.RoleDetail, error) {
	tenantId := sec.Identity.TenantID
	var detail *authority.RoleDetail

	txErr := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		taken, err := liveRoleNameExists(tx, tenantId, c.Name, 0)
		if err != nil {
			return err
		}
		if taken {
			return bizerror.Conflict("role named %q already exists", c.Name)
		}

		perms, err := resolveActivePermissions(tx, c.Permissions)
		if err != nil {
			return err
		}

		now := types.CurrentTimestamp()
		role := authority.Role{ID: idgen.NextID(roleIdWorker), TenantID: tenantId,
			Name: c.Name, Description: c.Description, Active: true,
			CreatorID: sec.Identity.ID, UpdaterID: sec.Identity.ID,
			CreateTime: now, UpdateTime: now}
		if err := tx.Create(&role).Error; err != nil {
			return err
		}
		if err := createRolePermissionBindings(tx, role.ID, perms); err != nil {
			return err
		}

		detail = &authority.RoleDetail{Role: role, Permissions: perms}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return detail, nil
}

func DetailRole(id types.ID, sec *session.Context) (*authority.RoleDetail, error) {
	db := persistence.ActiveDataSourceManager.GormDB()
	role, err := findLiveRole(db, sec.Identity.TenantID, id)
	if err != nil {
		return nil, err
	}
	details, err := detailRoles(db, []authority.Role{*role})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

func QueryRoles(sec *session.Context) ([]authority.RoleDetail, error) {
	db := persistence.ActiveDataSourceManager.GormDB()
	var roles []authority.Role
	if err := db.Model(&authority.Role{}).Scopes(persistence.LiveRecords).
		Where("tenant_id = ?", sec.Identity.TenantID).Order("id ASC").Find(&roles).Error; err != nil {
		return nil, err
	}
	return detailRoles(db, roles)
}

func UpdateRole(id types.ID, u *authority.RoleUpdating, sec *session.Context) (*authority.RoleDetail, error) {
	tenantId := sec.Identity.TenantID
	var detail *authority.RoleDetail

	txErr := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		role, err := findLiveRole(tx, tenantId, id)
		if err != nil {
			return err
		}

		changes := map[string]interface{}{
			"updater_id":  sec.Identity.ID,
			"update_time": types.CurrentTimestamp(),
		}
		if u.Name != nil && *u.Name != role.Name {
			taken, err := liveRoleNameExists(tx, tenantId, *u.Name, role.ID)
			if err != nil {
				return err
			}
			if taken {
				return bizerror.Conflict("role named %q already exists", *u.Name)
			}
			changes["name"] = *u.Name
		}
		if u.Description != nil {
			changes["description"] = *u.Description
		}

		if u.Permissions != nil {
			perms, err := resolveActivePermissions(tx, *u.Permissions)
			if err != nil {
				return err
			}
			if err := tx.Delete(&authority.RolePermissionBinding{}, "role_id = ?", role.ID).Error; err != nil {
				return err
			}
			if err := createRolePermissionBindings(tx, role.ID, perms); err != nil {
				return err
			}
		}

		if err := tx.Model(&authority.Role{}).Where("id = ?", role.ID).Updates(changes).Error; err != nil {
			return err
		}

		updated, err := findLiveRole(tx, tenantId, id)
		if err != nil {
			return err
		}
		details, err := detailRoles(tx, []authority.Role{*updated})
		if err != nil {
			return err
		}
		detail = &details[0]
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return detail, nil
}

func DeleteRole(id types.ID, sec *session.Context) error {
	return persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		role, err := findLiveRole(tx, sec.Identity.TenantID, id)
		if err != nil {
			return err
		}
		return tx.Model(&authority.Role{}).Where("id = ?", role.ID).
			Updates(map[string]interface{}{
				"deleted":     true,
				"updater_id":  sec.Identity.ID,
				"update_time": types.CurrentTimestamp(),
			}).Error
	})
}

// CopyRole clones a role within the tenant. The copy starts from
// "<name> (Copy)" and probes "(Copy 1)", "(Copy 2)", ... until a free name is
// found; the counter advances only on an actual collision.
func CopyRole(id types.ID, sec *session.Context) (*authority.RoleDetail, error) {
	tenantId := sec.Identity.TenantID
	var detail *authority.RoleDetail

	txErr := persistence.ActiveDataSourceManager.GormDB().Transaction(func(tx *gorm.DB) error {
		source, err := findLiveRole(tx, tenantId, id)
		if err != nil {
			return err
		}

		candidate := source.Name + " (Copy)"
		for i := 1; ; i++ {
			taken, err := liveRoleNameExists(tx, tenantId, candidate, 0)
			if err != nil {
				return err
			}
			if !taken {
				break
			}
			candidate = fmt.Sprintf("%s (Copy %d)", source.Name, i)
		}

		now := types.CurrentTimestamp()
		copied := authority.Role{ID: idgen.NextID(roleIdWorker), TenantID: tenantId,
			Name: candidate, Description: source.Description, Active: true,
			CreatorID: sec.Identity.ID, UpdaterID: sec.Identity.ID,
			CreateTime: now, UpdateTime: now}
		if err := tx.Create(&copied).Error; err != nil {
			return err
		}

		var bindings []authority.RolePermissionBinding
		if err := tx.Model(&authority.RolePermissionBinding{}).
			Where("role_id = ?", source.ID).Find(&bindings).Error; err != nil {
			return err
		}
		for _, b := range bindings {
			binding := authority.RolePermissionBinding{ID: idgen.NextID(bindingIdWorker),
				RoleID: copied.ID, PermissionID: b.PermissionID}
			if err := tx.Create(&binding).Error; err != nil {
				return err
			}
		}

		details, err := detailRoles(tx, []authority.Role{copied})
		if err != nil {
			return err
		}
		detail = &details[0]
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return detail, nil
}

func findLiveRole(db *gorm.DB, tenantId, id types.ID) (*authority.Role, error) {
	role := authority.Role{}
	if err := db.Model(&authority.Role{}).Scopes(persistence.LiveRecords).
		Where("id = ? AND tenant_id = ?", id, tenantId).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.NotFound("role")
		}
		return nil, err
	}
	return &role, nil
}

func findLiveRolesByIds(db *gorm.DB, tenantId types.ID, ids []types.ID) ([]authority.Role, error) {
	if len(ids) == 0 {
		return []authority.Role{}, nil
	}
	var roles []authority.Role
	if err := db.Model(&authority.Role{}).Scopes(persistence.LiveRecords).
		Where("tenant_id = ? AND id IN (?)", tenantId, ids).Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func liveRoleNameExists(db *gorm.DB, tenantId types.ID, name string, excludeId types.ID) (bool, error) {
	query := db.Model(&authority.Role{}).Scopes(persistence.LiveRecords).
		Where("tenant_id = ? AND name = ?", tenantId, name)
	if excludeId > 0 {
		query = query.Where("id != ?", excludeId)
	}
	var count int
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func createRolePermissionBindings(tx *gorm.DB, roleId types.ID, perms []authority.Permission) error {
	for _, p := range perms {
		binding := authority.RolePermissionBinding{ID: idgen.NextID(bindingIdWorker),
			RoleID: roleId, PermissionID: p.ID}
		if err := tx.Create(&binding).Error; err != nil {
			return err
		}
	}
	return nil
}

// detailRoles resolves each role's permission references with an explicit
// two-step join: role ids to bindings, then permission keys to records.
func detailRoles(db *gorm.DB, roles []authority.Role) ([]authority.RoleDetail, error) {
	if len(roles) == 0 {
		return []authority.RoleDetail{}, nil
	}

	var roleIds []types.ID
	for _, r := range roles {
		roleIds = append(roleIds, r.ID)
	}

	var bindings []authority.RolePermissionBinding
	if err := db.Model(&authority.RolePermissionBinding{}).
		Where("role_id IN (?)", roleIds).Find(&bindings).Error; err != nil {
		return nil, err
	}

	permKeysByRole := map[types.ID][]string{}
	var permKeys []string
	for _, b := range bindings {
		permKeysByRole[b.RoleID] = append(permKeysByRole[b.RoleID], b.PermissionID)
		permKeys = append(permKeys, b.PermissionID)
	}

	permsByKey := map[string]authority.Permission{}
	if len(permKeys) > 0 {
		var perms []authority.Permission
		if err := db.Model(&authority.Permission{}).Scopes(persistence.ActiveRecords).
			Where("id IN (?)", distinctPermissionKeys(permKeys)).Find(&perms).Error; err != nil {
			return nil, err
		}
		for _, p := range perms {
			permsByKey[p.ID] = p
		}
	}

	details := make([]authority.RoleDetail, 0, len(roles))
	for _, r := range roles {
		detail := authority.RoleDetail{Role: r, Permissions: []authority.Permission{}}
		for _, key := range permKeysByRole[r.ID] {
			if p, found := permsByKey[key]; found {
				detail.Permissions = append(detail.Permissions, p)
			}
		}
		details = append(details, detail)
	}
	return details, nil
}
