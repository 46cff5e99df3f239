package security

import (
	"errors"

	"authkernel/account"
	"authkernel/authority"
	"authkernel/persistence"
	"authkernel/tenant"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	systemTenant    = tenant.Tenant{ID: 1, Name: "System", Identifier: "system", Active: true}
	systemAdminRole = authority.Role{ID: 1, TenantID: 1, Name: "System Administrator", Active: true}

	systemAdminRoleBindings = []authority.RolePermissionBinding{
		{ID: 1, RoleID: systemAdminRole.ID, PermissionID: authority.SystemAdminPermission.ID},
		{ID: 2, RoleID: systemAdminRole.ID, PermissionID: authority.TenantSuperAdminPermission.ID},
	}
)

// DefaultAuthorityConfiguration seeds the permission catalog, the system
// tenant, the system administrator role and the initial admin account.
// Safe to run at every process start.
func DefaultAuthorityConfiguration() error {
	db := persistence.ActiveDataSourceManager.GormDB()

	for _, p := range authority.WellKnownPermissions {
		if err := db.Save(&p).Error; err != nil {
			return err
		}
	}

	if err := db.Save(&systemTenant).Error; err != nil {
		return err
	}
	if err := db.Save(&systemAdminRole).Error; err != nil {
		return err
	}
	for _, b := range systemAdminRoleBindings {
		if err := db.Save(&b).Error; err != nil {
			return err
		}
	}

	return db.Transaction(func(tx *gorm.DB) error {
		admin := account.User{}
		err := tx.Model(&account.User{}).Where("id = ?", 1).First(&admin).Error
		if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
			admin = account.User{ID: 1, TenantID: systemTenant.ID, Name: "admin",
				Secret: account.HashSha256("admin123"), RoleID: systemAdminRole.ID,
				Active: true, CreateTime: types.CurrentTimestamp()}
			return tx.Create(&admin).Error
		}
		return err
	})
}
