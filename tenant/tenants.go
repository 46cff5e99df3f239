package tenant

import (
	"errors"

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
	tenantIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateTenantFunc = CreateTenant
	QueryTenantsFunc = QueryTenants
)

func CreateTenant(c *TenantCreation, sec *session.Context) (*Tenant, error) {
	if !sec.Perms.HasRole(authority.SystemAdminPermission.ID) {
		return nil, bizerror.ErrForbidden
	}

	t := Tenant{ID: idgen.NextID(tenantIdWorker), Name: c.Name, Identifier: c.Identifier,
		Active: true, CreateTime: types.CurrentTimestamp()}
	if err := persistence.ActiveDataSourceManager.GormDB().Create(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func QueryTenants(sec *session.Context) (*[]Tenant, error) {
	if !sec.Perms.HasRole(authority.SystemAdminPermission.ID) {
		return nil, bizerror.ErrForbidden
	}

	var tenants []Tenant
	db := persistence.ActiveDataSourceManager.GormDB()
	if err := db.Model(&Tenant{}).Scopes(persistence.LiveRecords).Find(&tenants).Error; err != nil {
		return nil, err
	}
	return &tenants, nil
}

// FindLiveTenant resolves an active, non-deleted tenant.
func FindLiveTenant(db *gorm.DB, id types.ID) (*Tenant, error) {
	t := Tenant{}
	if err := db.Model(&Tenant{}).Scopes(persistence.LiveRecords).
		Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.NotFound("tenant")
		}
		return nil, err
	}
	return &t, nil
}
