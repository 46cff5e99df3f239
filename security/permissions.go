package security

import (
	"errors"

	"authkernel/authority"
	"authkernel/bizerror"
	"authkernel/persistence"

	"github.com/jinzhu/gorm"
)

var (
	FindPermissionFunc   = FindPermission
	QueryPermissionsFunc = QueryPermissions
)

// FindPermission looks a permission up by key. An unknown or deactivated key
// is a NotFound for the caller to treat as a validation failure, never an
// implicit deny-all.
func FindPermission(key string) (*authority.Permission, error) {
	db := persistence.ActiveDataSourceManager.GormDB()
	p := authority.Permission{}
	if err := db.Model(&authority.Permission{}).Scopes(persistence.ActiveRecords).
		Where("id = ?", key).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.NotFound("permission")
		}
		return nil, err
	}
	return &p, nil
}

func QueryPermissions() ([]authority.Permission, error) {
	var perms []authority.Permission
	db := persistence.ActiveDataSourceManager.GormDB()
	if err := db.Model(&authority.Permission{}).Scopes(persistence.ActiveRecords).
		Order("id ASC").Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

// resolveActivePermissions resolves every key to an active permission.
// Any key failing to resolve fails the whole resolution, so a role can
// never be persisted with dangling permission references.
func resolveActivePermissions(tx *gorm.DB, keys []string) ([]authority.Permission, error) {
	distinct := distinctPermissionKeys(keys)
	if len(distinct) == 0 {
		return []authority.Permission{}, nil
	}
	var perms []authority.Permission
	if err := tx.Model(&authority.Permission{}).Scopes(persistence.ActiveRecords).
		Where("id IN (?)", distinct).Order("id ASC").Find(&perms).Error; err != nil {
		return nil, err
	}
	if len(perms) != len(distinct) {
		return nil, &bizerror.ErrBadParam{Cause: bizerror.NotFound("permission")}
	}
	return perms, nil
}

func distinctPermissionKeys(keys []string) []string {
	seen := map[string]bool{}
	var distinct []string
	for _, k := range keys {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		distinct = append(distinct, k)
	}
	return distinct
}
