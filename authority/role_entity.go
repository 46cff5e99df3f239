package authority

import (
	"github.com/fundwit/go-commons/types"
)

type Role struct {
	ID       types.ID `json:"id" gorm:"primary_key"`
	TenantID types.ID `json:"tenantId"`

	Name        string `json:"name"`
	Description string `json:"description"`

	Active  bool `json:"active"`
	Deleted bool `json:"deleted"`

	CreatorID types.ID `json:"creatorId"`
	UpdaterID types.ID `json:"updaterId"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
	UpdateTime types.Timestamp `json:"updateTime" sql:"type:DATETIME(6) NOT NULL"`
}

type RolePermissionBinding struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	RoleID       types.ID `json:"roleId" gorm:"unique_index:uni_role_perm"`
	PermissionID string   `json:"permissionId" gorm:"unique_index:uni_role_perm"`
}

type RoleCreation struct {
	Name        string   `json:"name" binding:"required,lte=255"`
	Description string   `json:"description" binding:"lte=512"`
	Permissions []string `json:"permissions"`
}

// RoleUpdating merges only the supplied fields into the record.
type RoleUpdating struct {
	Name        *string   `json:"name" binding:"omitempty,lte=255"`
	Description *string   `json:"description" binding:"omitempty,lte=512"`
	Permissions *[]string `json:"permissions"`
}

type RoleDetail struct {
	Role

	Permissions []Permission `json:"permissions"`
}
