package account

import (
	"github.com/fundwit/go-commons/types"
)

type User struct {
	ID       types.ID `json:"id" gorm:"primary_key"`
	TenantID types.ID `json:"tenantId"`

	Name     string `json:"name"`
	Nickname string `json:"nickname"`
	Secret   string `json:"-"`

	// RoleID is the user's primary role, the one consulted by the
	// tenant-admin check. Project scoped roles live in authority.Assignment.
	RoleID types.ID `json:"roleId"`

	Active  bool `json:"active"`
	Deleted bool `json:"deleted"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

type UserInfo struct {
	ID       types.ID `json:"id"`
	TenantID types.ID `json:"tenantId"`
	Name     string   `json:"name"`
	Nickname string   `json:"nickname"`
}

type UserCreation struct {
	Name     string   `json:"name" binding:"required,lte=255"`
	Nickname string   `json:"nickname" binding:"lte=255"`
	Secret   string   `json:"secret" binding:"required,gte=6"`
	RoleID   types.ID `json:"roleId"`
}

type BasicAuthUpdating struct {
	OriginalSecret string `json:"originalSecret" binding:"required"`
	NewSecret      string `json:"newSecret" binding:"required,gte=6"`
}
