package tenant

import (
	"github.com/fundwit/go-commons/types"
)

type Tenant struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	Name       string `json:"name"`
	Identifier string `json:"identifier" gorm:"unique_index:uni_tenant_identifier"`

	Active  bool `json:"active"`
	Deleted bool `json:"deleted"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

type TenantCreation struct {
	Name       string `json:"name" binding:"required,lte=255"`
	Identifier string `json:"identifier" binding:"required,lte=64"`
}
