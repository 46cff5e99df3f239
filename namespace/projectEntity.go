package namespace

import (
	"github.com/fundwit/go-commons/types"
)

type Project struct {
	ID       types.ID `json:"id" gorm:"primary_key"`
	TenantID types.ID `json:"tenantId"`

	Name       string `json:"name"`
	Identifier string `json:"identifier" gorm:"unique_index:uni_project_identifier"`

	Active  bool `json:"active"`
	Deleted bool `json:"deleted"`

	Creator    types.ID        `json:"creator"`
	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

type ProjectCreation struct {
	Name       string `json:"name" binding:"required,lte=255"`
	Identifier string `json:"identifier" binding:"required,lte=64"`
}
