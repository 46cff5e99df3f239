package authority

import (
	"github.com/fundwit/go-commons/types"
)

// Assignment binds a user to a set of roles within one project of one tenant.
// At most one non-deleted assignment may exist per (tenant, user, project).
type Assignment struct {
	ID       types.ID `json:"id" gorm:"primary_key"`
	TenantID types.ID `json:"tenantId"`
	UserID   types.ID `json:"userId"`

	ProjectID types.ID `json:"projectId"`

	IsDefault bool `json:"isDefault"`
	Disabled  bool `json:"disabled"`
	// Lock fans the entry's role set out across every other live project
	// of the tenant when the assignment is written.
	Lock bool `json:"lock" gorm:"column:lock_roles"`

	Deleted bool `json:"deleted"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
	UpdateTime types.Timestamp `json:"updateTime" sql:"type:DATETIME(6) NOT NULL"`
}

type AssignmentRoleBinding struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	AssignmentID types.ID `json:"assignmentId" gorm:"unique_index:uni_assignment_role"`
	RoleID       types.ID `json:"roleId" gorm:"unique_index:uni_assignment_role"`
}

type ProjectRoleEntry struct {
	ProjectID types.ID   `json:"projectId" binding:"required"`
	Roles     []types.ID `json:"roles"`

	IsDefault bool `json:"isDefault"`
	Disabled  bool `json:"disabled"`
	Lock      bool `json:"lock"`
}

type AssignmentBatchCreation struct {
	UserID  types.ID           `json:"userId" binding:"required"`
	Entries []ProjectRoleEntry `json:"entries" binding:"required,dive"`
}

// AssignmentBatchUpdating replaces the user's entire project-role picture.
// An empty entry list revokes all of the user's project access.
type AssignmentBatchUpdating struct {
	UserID  types.ID           `json:"userId" binding:"required"`
	Entries []ProjectRoleEntry `json:"entries" binding:"omitempty,dive"`
}

type AssignmentQuery struct {
	UserID    *types.ID `json:"userId" form:"userId"`
	ProjectID *types.ID `json:"projectId" form:"projectId"`
}

type AssignmentDeletion struct {
	ID types.ID `json:"id" form:"id" binding:"required"`
}

type AssignmentDetail struct {
	Assignment

	UserName    string `json:"userName"`
	ProjectName string `json:"projectName"`

	Roles []RoleDetail `json:"roles"`
}
