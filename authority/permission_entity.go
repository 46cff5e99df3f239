package authority

// Permission is reference data, deactivated rather than deleted.
type Permission struct {
	ID          string `json:"id" gorm:"primary_key"`
	Title       string `json:"title"`
	Description string `json:"description"`

	Active bool `json:"active"`
}

// Well known permissions. Consumers reference the symbols, never re-derive
// the key strings.
var (
	SystemAdminPermission      = Permission{ID: "system:admin", Title: "System Administration", Active: true}
	SystemSubAdminPermission   = Permission{ID: "system:sub-admin", Title: "System Sub Administration", Active: true}
	TenantSuperAdminPermission = Permission{ID: "tenant:super-admin", Title: "Tenant Super Administration", Active: true}

	DashboardViewPermission  = Permission{ID: "dashboard:view", Title: "Dashboard View", Active: true}
	ProjectManagePermission  = Permission{ID: "project:manage", Title: "Project Management", Active: true}
	RoleManagePermission     = Permission{ID: "role:manage", Title: "Role Management", Active: true}
	MemberManagePermission   = Permission{ID: "member:manage", Title: "Member Management", Active: true}
	AccountManagePermission  = Permission{ID: "account:manage", Title: "Account Management", Active: true}
	WorkspaceViewPermission  = Permission{ID: "workspace:view", Title: "Workspace View", Active: true}
	BillingViewPermission    = Permission{ID: "billing:view", Title: "Billing View", Active: true}
	MessagingSendPermission  = Permission{ID: "messaging:send", Title: "Messaging Send", Active: true}
	UploadsManagePermission  = Permission{ID: "uploads:manage", Title: "Uploads Management", Active: true}
	AiImageCreatePermission  = Permission{ID: "ai-image:create", Title: "AI Image Creation", Active: true}
	SocialFeedViewPermission = Permission{ID: "social-feed:view", Title: "Social Feed View", Active: true}
)

// WellKnownPermissions is the catalog persisted once at process start.
var WellKnownPermissions = []Permission{
	SystemAdminPermission,
	SystemSubAdminPermission,
	TenantSuperAdminPermission,
	DashboardViewPermission,
	ProjectManagePermission,
	RoleManagePermission,
	MemberManagePermission,
	AccountManagePermission,
	WorkspaceViewPermission,
	BillingViewPermission,
	MessagingSendPermission,
	UploadsManagePermission,
	AiImageCreatePermission,
	SocialFeedViewPermission,
}
