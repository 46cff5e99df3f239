package session

import (
	"time"

	"authkernel/authority"

	"github.com/fundwit/go-commons/types"
)

type Context struct {
	Token    string   `json:"token"`
	Identity Identity `json:"identity"`

	// Perms and the two derived flags are resolved per request by the
	// authorization gate, not at signing time.
	Perms      authority.Permissions `json:"perms"`
	IsAdmin    bool                  `json:"isAdmin"`
	IsSubAdmin bool                  `json:"isSubAdmin"`

	SigningTime time.Time `json:"-"`
}

type Identity struct {
	ID       types.ID `json:"id"`
	TenantID types.ID `json:"tenantId"`
	Name     string   `json:"name"`
	Nickname string   `json:"nickname"`
}
