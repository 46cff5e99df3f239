package authority

import (
	"strings"
)

type Permissions []string

func (c Permissions) HasRole(role string) bool {
	for _, v := range c {
		if strings.EqualFold(v, role) {
			return true
		}
	}
	return false
}

// HasAny reports whether any of the wanted keys is granted.
// An empty wanted list always matches.
func (c Permissions) HasAny(wanted ...string) bool {
	if len(wanted) == 0 {
		return true
	}
	for _, w := range wanted {
		if c.HasRole(w) {
			return true
		}
	}
	return false
}

func (c Permissions) HasRolePrefix(prefix string) bool {
	for _, v := range c {
		if strings.HasPrefix(strings.ToLower(v), strings.ToLower(prefix)) {
			return true
		}
	}
	return false
}
