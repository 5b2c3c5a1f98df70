package auth

import (
	"fmt"
	"strings"
)

// Role is an account role name.
type Role string

// Known roles.
const (
	RoleAuthor Role = "author"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

// Capability is a named permission evaluated per route. Routes check
// capabilities, never role lists.
type Capability string

// Capabilities gating asset operations.
const (
	CapAssetsRead   Capability = "assets.read"
	CapAssetsWrite  Capability = "assets.write"
	CapAssetsDelete Capability = "assets.delete"
)

// grants maps each capability to the roles that hold it. Authors can upload
// and replace assets but not list, fetch, or delete them.
var grants = map[Capability]map[Role]bool{
	CapAssetsRead:   {RoleEditor: true, RoleAdmin: true},
	CapAssetsWrite:  {RoleAuthor: true, RoleEditor: true, RoleAdmin: true},
	CapAssetsDelete: {RoleEditor: true, RoleAdmin: true},
}

// ParseRole normalizes and validates a role name.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	switch role {
	case RoleAuthor, RoleEditor, RoleAdmin:
		return role, nil
	default:
		return "", fmt.Errorf("unknown role: %q", raw)
	}
}

// Allowed reports whether the role holds the capability.
func Allowed(role Role, cap Capability) bool {
	return grants[cap][role]
}
