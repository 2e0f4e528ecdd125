// Package authz derives what the current session may see and do in the
// LegalTime client.
//
// Gating here is a convenience for the user interface. The backend
// re-checks every decision; nothing in this package is a security
// boundary.
package authz

import "strings"

// Role is the closed set of LegalTime employee roles.
type Role string

const (
	RoleLawyer       Role = "lawyer"
	RoleSeniorLawyer Role = "senior_lawyer"
	RoleAdmin        Role = "admin"
)

// Roles lists every role from least to most privileged.
var Roles = []Role{RoleLawyer, RoleSeniorLawyer, RoleAdmin}

// ParseRole maps a raw claim value onto a Role. Empty and unrecognised
// values collapse to RoleLawyer, the least privileged role.
func ParseRole(raw string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleSeniorLawyer:
		return RoleSeniorLawyer
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleLawyer
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleLawyer, RoleSeniorLawyer, RoleAdmin:
		return true
	}
	return false
}

// Label returns a display name for the role.
func (r Role) Label() string {
	switch r {
	case RoleSeniorLawyer:
		return "Senior lawyer"
	case RoleAdmin:
		return "Administrator"
	default:
		return "Lawyer"
	}
}

func (r Role) String() string {
	return string(r)
}

// normalize guards callers that construct a Role from an arbitrary string.
func (r Role) normalize() Role {
	if r.Valid() {
		return r
	}
	return RoleLawyer
}
