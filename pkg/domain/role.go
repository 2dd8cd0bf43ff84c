package domain

import dErrors "attestry/pkg/domain-errors"

// Role is a capability held by an identity. Admin is held independently; an
// identity holds at most one of Issuer and Earner at a time.
//
// Usage: construct via ParseRole at trust boundaries to enforce the allowlist;
// direct casting bypasses validation.
type Role string

// Supported roles. RoleNone is the absence of any role and is never granted.
const (
	RoleAdmin  Role = "admin"
	RoleIssuer Role = "issuer"
	RoleEarner Role = "earner"
	RoleNone   Role = "none"
)

// validRoles is the single source of truth for grantable roles.
var validRoles = map[Role]bool{
	RoleAdmin:  true,
	RoleIssuer: true,
	RoleEarner: true,
}

// ParseRole constructs a Role from external input.
//
// Errors: returns CodeInvalidInput when the value is empty, "none", or
// unsupported; no other errors are expected.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return RoleNone, dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return RoleNone, dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

// IsValid checks if the role is one of the grantable roles.
func (r Role) IsValid() bool {
	return validRoles[r]
}

// Exclusive reports whether the role participates in the one-non-Admin-role
// constraint.
func (r Role) Exclusive() bool {
	return r == RoleIssuer || r == RoleEarner
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}
