package models

// Role is one of the fixed built-in team roles.
// Built-in roles are global; their default permissions live in RolePermission.
type Role string

// Built-in roles.
const (
	RoleOwner          Role = "OWNER"
	RoleAdmin          Role = "ADMIN"
	RoleManager        Role = "MANAGER"
	RoleEditor         Role = "EDITOR"
	RoleClientReviewer Role = "CLIENT_REVIEWER"
	RoleViewer         Role = "VIEWER"
)

// BuiltinRoles returns all built-in roles ordered from most to least privileged.
func BuiltinRoles() []Role {
	return []Role{
		RoleOwner,
		RoleAdmin,
		RoleManager,
		RoleEditor,
		RoleClientReviewer,
		RoleViewer,
	}
}

// Valid reports whether r is a known built-in role.
func (r Role) Valid() bool {
	for _, known := range BuiltinRoles() {
		if r == known {
			return true
		}
	}

	return false
}

// ParseRole returns the built-in role named s.
func ParseRole(s string) (Role, bool) {
	r := Role(s)

	return r, r.Valid()
}

// Ptr returns a pointer to a copy of r, handy for nullable columns.
func (r Role) Ptr() *Role {
	return &r
}
