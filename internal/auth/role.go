package auth

import "fmt"

type Role string

const (
	RoleUser       Role = "user"
	RoleBusiness   Role = "business"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Roles lists every valid role.
var Roles = []Role{RoleUser, RoleBusiness, RoleAdmin, RoleSuperAdmin}

// ParseRole accepts exactly the four role strings (case-sensitive).
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleBusiness, RoleAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

func (r Role) String() string { return string(r) }

// IsAdmin is true for admin and super_admin.
func (r Role) IsAdmin() bool {
	switch r {
	case RoleAdmin, RoleSuperAdmin:
		return true
	case RoleUser, RoleBusiness:
		return false
	default:
		return false
	}
}

func (r Role) IsSuperAdmin() bool {
	switch r {
	case RoleSuperAdmin:
		return true
	case RoleUser, RoleBusiness, RoleAdmin:
		return false
	default:
		return false
	}
}

// Covers reports whether r holds every privilege of o under the order
// super_admin > admin > {business, user}. user and business are not
// comparable with each other.
func (r Role) Covers(o Role) bool {
	if !r.Valid() || !o.Valid() {
		return false
	}
	if r == o {
		return true
	}
	switch r {
	case RoleSuperAdmin:
		return true
	case RoleAdmin:
		return o == RoleUser || o == RoleBusiness
	case RoleUser, RoleBusiness:
		return false
	default:
		return false
	}
}
