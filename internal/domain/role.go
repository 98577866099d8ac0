package domain

// Role is the referential role assigned to every user.
type Role string

const (
	RoleClient  Role = "client"
	RoleSupport Role = "support"
	RoleAdmin   Role = "admin"
)

// Roles lists every known role in seed order.
var Roles = []Role{RoleClient, RoleSupport, RoleAdmin}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleSupport, RoleAdmin:
		return true
	}
	return false
}

// In reports whether r is one of allowed.
func (r Role) In(allowed ...Role) bool {
	for _, candidate := range allowed {
		if r == candidate {
			return true
		}
	}
	return false
}

// RoleRecord mirrors a row of the roles lookup table.
type RoleRecord struct {
	ID   int64
	Name Role
}
