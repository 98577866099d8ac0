package domain

// Actor identifies the authenticated caller of a service operation.
type Actor struct {
	UserID int64
	Role   Role
}

// Is reports whether the actor holds one of the roles.
func (a Actor) Is(roles ...Role) bool {
	return a.Role.In(roles...)
}
