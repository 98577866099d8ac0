package domain

import "time"

// User is an account of any role.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserSummary is the public projection embedded in tickets and history.
type UserSummary struct {
	ID    int64
	Name  string
	Email string
	Role  Role
}

// Summary projects the user without credentials.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
