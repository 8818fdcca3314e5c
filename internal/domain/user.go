package domain

import "time"

// Role enumerates the two principal kinds in the system.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleWarden  Role = "WARDEN"
)

// Valid reports whether the role is known.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleWarden
}

// User is the domain model for anyone who can log in: students who report
// tickets and the warden who triages them.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
