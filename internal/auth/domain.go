package auth

import "time"

// User represents an admin account that can sign in.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	IsSuperAdmin bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
