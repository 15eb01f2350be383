package domain

import (
	"strings"
	"time"
)

// Role is the access level attached to an account.
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleStudent Role = "Student"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStudent
}

// User is a persisted account record. The JSON shape is the stored blob format.
type User struct {
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"passwordHash"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsAdmin reports whether the account holds the Admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Session is a snapshot of the signed-in user taken at sign-in time.
// Later edits to the underlying User are not reflected until the next sign-in.
type Session struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// SnapshotSession builds the session record for user.
func SnapshotSession(user User, id string, now time.Time) Session {
	return Session{
		ID:        id,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: now,
	}
}

// NormalizeEmail returns the canonical form used as the account key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SameEmail compares two addresses case-insensitively.
func SameEmail(a, b string) bool {
	return NormalizeEmail(a) == NormalizeEmail(b)
}
