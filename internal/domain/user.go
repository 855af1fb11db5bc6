package domain

import "time"

// Role distinguishes shoppers from store administrators.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// User is the backend's view of an account, immutable once fetched
// for a session.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin reports whether the user may call admin endpoints.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
