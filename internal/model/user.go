package model

import "time"

// User roles as stored in the users.role enum column.  Admins manage
// the catalog and schedules; customers reserve and buy seats.
const (
	RoleAdmin    = "ADMIN"
	RoleCustomer = "CUSTOMER"
)

// User mirrors the 'users' table.  PasswordHash never leaves the
// server; the json tag keeps it out of every response.
type User struct {
	ID           uint64    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
