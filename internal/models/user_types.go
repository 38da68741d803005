package models

import "time"

// Roles allowed into the back-office.
const (
	RoleAdministrator = "administrator"
	RoleManager       = "manager"
	RoleClient        = "client"
	RoleExecutant     = "executant"
)

// User Model, trimmed to what the back-office reads
type User struct {
	ID           int64     `json:"id" db:"id"`
	Role         string    `json:"role" db:"role"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FullName     string    `json:"fullName" db:"full_name"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// IsStaff reports whether the user may use the back-office.
func (u User) IsStaff() bool {
	return u.Role == RoleAdministrator || u.Role == RoleManager
}
