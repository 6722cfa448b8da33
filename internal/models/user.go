package models

import "time"

// Role represents the available account roles for the RBAC system.
type Role string

const (
	RoleCreator   Role = "CREATOR"
	RoleDirector  Role = "DIRECTOR"
	RoleHOD       Role = "HOD"
	RoleProfessor Role = "PROFESSOR"
	RoleStudent   Role = "STUDENT"
	RoleAdmin     Role = "ADMIN"
)

// Valid reports whether the role is one of the defined values.
func (r Role) Valid() bool {
	switch r {
	case RoleCreator, RoleDirector, RoleHOD, RoleProfessor, RoleStudent, RoleAdmin:
		return true
	}
	return false
}

// Account represents a login identity stored in the accounts table.
type Account struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         Role       `db:"role" json:"role"`
	Department   *string    `db:"department" json:"department,omitempty"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// AccountFilter captures filtering criteria for listing accounts.
type AccountFilter struct {
	Role      *Role
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
