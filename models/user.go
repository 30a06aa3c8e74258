package models

import (
	"strings"
	"time"
)

// User is a row of the users table
type User struct {
	ID        int32     `json:"id" db:"id"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// RegisterUser is the request body for creating a user
type RegisterUser struct {
	FirstName string `json:"first_name" validate:"required,max=255"`
	LastName  string `json:"last_name" validate:"required,max=255"`
	Email     string `json:"email" validate:"required,email,max=255"`
}

// Normalize trims surrounding whitespace from every field
func (r *RegisterUser) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.TrimSpace(r.Email)
}

// NewUser creates an unsaved User from a registration. ID and CreatedAt
// are assigned by the database.
func NewUser(reg RegisterUser) *User {
	return &User{
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
		Email:     reg.Email,
	}
}
