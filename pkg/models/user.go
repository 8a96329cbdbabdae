package models

import (
	"time"
)

// Identity represents an account that can authenticate against the API
type Identity struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	Email        string    `json:"email" db:"email"`
	IsAdmin      bool      `json:"is_admin" db:"is_admin"`
	DateJoined   time.Time `json:"date_joined" db:"date_joined"`
}

// ProfilePatch carries the mutable profile fields. Nil fields are left untouched.
type ProfilePatch struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
}

// Apply copies the set fields of the patch onto the identity
func (p ProfilePatch) Apply(id *Identity) {
	if p.FirstName != nil {
		id.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		id.LastName = *p.LastName
	}
	if p.Email != nil {
		id.Email = *p.Email
	}
}
