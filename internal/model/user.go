// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a registered account.
//
// Email is stored trimmed and lower-cased, so it doubles as the login key.
// PasswordHash is a bcrypt hash; it is empty for accounts created through
// GitHub sign-in, and an empty hash never verifies.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
