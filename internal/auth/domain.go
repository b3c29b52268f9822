package auth

import "time"

// Credential is the login view of a user account.
type Credential struct {
	UserID       string
	Email        string
	PasswordHash string
	Deleted      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
