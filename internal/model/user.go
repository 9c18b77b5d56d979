// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Points are the in-app currency: every account starts at 0 and the balance
// only ever decreases, via item redemption. The balance must never go
// negative — the repository enforces that with a conditional update rather
// than a read-check-write sequence.
//
// PasswordHash holds the bcrypt hash of the user's password. It is empty for
// accounts created through GitHub OAuth (they have no password to hash), and
// it is never serialized — note the `json:"-"` tag.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"isAdmin"`
	Points       int       `json:"points"`
	FullName     string    `json:"fullName,omitempty"`
	Age          int       `json:"age,omitempty"`
	Gender       string    `json:"gender,omitempty"`
	GitHubID     int64     `json:"-"` // set only for OAuth-linked accounts
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PublicProfile is the subset of a user that other users may see, e.g.
// joined onto an item as its uploader.
type PublicProfile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName,omitempty"`
}

// Public returns the user's public profile fields.
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
	}
}
