// Package model defines domain entities for the application.
package model

import "time"

// User is an account holder. APIKey is a long-lived credential assigned at
// registration; it is never rotated implicitly.
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	APIKey          string    `json:"-"`
	IsAdmin         bool      `json:"is_admin"`
	Nickname        string    `json:"nickname"`
	ProfileImageURL string    `json:"profile_image_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Principal is the identity resolved for a single request.
type Principal struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

// Principal returns the request identity for the user.
func (u *User) Principal() Principal {
	return Principal{
		ID:      u.ID,
		Email:   u.Email,
		IsAdmin: u.IsAdmin,
	}
}
