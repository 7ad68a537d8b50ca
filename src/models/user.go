package models

import "time"

// User is the internal identity anchor for an Auth0 subject. Created on first
// successful token verification, never deleted by normal flows.
type User struct {
	ID          string    `json:"id"`
	Auth0UserID string    `json:"auth0_user_id"`
	Email       string    `json:"email,omitempty"`
	Name        string    `json:"name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
