package models

import "time"

// Credential is one stored Plaid access token for a linked institution.
// AccessToken holds the decrypted value after the vault reads it back; it is
// never serialized.
type Credential struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	AccessToken        string    `json:"-"`
	ItemID             string    `json:"item_id"`
	InstitutionID      string    `json:"institution_id,omitempty"`
	InstitutionName    string    `json:"institution_name,omitempty"`
	InstitutionLogoURL string    `json:"institution_logo_url,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
