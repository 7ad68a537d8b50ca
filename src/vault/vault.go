package vault

import (
	"context"
	"fmt"
	"log"

	db "budgetguard-server/src/db/sql"
	"budgetguard-server/src/models"
	"budgetguard-server/src/secrets"

	"github.com/jackc/pgx/v5/pgxpool"
)

// InvalidArgumentError marks caller mistakes, like an upsert without an item
// id, as distinct from internal failures.
type InvalidArgumentError struct {
	Msg string
}

func (e *InvalidArgumentError) Error() string { return e.Msg }

// Vault owns the plaid_access_tokens rows. Secrets are encrypted before every
// write and decrypted on the way out; nothing outside this package sees the
// ciphertext.
type Vault struct {
	pool   *pgxpool.Pool
	cipher *secrets.Cipher
}

func New(pool *pgxpool.Pool, cipher *secrets.Cipher) *Vault {
	return &Vault{pool: pool, cipher: cipher}
}

// ListCredentials returns every stored credential for the subject with the
// access token decrypted. A user with no rows, or no user row at all, yields
// an empty list.
func (v *Vault) ListCredentials(ctx context.Context, subjectID string) ([]models.Credential, error) {
	user, err := db.GetUserBySubjectID(ctx, v.pool, subjectID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	rows, err := db.ListCredentialRows(ctx, v.pool, user.ID)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		plaintext, err := v.cipher.Decrypt(rows[i].AccessToken)
		if err != nil {
			return nil, fmt.Errorf("decrypt credential for item %s: %w", rows[i].ItemID, err)
		}
		rows[i].AccessToken = plaintext
	}
	return rows, nil
}

// FirstCredential returns the oldest stored credential, or nil when the user
// has linked nothing yet. Absence is a normal outcome, not an error.
func (v *Vault) FirstCredential(ctx context.Context, subjectID string) (*models.Credential, error) {
	creds, err := v.ListCredentials(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if len(creds) == 0 {
		return nil, nil
	}
	return &creds[0], nil
}

// CredentialForItem returns the credential for one linked institution, or nil
// when the pair has no row.
func (v *Vault) CredentialForItem(ctx context.Context, subjectID, itemID string) (*models.Credential, error) {
	user, err := db.GetUserBySubjectID(ctx, v.pool, subjectID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	cred, err := db.GetCredentialRow(ctx, v.pool, user.ID, itemID)
	if err != nil || cred == nil {
		return nil, err
	}
	plaintext, err := v.cipher.Decrypt(cred.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("decrypt credential for item %s: %w", itemID, err)
	}
	cred.AccessToken = plaintext
	return cred, nil
}

// Upsert stores the access token for (subject, item), replacing the secret
// and institution metadata when the pair already has a row. Non-empty email
// and name opportunistically refresh the user's profile.
func (v *Vault) Upsert(ctx context.Context, subjectID, accessToken, itemID, institutionID, institutionName, logoURL, email, name string) error {
	if itemID == "" {
		return &InvalidArgumentError{Msg: "item_id is required when storing Plaid tokens"}
	}

	user, err := db.GetOrCreateUser(ctx, v.pool, subjectID)
	if err != nil {
		return err
	}

	if (email != "" && email != user.Email) || (name != "" && name != user.Name) {
		newEmail := user.Email
		if email != "" {
			newEmail = email
		}
		newName := user.Name
		if name != "" {
			newName = name
		}
		if err := db.UpdateUserProfile(ctx, v.pool, user.ID, newEmail, newName); err != nil {
			return err
		}
	}

	encrypted, err := v.cipher.Encrypt(accessToken)
	if err != nil {
		return fmt.Errorf("encrypt credential for item %s: %w", itemID, err)
	}

	if err := db.UpsertCredential(ctx, v.pool, user.ID, encrypted, itemID, institutionID, institutionName, logoURL); err != nil {
		return err
	}
	log.Printf("INFO: Stored Plaid token for user %s, item %s", subjectID, itemID)
	return nil
}

// Remove deletes the credential for one item. Unknown users and unknown items
// are no-ops.
func (v *Vault) Remove(ctx context.Context, subjectID, itemID string) error {
	user, err := db.GetUserBySubjectID(ctx, v.pool, subjectID)
	if err != nil {
		return err
	}
	if user == nil {
		log.Printf("WARN: No user found for Auth0 subject %s, nothing to remove", subjectID)
		return nil
	}
	return db.DeleteCredential(ctx, v.pool, user.ID, itemID)
}

// RemoveAll deletes every credential for the subject. A missing user is a
// no-op.
func (v *Vault) RemoveAll(ctx context.Context, subjectID string) error {
	user, err := db.GetUserBySubjectID(ctx, v.pool, subjectID)
	if err != nil {
		return err
	}
	if user == nil {
		log.Printf("WARN: No user found for Auth0 subject %s, nothing to remove", subjectID)
		return nil
	}
	return db.DeleteCredentials(ctx, v.pool, user.ID)
}

func (v *Vault) HasCredentials(ctx context.Context, subjectID string) (bool, error) {
	user, err := db.GetUserBySubjectID(ctx, v.pool, subjectID)
	if err != nil || user == nil {
		return false, err
	}
	return db.AnyCredentialExists(ctx, v.pool, user.ID)
}

func (v *Vault) HasCredentialForItem(ctx context.Context, subjectID, itemID string) (bool, error) {
	user, err := db.GetUserBySubjectID(ctx, v.pool, subjectID)
	if err != nil || user == nil {
		return false, err
	}
	return db.CredentialExists(ctx, v.pool, user.ID, itemID)
}
