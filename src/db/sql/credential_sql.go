package db

import (
	"context"
	"errors"
	"fmt"

	"budgetguard-server/src/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Rows are scanned with the ciphertext in AccessToken; the vault decrypts
// before anything leaves it.

func ListCredentialRows(ctx context.Context, pool *pgxpool.Pool, userID string) ([]models.Credential, error) {
	query := `
		SELECT id, user_id, access_token_encrypted, item_id,
		       COALESCE(institution_id, ''), COALESCE(institution_name, ''), COALESCE(institution_logo_url, ''),
		       created_at, updated_at
		FROM plaid_access_tokens
		WHERE user_id = $1
		ORDER BY created_at
	`
	rows, err := pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query credentials: %w", err)
	}
	defer rows.Close()

	var creds []models.Credential
	for rows.Next() {
		var cred models.Credential
		err := rows.Scan(
			&cred.ID,
			&cred.UserID,
			&cred.AccessToken,
			&cred.ItemID,
			&cred.InstitutionID,
			&cred.InstitutionName,
			&cred.InstitutionLogoURL,
			&cred.CreatedAt,
			&cred.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		creds = append(creds, cred)
	}
	return creds, rows.Err()
}

// GetCredentialRow returns nil without error when no row exists for the
// (user, item) pair.
func GetCredentialRow(ctx context.Context, pool *pgxpool.Pool, userID, itemID string) (*models.Credential, error) {
	query := `
		SELECT id, user_id, access_token_encrypted, item_id,
		       COALESCE(institution_id, ''), COALESCE(institution_name, ''), COALESCE(institution_logo_url, ''),
		       created_at, updated_at
		FROM plaid_access_tokens
		WHERE user_id = $1 AND item_id = $2
	`
	var cred models.Credential
	err := pool.QueryRow(ctx, query, userID, itemID).Scan(
		&cred.ID,
		&cred.UserID,
		&cred.AccessToken,
		&cred.ItemID,
		&cred.InstitutionID,
		&cred.InstitutionName,
		&cred.InstitutionLogoURL,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query credential: %w", err)
	}
	return &cred, nil
}

// UpsertCredential inserts a row for (user, item) or, on conflict, replaces
// the ciphertext and institution metadata in place. The existing row keeps
// its id and created_at.
func UpsertCredential(ctx context.Context, pool *pgxpool.Pool, userID, encryptedToken, itemID, institutionID, institutionName, logoURL string) error {
	query := `
		INSERT INTO plaid_access_tokens
			(id, user_id, access_token_encrypted, item_id, institution_id, institution_name, institution_logo_url)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''))
		ON CONFLICT (user_id, item_id) DO UPDATE SET
			access_token_encrypted = EXCLUDED.access_token_encrypted,
			institution_id = EXCLUDED.institution_id,
			institution_name = EXCLUDED.institution_name,
			institution_logo_url = EXCLUDED.institution_logo_url,
			updated_at = now()
	`
	_, err := pool.Exec(ctx, query, uuid.NewString(), userID, encryptedToken, itemID, institutionID, institutionName, logoURL)
	if err != nil {
		return fmt.Errorf("upsert credential: %w", err)
	}
	return nil
}

func DeleteCredential(ctx context.Context, pool *pgxpool.Pool, userID, itemID string) error {
	_, err := pool.Exec(ctx, `DELETE FROM plaid_access_tokens WHERE user_id = $1 AND item_id = $2`, userID, itemID)
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

func DeleteCredentials(ctx context.Context, pool *pgxpool.Pool, userID string) error {
	_, err := pool.Exec(ctx, `DELETE FROM plaid_access_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete credentials: %w", err)
	}
	return nil
}

func CredentialExists(ctx context.Context, pool *pgxpool.Pool, userID, itemID string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM plaid_access_tokens WHERE user_id = $1 AND item_id = $2)`,
		userID, itemID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check credential exists: %w", err)
	}
	return exists, nil
}

func AnyCredentialExists(ctx context.Context, pool *pgxpool.Pool, userID string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM plaid_access_tokens WHERE user_id = $1)`,
		userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check credentials exist: %w", err)
	}
	return exists, nil
}
