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

// GetUserBySubjectID returns nil without error when no user exists for the
// Auth0 subject id.
func GetUserBySubjectID(ctx context.Context, pool *pgxpool.Pool, subjectID string) (*models.User, error) {
	query := `
		SELECT id, auth0_user_id, COALESCE(email, ''), COALESCE(name, ''), created_at, updated_at
		FROM users
		WHERE auth0_user_id = $1
	`
	var user models.User
	err := pool.QueryRow(ctx, query, subjectID).Scan(
		&user.ID,
		&user.Auth0UserID,
		&user.Email,
		&user.Name,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user by subject id: %w", err)
	}
	return &user, nil
}

// GetOrCreateUser inserts a user row for the subject id if none exists yet.
// The uniqueness constraint on auth0_user_id is the authority under
// concurrent first contact: when the insert conflicts, the row created by the
// other writer is read back instead.
func GetOrCreateUser(ctx context.Context, pool *pgxpool.Pool, subjectID string) (*models.User, error) {
	query := `
		INSERT INTO users (id, auth0_user_id)
		VALUES ($1, $2)
		ON CONFLICT (auth0_user_id) DO NOTHING
		RETURNING id, auth0_user_id, COALESCE(email, ''), COALESCE(name, ''), created_at, updated_at
	`
	var user models.User
	err := pool.QueryRow(ctx, query, uuid.NewString(), subjectID).Scan(
		&user.ID,
		&user.Auth0UserID,
		&user.Email,
		&user.Name,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		// Lost the race or the row already existed; look it up.
		existing, err := GetUserBySubjectID(ctx, pool, subjectID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, fmt.Errorf("user %s vanished after conflicting insert", subjectID)
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// UpdateUserProfile overwrites the user's email and name. Empty values are
// stored as NULL.
func UpdateUserProfile(ctx context.Context, pool *pgxpool.Pool, userID, email, name string) error {
	query := `
		UPDATE users
		SET email = NULLIF($2, ''), name = NULLIF($3, ''), updated_at = now()
		WHERE id = $1
	`
	_, err := pool.Exec(ctx, query, userID, email, name)
	if err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}
	return nil
}
