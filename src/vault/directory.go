package vault

import (
	"context"
	"log"

	db "budgetguard-server/src/db/sql"
	"budgetguard-server/src/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Directory maps verified Auth0 subject ids to internal user rows, creating
// one on first sight.
type Directory struct {
	Pool *pgxpool.Pool
}

func NewDirectory(pool *pgxpool.Pool) *Directory {
	return &Directory{Pool: pool}
}

// GetOrCreate returns the user for the subject id, creating an empty record
// on first contact. Calling it twice for the same subject always yields the
// same internal id.
func (d *Directory) GetOrCreate(ctx context.Context, subjectID string) (*models.User, error) {
	existing, err := db.GetUserBySubjectID(ctx, d.Pool, subjectID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	user, err := db.GetOrCreateUser(ctx, d.Pool, subjectID)
	if err != nil {
		return nil, err
	}
	log.Printf("INFO: Created new user %s for Auth0 subject %s", user.ID, subjectID)
	return user, nil
}
