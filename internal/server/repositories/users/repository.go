// Package users stores account records. Lookups return common.ErrorNotFound
// on a miss and uniqueness violations on email or external id surface as
// common.ErrorConflict.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type Repository interface {
	// Create assigns ID and timestamps, marks the record active and inserts it.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.User, error)
	// Update applies patch and refreshes UpdatedAt. Callers that need the
	// read and write to be atomic run it inside dbx.WithTx.
	Update(ctx context.Context, id string, patch models.UserUpdate) (*models.User, error)
}
