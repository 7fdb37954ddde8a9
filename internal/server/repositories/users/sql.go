package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
)

const userColumns = `id, email, full_name, picture, google_id, hashed_password, is_active, created_at, updated_at`

// dialect holds the statements that differ between backends.
type dialect struct {
	insert          string
	selectByID      string
	selectForUpdate string
	selectByEmail   string
	selectByExtID   string
	update          string
	isUnique        func(error) bool
}

// repository implements Repository on top of database/sql; the exported
// adapters only choose the dialect.
type repository struct {
	db  dbx.DBTX
	d   dialect
	now func() time.Time
}

func (r *repository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	u := *user
	u.ID = uuid.NewString()
	u.CreatedAt = r.timestamp()
	u.UpdatedAt = u.CreatedAt
	u.IsActive = true

	_, err := r.db.ExecContext(ctx, r.d.insert,
		u.ID, u.Email, nullable(u.FullName), nullable(u.Picture), nullable(u.ExternalID),
		nullable(u.PasswordHash), u.IsActive, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return nil, r.wrap(err)
	}

	return &u, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, r.d.selectByID, id)
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, r.d.selectByEmail, email)
}

func (r *repository) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	return r.getOne(ctx, r.d.selectByExtID, externalID)
}

func (r *repository) Update(ctx context.Context, id string, patch models.UserUpdate) (*models.User, error) {
	u, err := r.getOne(ctx, r.d.selectForUpdate, id)
	if err != nil {
		return nil, err
	}

	u.Apply(patch)
	u.UpdatedAt = laterOf(r.timestamp(), u.UpdatedAt)

	res, err := r.db.ExecContext(ctx, r.d.update,
		u.Email, nullable(u.FullName), nullable(u.Picture), nullable(u.PasswordHash),
		u.IsActive, u.UpdatedAt, u.ID)
	if err != nil {
		return nil, r.wrap(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, common.ErrorNotFound
	}

	return u, nil
}

func (r *repository) getOne(ctx context.Context, query string, arg string) (*models.User, error) {
	u := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.FullName, &u.Picture, &u.ExternalID,
		&u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}

func (r *repository) wrap(err error) error {
	if r.d.isUnique(err) {
		return fmt.Errorf("%w: %v", common.ErrorConflict, err)
	}
	return fmt.Errorf("db error: %w", err)
}

// timestamp is truncated to what both backends store losslessly.
func (r *repository) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Microsecond)
}

func laterOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return b
	}
	return a
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
