package users

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgUniqueViolation is SQLSTATE unique_violation.
const pgUniqueViolation = "23505"

type PostgresRepository struct {
	repository
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{repository{db: db, d: postgresDialect, now: time.Now}}
}

var postgresDialect = dialect{
	insert: `INSERT INTO users (` + userColumns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
	selectByID: `SELECT ` + userColumns + ` FROM users
		 WHERE id = $1`,
	selectForUpdate: `SELECT ` + userColumns + ` FROM users
		 WHERE id = $1
		 FOR UPDATE`,
	selectByEmail: `SELECT ` + userColumns + ` FROM users
		 WHERE email = $1`,
	selectByExtID: `SELECT ` + userColumns + ` FROM users
		 WHERE google_id = $1`,
	update: `UPDATE users
		 SET email = $1, full_name = $2, picture = $3, hashed_password = $4, is_active = $5, updated_at = $6
		 WHERE id = $7`,
	isUnique: isPostgresUniqueViolation,
}

func isPostgresUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
