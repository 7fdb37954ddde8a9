package users

import (
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type SQLiteRepository struct {
	repository
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{repository{db: db, d: sqliteDialect, now: time.Now}}
}

// SQLite serializes writers, so the update path needs no row lock.
var sqliteDialect = dialect{
	insert: `INSERT INTO users (` + userColumns + `)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	selectByID: `SELECT ` + userColumns + ` FROM users
		 WHERE id = ?`,
	selectForUpdate: `SELECT ` + userColumns + ` FROM users
		 WHERE id = ?`,
	selectByEmail: `SELECT ` + userColumns + ` FROM users
		 WHERE email = ?`,
	selectByExtID: `SELECT ` + userColumns + ` FROM users
		 WHERE google_id = ?`,
	update: `UPDATE users
		 SET email = ?, full_name = ?, picture = ?, hashed_password = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
	isUnique: isSQLiteUniqueViolation,
}

func isSQLiteUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
