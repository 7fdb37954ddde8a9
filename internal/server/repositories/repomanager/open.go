package repomanager

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/filex"
)

const sqliteDefaultParams = "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

// Target is a parsed database URL: which driver to use and the DSN to hand it.
type Target struct {
	Driver string
	DSN    string
	// Path is the database file for SQLite targets, empty for memory/postgres.
	Path string
}

// ParseDSN maps a database URL onto a driver.
//
//	postgres://... | postgresql://...   -> pgx
//	sqlite:///./app.db                   -> sqlite, file ./app.db
//	sqlite:////abs/app.db                -> sqlite, file /abs/app.db
//	sqlite:///:memory: | :memory:        -> sqlite, in-memory
//	file:app.db?... | app.db             -> sqlite
func ParseDSN(raw string) (Target, error) {
	dsn := strings.TrimSpace(raw)
	if dsn == "" {
		return Target{}, fmt.Errorf("empty database url")
	}

	lower := strings.ToLower(dsn)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return Target{Driver: "pgx", DSN: dsn}, nil

	case strings.HasPrefix(lower, "sqlite://"):
		rest := dsn[len("sqlite://"):]
		rest = strings.TrimPrefix(rest, "/")
		return sqliteTarget(rest), nil

	case strings.HasPrefix(lower, "file:"):
		path, _, _ := strings.Cut(dsn[len("file:"):], "?")
		if path == ":memory:" || strings.Contains(lower, "mode=memory") {
			path = ""
		}
		return Target{Driver: "sqlite", DSN: dsn, Path: path}, nil

	case strings.Contains(dsn, "://"):
		return Target{}, fmt.Errorf("unsupported database url scheme in %q", redact(dsn))

	default:
		return sqliteTarget(dsn), nil
	}
}

func sqliteTarget(rest string) Target {
	path, query, _ := strings.Cut(rest, "?")
	if query == "" {
		query = sqliteDefaultParams
	}
	if path == "" || path == ":memory:" {
		return Target{Driver: "sqlite", DSN: "file::memory:?" + query}
	}
	return Target{Driver: "sqlite", DSN: "file:" + path + "?" + query, Path: path}
}

// Open parses dsn, opens the matching database and returns the repository
// manager for it. Migrations are not run here.
func Open(dsn string) (*sql.DB, RepositoryManager, error) {
	t, err := ParseDSN(dsn)
	if err != nil {
		return nil, nil, err
	}

	if t.Path != "" {
		if _, err := filex.EnsureParentDir(t.Path); err != nil {
			return nil, nil, fmt.Errorf("db init error: %w", err)
		}
	}

	db, err := sql.Open(t.Driver, t.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db open error: %w", err)
	}

	switch t.Driver {
	case "pgx":
		return db, NewPostgresRepositoryManager(), nil
	default:
		// one writer at a time; an in-memory database also lives per connection
		db.SetMaxOpenConns(1)
		return db, NewSQLiteRepositoryManager(), nil
	}
}

// redact hides the password part of a URL for error messages.
func redact(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	at := strings.LastIndex(rest, "@")
	if at < 0 {
		return dsn
	}
	creds := rest[:at]
	if user, _, hasPw := strings.Cut(creds, ":"); hasPw {
		return scheme + "://" + user + ":***" + rest[at:]
	}
	return dsn
}
