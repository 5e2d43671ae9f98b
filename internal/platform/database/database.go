package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/palaska/tasks-api/internal/config"
	"github.com/palaska/tasks-api/internal/redact"
)

// Dialect identifies the SQL flavour behind a DB.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// ErrUnsupportedURL is returned for database URLs with an unknown scheme.
var ErrUnsupportedURL = errors.New("unsupported database url")

const pingTimeout = 5 * time.Second

// DB is a database handle tagged with its dialect. Queries are written with
// '?' placeholders and passed through Rebind before execution.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// New wraps an already opened *sql.DB.
func New(db *sql.DB, dialect Dialect) *DB {
	return &DB{DB: db, Dialect: dialect}
}

// Rebind rewrites '?' placeholders into the dialect's native form.
func (db *DB) Rebind(query string) string {
	return Rebind(db.Dialect, query)
}

// Rebind rewrites '?' placeholders for dialect.
func Rebind(dialect Dialect, query string) string {
	return sqlx.Rebind(dialect.bindType(), query)
}

func (d Dialect) bindType() int {
	if d == DialectPostgres {
		return sqlx.DOLLAR
	}
	return sqlx.QUESTION
}

// Open connects to the database described by cfg and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	driver, dsn, dialect, err := resolve(cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	switch dialect {
	case DialectSQLite:
		// SQLite serialises writers, and an in-memory database lives only as
		// long as its connection.
		sqlDB.SetMaxOpenConns(1)
	default:
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", redact.URL(cfg.URL), err)
	}

	return New(sqlDB, dialect), nil
}

func resolve(cfg config.DatabaseConfig) (driver, dsn string, dialect Dialect, err error) {
	raw := strings.TrimSpace(cfg.URL)
	u, parseErr := url.Parse(raw)
	if raw == "" || parseErr != nil {
		return "", "", "", fmt.Errorf("%w: %q", ErrUnsupportedURL, redact.URL(raw))
	}

	switch u.Scheme {
	case "postgres", "postgresql":
		if cfg.AuthToken != "" && u.User != nil {
			if _, hasPassword := u.User.Password(); !hasPassword {
				u.User = url.UserPassword(u.User.Username(), cfg.AuthToken)
			}
		}
		return "pgx", u.String(), DialectPostgres, nil
	case "file":
		return "sqlite", sqliteDSN(raw), DialectSQLite, nil
	default:
		return "", "", "", fmt.Errorf("%w: scheme %q", ErrUnsupportedURL, u.Scheme)
	}
}

// sqliteDSN enables foreign key enforcement and a busy timeout unless the URL
// already sets pragmas of its own.
func sqliteDSN(raw string) string {
	if strings.Contains(raw, "_pragma=") {
		return raw
	}
	sep := "?"
	if strings.Contains(raw, "?") {
		sep = "&"
	}
	return raw + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}
