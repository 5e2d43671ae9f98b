// Package database opens the storage engine named by the configured URL and
// hands out handles to it. Postgres URLs are served by pgx through
// database/sql; file: URLs by the pure-Go SQLite driver.
package database
