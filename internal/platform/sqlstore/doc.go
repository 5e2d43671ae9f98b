// Package sqlstore implements the store interfaces on top of database/sql.
// The same queries serve Postgres and SQLite: they are written with '?'
// placeholders and rebound per dialect, and timestamps are stored as unix
// milliseconds.
package sqlstore
