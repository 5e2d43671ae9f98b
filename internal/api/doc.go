// Package api holds the HTTP handlers behind the context composition
// pipeline. Handlers read the caller, the database handle and the
// authentication provider from the request context; they never resolve a
// session or open a database themselves.
package api
