// Package testdb provides database handles for tests.
//
// Open returns a migrated in-memory SQLite database that lives for the
// duration of one test, so most tests need no external services. Tests that
// must run against Postgres call OpenPostgres, which skips unless
// TASKS_TEST_DATABASE_URL is set.
//
// WithTx runs a test body inside a transaction that is always rolled back,
// leaving the database as it was:
//
//	func TestSomething(t *testing.T) {
//	    db := testdb.Open(t)
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        users := sqlstore.NewUserStore(db, slog.Default()).WithTx(tx)
//	        // ...
//	    })
//	}
package testdb
