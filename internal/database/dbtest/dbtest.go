// Package dbtest opens throwaway migrated databases for tests.
package dbtest

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/thereayou/lovenest/internal/database"
)

// New returns a Database backed by a private in-memory SQLite instance that
// is closed when the test ends.
func New(t testing.TB) *database.Database {
	t.Helper()

	db := &database.Database{}
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=foreign_keys(1)"
	if err := db.Open(sqlite.Open(dsn)); err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.SetMaxOpenConns(1); err != nil {
		t.Fatalf("configure test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}
