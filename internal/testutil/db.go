// Package testutil builds throwaway leaguedesk databases and the rows handler
// tests need.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/codr1/leaguedesk/internal/db"
)

// NewTestDB opens a file-backed SQLite database under t.TempDir with every
// migration applied. A file rather than :memory: keeps the pool's
// connections on the same data and honors _txlock=immediate like production.
func NewTestDB(t testing.TB) *db.DB {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "leaguedesk.db"))
	if err != nil {
		t.Fatalf("open leaguedesk test db: %v", err)
	}
	t.Cleanup(func() {
		if err := database.Close(); err != nil {
			t.Logf("close leaguedesk test db: %v", err)
		}
	})
	return database
}
