package testutil

import (
	"path/filepath"
	"testing"

	"github.com/jsandlin/leaguedesk/internal/store"
)

// NewTestStore creates a temporary SQLite database with migrations applied.
func NewTestStore(t *testing.T) *store.Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("create test store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	return st
}
