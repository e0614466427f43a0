package store

import (
	"path/filepath"
	"testing"

	"github.com/ChrisPritchard/FluentSharepoint/internal/testutil"
)

// createTestStore creates a new file-backed store with predictable list IDs.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(testutil.NewSequentialIDGenerator("list")))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
