package testutil

import (
	"path/filepath"
	"testing"

	"github.com/roach88/recordwire/internal/catalog"
	"github.com/roach88/recordwire/internal/store"
	"github.com/roach88/recordwire/internal/world"
)

// NewStore opens a store in a temp directory and closes it when the test
// ends.
func NewStore(t testing.TB) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// NewWorld creates an empty world over the embedded catalog.
func NewWorld(t testing.TB, opts ...world.Option) *world.World {
	t.Helper()
	reg, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default() failed: %v", err)
	}
	return world.New(reg, opts...)
}
