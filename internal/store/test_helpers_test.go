package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/recordwire/internal/home"
	"github.com/roach88/recordwire/internal/ir"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRecord creates a record for a home wired to one link.
func createTestRecord(t *testing.T, pos ir.Pos, seq int64) HomeRecord {
	t.Helper()
	radius := 5.0
	rec, err := NewHomeRecord(pos, "Record Player", home.Record{
		Opening:        false,
		Connections:    "1:" + ir.NewConnection(pos, ir.P(pos.X+1, pos.Y, pos.Z)).String(),
		WireSystemInfo: "1:Wire=1",
		PlayRadius:     &radius,
	}, seq, "gen-test")
	if err != nil {
		t.Fatalf("NewHomeRecord() failed: %v", err)
	}
	return rec
}
