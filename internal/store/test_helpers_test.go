package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/groupwire/internal/ir"
	"github.com/roach88/groupwire/internal/testutil"
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

// addOp creates an add operation for a fixture definition.
func addOp(seq int64, id ir.GroupCompositionID, def *ir.GroupDefinition) ir.Operation {
	return ir.Operation{Seq: seq, Kind: ir.OpAdd, Group: id, Definition: def}
}

// connectOp creates a connect operation for the fixture table connection.
func connectOp(seq int64, importer, exporter ir.GroupCompositionID) ir.Operation {
	conn := testutil.TableConnection(importer, exporter)
	return ir.Operation{Seq: seq, Kind: ir.OpConnect, Connection: &conn}
}
