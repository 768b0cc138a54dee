package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/groupwire/internal/ir"
	"github.com/roach88/groupwire/internal/testutil"
)

// seedJournal writes: add exporter, add importer, add second importer,
// connect importer, connect second importer, disconnect_import second.
func seedJournal(t *testing.T, s *Store) (e, i, j ir.GroupCompositionID) {
	t.Helper()
	ids := testutil.NewSequentialIDs("group")
	e, i, j = ids.For("exporter"), ids.For("importer"), ids.For("second")

	require.NoError(t, s.WriteOperations(context.Background(), []ir.Operation{
		addOp(1, e, testutil.ExporterGroup()),
		addOp(2, i, testutil.ImporterGroup()),
		addOp(3, j, testutil.ImporterGroup()),
		connectOp(4, i, e),
		connectOp(5, j, e),
		{Seq: 6, Kind: ir.OpDisconnectImport, Importer: j, Contract: "table"},
	}))
	return e, i, j
}

func seqs(ops []ir.Operation) []int64 {
	out := make([]int64, len(ops))
	for n, op := range ops {
		out[n] = op.Seq
	}
	return out
}

func TestFindOperations(t *testing.T) {
	s := createTestStore(t)
	e, i, j := seedJournal(t, s)

	tests := []struct {
		name   string
		filter OperationFilter
		want   []int64
	}{
		{"everything", OperationFilter{}, []int64{1, 2, 3, 4, 5, 6}},
		{"by kind", OperationFilter{Kind: ir.OpConnect}, []int64{4, 5}},
		{"exporter in any role", OperationFilter{Group: e}, []int64{1, 4, 5}},
		{"importer in any role", OperationFilter{Group: j}, []int64{3, 5, 6}},
		{"by contract", OperationFilter{Contract: "table"}, []int64{4, 5, 6}},
		{"by definition name", OperationFilter{Definition: "Importer"}, []int64{2, 3}},
		{"after", OperationFilter{After: 4}, []int64{5, 6}},
		{"combined", OperationFilter{Kind: ir.OpConnect, Group: i}, []int64{4}},
		{"no match", OperationFilter{Kind: ir.OpRemove}, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops, err := s.FindOperations(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, seqs(ops))
		})
	}
}

func TestFindOperations_ConnectRoundTripsUnchanged(t *testing.T) {
	s := createTestStore(t)
	e, i, _ := seedJournal(t, s)

	ops, err := s.FindOperations(context.Background(), OperationFilter{Kind: ir.OpConnect, Group: i})
	require.NoError(t, err)
	require.Len(t, ops, 1)

	want := connectOp(4, i, e)
	assert.Equal(t, want.Seq, ops[0].Seq)
	assert.True(t, ops[0].Importer.IsZero())
	assert.Empty(t, ops[0].Contract)
	require.NotNil(t, ops[0].Connection)
	assert.True(t, want.Connection.Equal(*ops[0].Connection))
}

func TestOperationFilterQuery(t *testing.T) {
	q := OperationFilter{}.Query()
	assert.Nil(t, q.Filter)
	assert.Equal(t, []string{"o.seq"}, q.OrderBy)
	assert.Equal(t, operationColumns, q.Columns)

	q = OperationFilter{Kind: ir.OpAdd, After: 3}.Query()
	assert.NotNil(t, q.Filter)
}
