package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/groupwire/internal/ir"
	"github.com/roach88/groupwire/internal/testutil"
)

func TestReadOperations_Empty(t *testing.T) {
	s := createTestStore(t)

	ops, err := s.ReadOperations(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, ops)
	assert.Empty(t, ops)

	seq, err := s.MaxSeq(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)
}

func TestReadOperations_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	ids := testutil.NewSequentialIDs("group")
	e, i := ids.For("exporter"), ids.For("importer")

	written := []ir.Operation{
		addOp(1, e, testutil.ExporterGroup()),
		addOp(2, i, testutil.ImporterGroup()),
		connectOp(3, i, e),
		{Seq: 4, Kind: ir.OpDisconnectImport, Importer: i, Contract: "table"},
		{Seq: 5, Kind: ir.OpDisconnect, Importer: i, Exporter: e},
		{Seq: 6, Kind: ir.OpDisconnectAll, Group: e},
		{Seq: 7, Kind: ir.OpRemove, Group: i},
	}
	require.NoError(t, s.WriteOperations(ctx, written))

	read, err := s.ReadOperations(ctx)
	require.NoError(t, err)
	require.Len(t, read, len(written))

	for n := range written {
		want, got := written[n], read[n]
		assert.Equal(t, want.Seq, got.Seq)
		assert.Equal(t, want.Kind, got.Kind)
		assert.Equal(t, want.Group, got.Group)
		assert.Equal(t, want.Importer, got.Importer)
		assert.Equal(t, want.Exporter, got.Exporter)
		assert.Equal(t, want.Contract, got.Contract)
		assert.True(t, want.Definition.Equal(got.Definition), "seq %d definition", want.Seq)
		if want.Connection == nil {
			assert.Nil(t, got.Connection)
		} else {
			require.NotNil(t, got.Connection)
			assert.True(t, want.Connection.Equal(*got.Connection), "seq %d connection", want.Seq)
		}
	}

	seq, err := s.MaxSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), seq)
}

func TestReadOperations_OrderedBySeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	ids := testutil.NewSequentialIDs("group")

	for _, seq := range []int64{5, 1, 3} {
		require.NoError(t, s.WriteOperation(ctx, ir.Operation{Seq: seq, Kind: ir.OpRemove, Group: ids.Generate()}))
	}

	ops, err := s.ReadOperations(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 3)
	assert.Equal(t, []int64{1, 3, 5}, []int64{ops[0].Seq, ops[1].Seq, ops[2].Seq})
}

func TestReadOperationsAfter(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	ids := testutil.NewSequentialIDs("group")

	for seq := int64(1); seq <= 4; seq++ {
		require.NoError(t, s.WriteOperation(ctx, ir.Operation{Seq: seq, Kind: ir.OpRemove, Group: ids.Generate()}))
	}

	ops, err := s.ReadOperationsAfter(ctx, 2)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, int64(3), ops[0].Seq)
	assert.Equal(t, int64(4), ops[1].Seq)
}

func TestGroupOperations_MatchesEveryRole(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	ids := testutil.NewSequentialIDs("group")
	e, i, x := ids.For("exporter"), ids.For("importer"), ids.For("other")

	require.NoError(t, s.WriteOperations(ctx, []ir.Operation{
		addOp(1, e, testutil.ExporterGroup()),
		addOp(2, i, testutil.ImporterGroup()),
		addOp(3, x, testutil.ExporterGroup()),
		{Seq: 4, Kind: ir.OpDisconnect, Importer: i, Exporter: e},
	}))

	ops, err := s.GroupOperations(ctx, e)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, int64(1), ops[0].Seq)
	assert.Equal(t, int64(4), ops[1].Seq)
}

func TestReadDefinition(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	ids := testutil.NewSequentialIDs("group")

	def := testutil.ExporterGroup()
	require.NoError(t, s.WriteOperation(ctx, addOp(1, ids.For("a"), def)))

	got, err := s.ReadDefinition(ctx, ir.MustDefinitionHash(def))
	require.NoError(t, err)
	assert.True(t, def.Equal(got))
	assert.Equal(t, ir.MustDefinitionHash(def), ir.MustDefinitionHash(got))
}

func TestReadDefinition_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadDefinition(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestReadOperations_DetectsTamperedDefinition(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	ids := testutil.NewSequentialIDs("group")

	require.NoError(t, s.WriteOperation(ctx, addOp(1, ids.For("a"), testutil.ExporterGroup())))
	_, err := s.db.Exec(`UPDATE definitions SET body = replace(body, '"Exporter"', '"Tampered"')`)
	require.NoError(t, err)

	_, err = s.ReadOperations(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hash mismatch")
}

func TestReadOperations_DetectsTamperedConnection(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	ids := testutil.NewSequentialIDs("group")

	require.NoError(t, s.WriteOperation(ctx, connectOp(1, ids.For("i"), ids.For("e"))))
	_, err := s.db.Exec(`UPDATE operations SET connection_hash = 'bad' WHERE seq = 1`)
	require.NoError(t, err)

	_, err = s.ReadOperations(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seq 1")
}
