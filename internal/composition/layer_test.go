package composition

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/groupwire/internal/ir"
	"github.com/roach88/groupwire/internal/testutil"
)

func TestAddAndGroup(t *testing.T) {
	l := newTestLayer()
	def := testutil.ExporterGroup()

	require.NoError(t, l.Add(idE, def))

	got, err := l.Group(idE)
	require.NoError(t, err)
	assert.True(t, got.Equal(def))
	assert.NotSame(t, def, got, "layer stores a private copy")
	assert.True(t, l.Contains(idE))
	assert.Equal(t, 1, l.Len())
}

func TestAddErrors(t *testing.T) {
	l := newTestLayer()
	require.NoError(t, l.Add(idE, testutil.ExporterGroup()))

	invalid := testutil.ExporterGroup()
	invalid.Name = ""

	tests := []struct {
		name string
		id   ir.GroupCompositionID
		def  *ir.GroupDefinition
		code ErrorCode
	}{
		{"duplicate id", idE, testutil.ImporterGroup(), CodeDuplicateGroupID},
		{"zero id", ir.GroupCompositionID{}, testutil.ImporterGroup(), CodeInvalidGroupID},
		{"nil definition", idI, nil, CodeInvalidDefinition},
		{"invalid definition", idI, invalid, CodeInvalidDefinition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := l.Add(tt.id, tt.def)
			require.Error(t, err)
			assert.Equal(t, tt.code, CodeOf(err))
			assert.Equal(t, 1, l.Len(), "failed Add must not register")
			assert.Equal(t, 1, l.DistinctDefinitions(), "failed Add must not intern")
		})
	}
}

func TestAddInvalidDefinitionReportsViolations(t *testing.T) {
	l := newTestLayer()
	def := testutil.ImporterGroup()
	def.Name = ""

	err := l.Add(idI, def)

	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.NotEmpty(t, ce.Violations)
	assert.Equal(t, "name", ce.Violations[0].Field)
}

func TestCanonicalization(t *testing.T) {
	l := newTestLayer()
	d1 := testutil.ExporterGroup()
	d2 := testutil.ExporterGroup()
	require.NotSame(t, d1, d2)

	require.NoError(t, l.Add(idE, d1))
	require.NoError(t, l.Add(idX, d2))
	require.NoError(t, l.Add(idI, testutil.ImporterGroup()))

	a, err := l.Group(idE)
	require.NoError(t, err)
	b, err := l.Group(idX)
	require.NoError(t, err)

	assert.Same(t, a, b, "structurally equal definitions share one representation")
	assert.Equal(t, 2, l.DistinctDefinitions())
}

func TestCanonicalizationReleasesOnLastRemove(t *testing.T) {
	l := newTestLayer()
	require.NoError(t, l.Add(idE, testutil.ExporterGroup()))
	require.NoError(t, l.Add(idX, testutil.ExporterGroup()))
	first, _ := l.Group(idE)

	require.NoError(t, l.Remove(idE))
	assert.Equal(t, 1, l.DistinctDefinitions(), "still referenced by x")
	still, _ := l.Group(idX)
	assert.Same(t, first, still)

	require.NoError(t, l.Remove(idX))
	assert.Equal(t, 0, l.DistinctDefinitions())

	require.NoError(t, l.Add(idE, testutil.ExporterGroup()))
	fresh, _ := l.Group(idE)
	assert.NotSame(t, first, fresh, "released definitions are not resurrected")
}

func TestRemoveUnknown(t *testing.T) {
	l := newTestLayer()

	err := l.Remove(idE)
	assert.True(t, IsUnknownGroup(err))
	assert.ErrorIs(t, err, ErrUnknownGroupID)
}

func TestGroupUnknown(t *testing.T) {
	_, err := newTestLayer().Group(idE)
	assert.True(t, IsUnknownGroup(err))
}

func TestGroupsSortedAndRestartable(t *testing.T) {
	l := newTestLayer()
	for _, name := range []string{"c", "a", "b"} {
		require.NoError(t, l.Add(ir.GroupCompositionIDFrom(name), testutil.RelayGroup()))
	}

	first := slices.Collect(l.Groups())
	second := slices.Collect(l.Groups())

	want := []ir.GroupCompositionID{
		ir.GroupCompositionIDFrom("a"),
		ir.GroupCompositionIDFrom("b"),
		ir.GroupCompositionIDFrom("c"),
	}
	assert.Equal(t, want, first)
	assert.Equal(t, first, second)

	var stopped []ir.GroupCompositionID
	for id := range l.Groups() {
		stopped = append(stopped, id)
		break
	}
	assert.Len(t, stopped, 1)
}

func TestCascadingRemoval(t *testing.T) {
	l := wiredLayer(t)

	require.NoError(t, l.Remove(idE))

	assert.True(t, l.Contains(idI), "importer stays registered")
	assert.NotContains(t, slices.Collect(l.Groups()), idE)

	unsat, err := l.UnsatisfiedImports(idI)
	require.NoError(t, err)
	require.Len(t, unsat, 1)
	assert.True(t, unsat[0].Equal(testutil.TableImport()))

	sat, err := l.SatisfiedImports(idI)
	require.NoError(t, err)
	assert.Empty(t, sat)
	assert.Empty(t, l.Connections())
	requirePartition(t, l)
}

func TestRemoveImporterAndExporterAtOnce(t *testing.T) {
	// x relays from a and feeds b; removing x severs both edges.
	a := ir.GroupCompositionIDFrom("a")
	b := ir.GroupCompositionIDFrom("b")
	l := newTestLayer()
	for _, id := range []ir.GroupCompositionID{a, idX, b} {
		require.NoError(t, l.Add(id, testutil.RelayGroup()))
	}
	require.NoError(t, l.Connect(testutil.RelayConnection(idX, a)))
	require.NoError(t, l.Connect(testutil.RelayConnection(b, idX)))

	require.NoError(t, l.Remove(idX))

	assert.Empty(t, l.Connections())
	for _, id := range []ir.GroupCompositionID{a, b} {
		unsat, err := l.UnsatisfiedImports(id)
		require.NoError(t, err)
		assert.Len(t, unsat, 1)
	}
	requirePartition(t, l)
}
