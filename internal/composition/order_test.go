package composition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/groupwire/internal/ir"
	"github.com/roach88/groupwire/internal/testutil"
)

func TestInstantiationOrderEmpty(t *testing.T) {
	order, err := newTestLayer().InstantiationOrder()
	require.NoError(t, err)
	assert.Empty(t, order)
}

func TestInstantiationOrderExportersFirst(t *testing.T) {
	// Chain c -> b -> a (a imports from b, b imports from c), plus lone z.
	a := ir.GroupCompositionIDFrom("a")
	b := ir.GroupCompositionIDFrom("b")
	c := ir.GroupCompositionIDFrom("c")
	z := ir.GroupCompositionIDFrom("z")
	l := newTestLayer()
	for _, id := range []ir.GroupCompositionID{a, b, c, z} {
		require.NoError(t, l.Add(id, testutil.RelayGroup()))
	}
	require.NoError(t, l.Connect(testutil.RelayConnection(a, b)))
	require.NoError(t, l.Connect(testutil.RelayConnection(b, c)))

	order, err := l.InstantiationOrder()
	require.NoError(t, err)
	assert.Equal(t, []ir.GroupCompositionID{c, b, a, z}, order)
}

func TestInstantiationOrderDetectsCycle(t *testing.T) {
	a := ir.GroupCompositionIDFrom("a")
	b := ir.GroupCompositionIDFrom("b")
	c := ir.GroupCompositionIDFrom("c")
	l := newTestLayer()
	for _, id := range []ir.GroupCompositionID{a, b, c} {
		require.NoError(t, l.Add(id, testutil.RelayGroup()))
	}
	require.NoError(t, l.Connect(testutil.RelayConnection(b, a)))
	require.NoError(t, l.Connect(testutil.RelayConnection(c, b)))
	require.NoError(t, l.Connect(testutil.RelayConnection(a, c)))

	_, err := l.InstantiationOrder()
	require.Error(t, err)
	assert.True(t, IsCycleError(err))

	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []ir.GroupCompositionID{a, b, c, a}, ce.Cycle)
	assert.Contains(t, err.Error(), "a -> b -> c -> a")
}

func TestInstantiationOrderSelfLoop(t *testing.T) {
	l := newTestLayer()
	require.NoError(t, l.Add(idX, testutil.RelayGroup()))
	require.NoError(t, l.Connect(testutil.RelayConnection(idX, idX)))

	_, err := l.InstantiationOrder()

	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []ir.GroupCompositionID{idX, idX}, ce.Cycle)
}
