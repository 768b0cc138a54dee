package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/groupwire/internal/ir"
)

func TestSequentialIDs_Generate(t *testing.T) {
	gen := NewSequentialIDs("")

	assert.Equal(t, "group-0001", gen.Generate().String())
	assert.Equal(t, "group-0002", gen.Generate().String())
}

func TestSequentialIDs_ForIsStablePerName(t *testing.T) {
	gen := NewSequentialIDs("inst")

	reader := gen.For("reader")
	writer := gen.For("writer")

	assert.Equal(t, "inst-0001", reader.String())
	assert.Equal(t, "inst-0002", writer.String())
	assert.Equal(t, reader, gen.For("reader"), "same name must map to same id")
	assert.Equal(t, "reader", gen.Name(reader))
	assert.Equal(t, "unknown", gen.Name(ir.GroupCompositionIDFrom("unknown")))

	id, ok := gen.Lookup("writer")
	require.True(t, ok)
	assert.Equal(t, writer, id)

	_, ok = gen.Lookup("missing")
	assert.False(t, ok)
}

func TestSequentialIDs_ImplementsGenerator(t *testing.T) {
	var _ ir.GroupIDGenerator = NewSequentialIDs("")
	var _ ir.GroupIDGenerator = ir.UUIDv7Generator{}
}

func TestSequentialIDs_ThreadSafe(t *testing.T) {
	gen := NewSequentialIDs("")
	const numGoroutines = 50

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	ids := make([]ir.GroupCompositionID, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(idx int) {
			defer wg.Done()
			ids[idx] = gen.Generate()
		}(i)
	}
	wg.Wait()

	seen := make(map[ir.GroupCompositionID]bool)
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
