package testutil

import (
	"fmt"
	"sync"

	"github.com/roach88/groupwire/internal/ir"
)

// SequentialIDs mints predictable group ids ("group-0001", "group-0002", ...)
// and remembers which logical instance name each one was minted for.
//
// This enables deterministic test execution and golden snapshot comparison:
// the same scenario always assigns the same ids in the same order.
//
// Thread-safety: SequentialIDs is safe for concurrent use via internal mutex.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	next   int
	byName map[string]ir.GroupCompositionID
	names  map[ir.GroupCompositionID]string
}

// NewSequentialIDs creates a generator. If prefix is empty, ids start with
// "group".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "group"
	}
	return &SequentialIDs{
		prefix: prefix,
		byName: make(map[string]ir.GroupCompositionID),
		names:  make(map[ir.GroupCompositionID]string),
	}
}

// Generate returns the next id in sequence.
//
// Implements ir.GroupIDGenerator.
func (g *SequentialIDs) Generate() ir.GroupCompositionID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.generateLocked()
}

func (g *SequentialIDs) generateLocked() ir.GroupCompositionID {
	g.next++
	return ir.GroupCompositionIDFrom(fmt.Sprintf("%s-%04d", g.prefix, g.next))
}

// For returns the id assigned to name, minting one on first use.
func (g *SequentialIDs) For(name string) ir.GroupCompositionID {
	g.mu.Lock()
	defer g.mu.Unlock()

	if id, ok := g.byName[name]; ok {
		return id
	}
	id := g.generateLocked()
	g.byName[name] = id
	g.names[id] = name
	return id
}

// Lookup returns the id already assigned to name.
func (g *SequentialIDs) Lookup(name string) (ir.GroupCompositionID, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, ok := g.byName[name]
	return id, ok
}

// Name returns the instance name an id was minted for, or the id itself if
// it was not minted by For.
func (g *SequentialIDs) Name(id ir.GroupCompositionID) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if name, ok := g.names[id]; ok {
		return name
	}
	return id.String()
}
