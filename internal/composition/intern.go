package composition

import (
	"github.com/roach88/groupwire/internal/ir"
)

type internEntry struct {
	def  *ir.GroupDefinition
	hash string
	refs int
}

// definitionStore holds one canonical representative per distinct group
// definition. Buckets are keyed by structural hash; collisions are resolved
// with full equality.
type definitionStore struct {
	buckets map[string][]*internEntry
	byPtr   map[*ir.GroupDefinition]*internEntry
	hashFn  func(*ir.GroupDefinition) (string, error)
}

func newDefinitionStore() *definitionStore {
	return &definitionStore{
		buckets: make(map[string][]*internEntry),
		byPtr:   make(map[*ir.GroupDefinition]*internEntry),
		hashFn:  ir.DefinitionHash,
	}
}

// hash returns the bucket key for def.
func (s *definitionStore) hash(def *ir.GroupDefinition) (string, error) {
	return s.hashFn(def)
}

// intern returns the stored definition equal to def, taking a reference on
// it. If none exists, def itself becomes the canonical representative, so
// callers must pass a private copy. hash must be s.hash(def).
func (s *definitionStore) intern(def *ir.GroupDefinition, hash string) *ir.GroupDefinition {
	for _, e := range s.buckets[hash] {
		if e.def.Equal(def) {
			e.refs++
			return e.def
		}
	}
	e := &internEntry{def: def, hash: hash, refs: 1}
	s.buckets[hash] = append(s.buckets[hash], e)
	s.byPtr[def] = e
	return def
}

// release drops one reference on a canonical definition returned by intern.
// The last release forgets the definition.
func (s *definitionStore) release(def *ir.GroupDefinition) {
	e, ok := s.byPtr[def]
	if !ok {
		return
	}
	e.refs--
	if e.refs > 0 {
		return
	}
	delete(s.byPtr, def)
	bucket := s.buckets[e.hash]
	for i, other := range bucket {
		if other == e {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(s.buckets, e.hash)
	} else {
		s.buckets[e.hash] = bucket
	}
}

// hashOf returns the bucket key of a canonical definition.
func (s *definitionStore) hashOf(def *ir.GroupDefinition) string {
	if e, ok := s.byPtr[def]; ok {
		return e.hash
	}
	return ""
}

func (s *definitionStore) refs(def *ir.GroupDefinition) int {
	if e, ok := s.byPtr[def]; ok {
		return e.refs
	}
	return 0
}

// len returns the number of distinct stored definitions.
func (s *definitionStore) len() int {
	return len(s.byPtr)
}
