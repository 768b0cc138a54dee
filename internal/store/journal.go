package store

import (
	"context"

	"github.com/roach88/groupwire/internal/ir"
)

// Journal adapts a Store to composition.Journal. Every recorded operation is
// written with the context given to NewJournal.
type Journal struct {
	ctx   context.Context
	store *Store
}

// NewJournal returns a journal writing to s.
func NewJournal(ctx context.Context, s *Store) *Journal {
	return &Journal{ctx: ctx, store: s}
}

// Record implements composition.Journal.
func (j *Journal) Record(op ir.Operation) error {
	return j.store.WriteOperation(j.ctx, op)
}
