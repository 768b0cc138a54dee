package composition

import (
	"github.com/roach88/groupwire/internal/ir"
)

// Journal receives every successful mutation as an operation, stamped with a
// seq from the layer's clock. Implemented by store.Journal.
//
// A journal failure never rolls back the mutation: the in-memory layer stays
// the source of truth and the failure is logged.
type Journal interface {
	Record(op ir.Operation) error
}

// JournalFunc adapts a function to the Journal interface.
type JournalFunc func(op ir.Operation) error

// Record calls f(op).
func (f JournalFunc) Record(op ir.Operation) error {
	return f(op)
}

// record stamps and journals ops.
func (l *Layer) record(ops []ir.Operation) {
	for _, op := range ops {
		op.Seq = l.clock.Next()
		if l.journal == nil {
			continue
		}
		if err := l.journal.Record(op); err != nil {
			l.logger.Error("journal write failed",
				"seq", op.Seq,
				"kind", string(op.Kind),
				"error", err,
			)
		}
	}
}
