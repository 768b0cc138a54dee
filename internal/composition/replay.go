package composition

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/roach88/groupwire/internal/ir"
)

// Replay rebuilds a layer by applying journaled operations in seq order.
//
// The same code paths handle live mutation and replay, so a journal written
// by a layer replays to the same groups, definitions, and connections.
// Operations are not re-journaled during replay, and the returned layer has
// an empty timeline. Its clock resumes after the highest replayed seq, so
// passing WithJournal(j) for the journal the ops came from appends to it
// seamlessly.
//
// Replay stops at the first failing operation; the error names its seq.
func Replay(ops []ir.Operation, opts ...Option) (*Layer, error) {
	l := New(opts...)

	journal := l.journal
	l.journal = nil
	defer func() { l.journal = journal }()

	ordered := slices.Clone(ops)
	slices.SortStableFunc(ordered, func(a, b ir.Operation) int {
		return cmp.Compare(a.Seq, b.Seq)
	})

	var last int64
	for _, op := range ordered {
		if err := l.Apply(op); err != nil {
			return nil, fmt.Errorf("replay seq %d (%s): %w", op.Seq, op.Kind, err)
		}
		last = max(last, op.Seq)
	}

	l.history.clear()
	if l.clock.Current() < last {
		l.clock = NewClockAt(last)
	}
	l.logger.Info("journal replayed",
		"operations", len(ordered),
		"groups", l.Len(),
		"connections", l.graph.len(),
	)
	return l, nil
}

// Apply performs one operation through the public mutation API.
func (l *Layer) Apply(op ir.Operation) error {
	switch op.Kind {
	case ir.OpAdd:
		return l.Add(op.Group, op.Definition)
	case ir.OpRemove:
		return l.Remove(op.Group)
	case ir.OpConnect:
		if op.Connection == nil {
			return fmt.Errorf("connect operation has no connection")
		}
		return l.Connect(*op.Connection)
	case ir.OpDisconnect:
		return l.Disconnect(op.Importer, op.Exporter)
	case ir.OpDisconnectImport:
		return l.DisconnectImport(op.Importer, op.Contract)
	case ir.OpDisconnectAll:
		return l.DisconnectAll(op.Group)
	default:
		return fmt.Errorf("unknown operation kind %q", op.Kind)
	}
}

