package composition

import (
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"slices"

	"github.com/roach88/groupwire/internal/ir"
)

// DefaultHistoryLimit bounds the undo stack of a history-recording layer.
const DefaultHistoryLimit = 256

// Layer is the composition engine: a registry of group instances, a
// canonicalizing definition store, and a connection graph.
type Layer struct {
	groups  map[ir.GroupCompositionID]*ir.GroupDefinition
	defs    *definitionStore
	graph   *connectionGraph
	history *timeline

	journal      Journal
	clock        *Clock
	logger       *slog.Logger
	historyLimit int
}

// Option configures a Layer.
type Option func(*Layer)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Layer) {
		l.logger = logger
	}
}

// WithJournal records every successful mutation to j.
func WithJournal(j Journal) Option {
	return func(l *Layer) {
		l.journal = j
	}
}

// WithClock sets the clock stamping journaled operations.
// Use NewClockAt to resume after an existing journal.
func WithClock(c *Clock) Option {
	return func(l *Layer) {
		l.clock = c
	}
}

// WithHistoryLimit bounds the undo stack. Ignored by NewWithoutHistory.
//
// Default: 256 changes (DefaultHistoryLimit)
func WithHistoryLimit(n int) Option {
	return func(l *Layer) {
		l.historyLimit = n
	}
}

// New creates a layer that records an undo/redo timeline of its mutations.
func New(opts ...Option) *Layer {
	l := newLayer(opts)
	l.history = newTimeline(l.historyLimit)
	return l
}

// NewWithoutHistory creates a layer that keeps no timeline. Undo and Redo
// return ErrHistoryDisabled.
func NewWithoutHistory(opts ...Option) *Layer {
	return newLayer(opts)
}

func newLayer(opts []Option) *Layer {
	l := &Layer{
		groups:       make(map[ir.GroupCompositionID]*ir.GroupDefinition),
		defs:         newDefinitionStore(),
		graph:        newConnectionGraph(),
		clock:        NewClock(),
		logger:       slog.Default(),
		historyLimit: DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Add registers a group instance. The definition is validated, copied, and
// interned: if an equal definition is already live, id shares it.
//
// Fails with DUPLICATE_GROUP_ID if id is registered and INVALID_DEFINITION if
// the definition fails validation.
func (l *Layer) Add(id ir.GroupCompositionID, def *ir.GroupDefinition) error {
	if id.IsZero() {
		return invalidGroupID()
	}
	if _, ok := l.groups[id]; ok {
		return &Error{Code: CodeDuplicateGroupID, Message: "group is already registered", Group: id}
	}
	if def == nil {
		return &Error{Code: CodeInvalidDefinition, Message: "definition is nil", Group: id}
	}
	if violations := def.Validate(); len(violations) > 0 {
		return &Error{
			Code:       CodeInvalidDefinition,
			Message:    fmt.Sprintf("definition %q: %s", def.Name, violations[0].Error()),
			Group:      id,
			Violations: violations,
		}
	}

	private := def.Clone()
	hash, err := l.defs.hash(private)
	if err != nil {
		return &Error{Code: CodeInvalidDefinition, Message: err.Error(), Group: id}
	}

	c := &change{kind: ir.OpAdd, group: id, def: private, hash: hash}
	l.apply(c)
	l.commit(c)
	l.logger.Debug("group added",
		"group", id.String(),
		"definition", c.def.Name,
		"shared", l.defs.refs(c.def) > 1,
	)
	return nil
}

// Remove unregisters a group instance, severing every connection in which it
// is the importer or the exporter, and releases its definition.
func (l *Layer) Remove(id ir.GroupCompositionID) error {
	def, ok := l.groups[id]
	if !ok {
		return unknownGroup(id)
	}

	c := &change{kind: ir.OpRemove, group: id, def: def, hash: l.defs.hashOf(def)}
	l.apply(c)
	l.commit(c)
	l.logger.Debug("group removed",
		"group", id.String(),
		"severed", len(c.severed),
	)
	return nil
}

// Groups returns the registered ids in ascending order. Each iteration
// takes a fresh snapshot, so the sequence is restartable.
func (l *Layer) Groups() iter.Seq[ir.GroupCompositionID] {
	return func(yield func(ir.GroupCompositionID) bool) {
		for _, id := range slices.SortedFunc(maps.Keys(l.groups), ir.GroupCompositionID.Compare) {
			if !yield(id) {
				return
			}
		}
	}
}

// Group returns the canonical definition of id. Instances of equal
// definitions return the same pointer. Callers must not mutate it.
func (l *Layer) Group(id ir.GroupCompositionID) (*ir.GroupDefinition, error) {
	def, ok := l.groups[id]
	if !ok {
		return nil, unknownGroup(id)
	}
	return def, nil
}

// Contains reports whether id is registered.
func (l *Layer) Contains(id ir.GroupCompositionID) bool {
	_, ok := l.groups[id]
	return ok
}

// Len returns the number of registered groups.
func (l *Layer) Len() int {
	return len(l.groups)
}

// DistinctDefinitions returns the number of canonical definitions held.
func (l *Layer) DistinctDefinitions() int {
	return l.defs.len()
}

// attach registers id under the canonical form of def.
func (l *Layer) attach(id ir.GroupCompositionID, def *ir.GroupDefinition, hash string) *ir.GroupDefinition {
	canonical := l.defs.intern(def, hash)
	l.groups[id] = canonical
	return canonical
}

// detach unregisters id and returns the edges it severed.
func (l *Layer) detach(id ir.GroupCompositionID) []ir.GroupConnection {
	severed := l.graph.removeAll(l.graph.touching(id))
	l.defs.release(l.groups[id])
	delete(l.groups, id)
	return severed
}
