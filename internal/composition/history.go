package composition

import (
	"github.com/roach88/groupwire/internal/ir"
)

// change is one applied mutation, holding enough state to revert it.
// severed is filled in by apply for the disconnecting kinds and Remove.
type change struct {
	kind ir.OperationKind

	group ir.GroupCompositionID
	def   *ir.GroupDefinition
	hash  string

	conn ir.GroupConnection

	importer ir.GroupCompositionID
	exporter ir.GroupCompositionID
	contract string

	severed []ir.GroupConnection
}

// apply performs a change that has already passed its checks.
func (l *Layer) apply(c *change) {
	switch c.kind {
	case ir.OpAdd:
		c.def = l.attach(c.group, c.def, c.hash)
	case ir.OpRemove:
		c.severed = l.detach(c.group)
	case ir.OpConnect:
		l.graph.insert(c.conn)
	case ir.OpDisconnect:
		c.severed = l.graph.removeAll(l.graph.between(c.importer, c.exporter))
	case ir.OpDisconnectImport:
		c.severed = l.graph.removeAll([]edgeKey{{importer: c.importer, contract: c.contract}})
	case ir.OpDisconnectAll:
		c.severed = l.graph.removeAll(l.graph.touching(c.group))
	}
}

// revert undoes the most recently applied change.
func (l *Layer) revert(c *change) {
	switch c.kind {
	case ir.OpAdd:
		l.detach(c.group)
	case ir.OpRemove:
		l.attach(c.group, c.def, c.hash)
		l.restore(c.severed)
	case ir.OpConnect:
		l.graph.remove(keyOf(c.conn))
	case ir.OpDisconnect, ir.OpDisconnectImport, ir.OpDisconnectAll:
		l.restore(c.severed)
	}
}

func (l *Layer) restore(edges []ir.GroupConnection) {
	for _, conn := range edges {
		l.graph.insert(conn)
	}
}

// commit pushes an applied change onto the timeline and journals it.
func (l *Layer) commit(c *change) {
	if l.history != nil {
		l.history.push(c)
	}
	l.record(forwardOps(c))
}

// forwardOps describes c as journal operations.
func forwardOps(c *change) []ir.Operation {
	switch c.kind {
	case ir.OpAdd:
		return []ir.Operation{{Kind: ir.OpAdd, Group: c.group, Definition: c.def}}
	case ir.OpRemove:
		return []ir.Operation{{Kind: ir.OpRemove, Group: c.group}}
	case ir.OpConnect:
		conn := c.conn
		return []ir.Operation{{Kind: ir.OpConnect, Connection: &conn}}
	case ir.OpDisconnect:
		return []ir.Operation{{Kind: ir.OpDisconnect, Importer: c.importer, Exporter: c.exporter}}
	case ir.OpDisconnectImport:
		return []ir.Operation{{Kind: ir.OpDisconnectImport, Importer: c.importer, Contract: c.contract}}
	case ir.OpDisconnectAll:
		return []ir.Operation{{Kind: ir.OpDisconnectAll, Group: c.group}}
	}
	return nil
}

// inverseOps describes the revert of c as journal operations, so a replay
// of the journal reaches the same state as the undo did.
func inverseOps(c *change) []ir.Operation {
	var ops []ir.Operation
	switch c.kind {
	case ir.OpAdd:
		return []ir.Operation{{Kind: ir.OpRemove, Group: c.group}}
	case ir.OpConnect:
		return []ir.Operation{{Kind: ir.OpDisconnectImport, Importer: c.conn.Importer, Contract: c.conn.Import.Contract}}
	case ir.OpRemove:
		ops = append(ops, ir.Operation{Kind: ir.OpAdd, Group: c.group, Definition: c.def})
	}
	for _, conn := range c.severed {
		ops = append(ops, ir.Operation{Kind: ir.OpConnect, Connection: &conn})
	}
	return ops
}

// timeline is a bounded undo stack plus a redo stack.
type timeline struct {
	undo  []*change
	redo  []*change
	limit int
}

func newTimeline(limit int) *timeline {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &timeline{limit: limit}
}

// push records a new change. Any redo history is discarded.
func (t *timeline) push(c *change) {
	t.undo = append(t.undo, c)
	if len(t.undo) > t.limit {
		t.undo = t.undo[len(t.undo)-t.limit:]
	}
	t.redo = nil
}

func (t *timeline) clear() {
	t.undo = nil
	t.redo = nil
}

// Undo reverts the most recent mutation. Undoing a Remove restores the group
// and every connection its removal severed.
func (l *Layer) Undo() error {
	if l.history == nil {
		return &Error{Code: CodeHistoryDisabled, Message: "layer was created without history"}
	}
	n := len(l.history.undo)
	if n == 0 {
		return &Error{Code: CodeNothingToUndo, Message: "undo stack is empty"}
	}

	c := l.history.undo[n-1]
	l.history.undo = l.history.undo[:n-1]
	l.revert(c)
	l.history.redo = append(l.history.redo, c)
	l.record(inverseOps(c))
	l.logger.Debug("undo", "kind", string(c.kind))
	return nil
}

// Redo reapplies the most recently undone mutation.
func (l *Layer) Redo() error {
	if l.history == nil {
		return &Error{Code: CodeHistoryDisabled, Message: "layer was created without history"}
	}
	n := len(l.history.redo)
	if n == 0 {
		return &Error{Code: CodeNothingToRedo, Message: "redo stack is empty"}
	}

	c := l.history.redo[n-1]
	l.history.redo = l.history.redo[:n-1]
	l.apply(c)
	l.history.undo = append(l.history.undo, c)
	l.record(forwardOps(c))
	l.logger.Debug("redo", "kind", string(c.kind))
	return nil
}

// CanUndo reports whether Undo would succeed.
func (l *Layer) CanUndo() bool {
	return l.history != nil && len(l.history.undo) > 0
}

// CanRedo reports whether Redo would succeed.
func (l *Layer) CanRedo() bool {
	return l.history != nil && len(l.history.redo) > 0
}

// HistoryEnabled reports whether the layer records a timeline.
func (l *Layer) HistoryEnabled() bool {
	return l.history != nil
}
