package queryir

import "github.com/roach88/groupwire/internal/ir"

// Query represents an abstract journal query.
//
// This is a sealed interface - only types in this package implement it.
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// Source is what a Select reads rows from: a table or a join of sources.
//
// This is a sealed interface - only types in this package implement it.
type Source interface {
	sourceNode()
}

// Predicate represents a filter condition.
//
// This is a sealed interface - only types in this package implement it.
// Predicates are used in Select.Filter and Join.On to filter rows.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Select represents table access with filtering and ordering.
//
// Semantics:
//
//	SELECT <columns> FROM <from> WHERE <filter> ORDER BY <order>
//
// Example:
//
//	Select{
//	  From:    Table{Name: "operations", Alias: "o"},
//	  Columns: []string{"o.seq", "o.kind"},
//	  Filter:  Equals{Field: "o.kind", Value: ir.IRString("connect")},
//	  OrderBy: []string{"o.seq"},
//	}
//
// Translates to SQL:
//
//	SELECT o.seq, o.kind FROM operations AS o
//	WHERE o.kind = ? ORDER BY o.seq ASC
//
// Columns are returned in the order given. OrderBy is required.
type Select struct {
	From    Source
	Columns []string  // qualified or bare column names, in result order
	Filter  Predicate // WHERE conditions (nil = no filter)
	OrderBy []string  // ascending sort keys, most significant first
}

func (Select) queryNode() {}

// Table is a named table, optionally aliased.
type Table struct {
	Name  string
	Alias string
}

func (Table) sourceNode() {}

// Join combines two sources.
//
// Semantics:
//
//	<left> [LEFT] JOIN <right> ON <on>
//
// With Outer set, rows of Left without a match in Right are kept and the
// Right columns read as NULL. On is required: no cross joins.
type Join struct {
	Left  Source
	Right Source
	On    Predicate
	Outer bool
}

func (Join) sourceNode() {}

// Equals represents a field-equals-literal predicate.
//
//	<field> = <value>
//
// Value must be a scalar ir.IRValue (string, int or bool).
type Equals struct {
	Field string
	Value ir.IRValue
}

func (Equals) predicateNode() {}

// Greater represents a field-greater-than-literal predicate.
//
//	<field> > <value>
type Greater struct {
	Field string
	Value ir.IRValue
}

func (Greater) predicateNode() {}

// FieldEquals compares two columns, typically in a Join's On clause.
//
//	<left> = <right>
type FieldEquals struct {
	Left  string
	Right string
}

func (FieldEquals) predicateNode() {}

// And represents a conjunction of predicates (all must be true).
// An empty And is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or represents a disjunction of predicates (at least one must be true).
// An empty Or is always false.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}
