// Package queryir provides an abstract query representation for reading the
// operation journal.
//
// Journal reads (the full log, the operations touching one group, filtered
// history) are expressed as a small relational algebra and compiled to SQL
// by package querysql:
//
//	[OperationFilter] → [Query IR] → [querysql] → SQLite
//
// The fragment includes:
//   - Select(from, columns, filter, order) with explicit columns
//   - Table and Join sources (inner or left outer)
//   - Predicates: Equals, Greater, FieldEquals, And, Or
//
// It excludes aggregations, subqueries and SELECT *. Every Select must name
// an order: journal reads are always deterministic.
//
// SEALED INTERFACES:
//
// Query, Source and Predicate are sealed with marker methods, so backends
// can switch exhaustively over the node types:
//
//	switch s := source.(type) {
//	case Table:
//	    // Handle table
//	case Join:
//	    // Handle join
//	}
//
// Literal values use ir.IRValue scalar types (string, int, bool). Column
// names are validated as identifiers because backends interpolate them;
// values are always parameterized.
package queryir
