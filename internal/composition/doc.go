// Package composition implements the plugin-group composition layer.
//
// A Layer tracks live group instances, the canonical definition each one
// resolves to, and the connection graph wiring importing groups to
// exporting groups. It is the single source of truth for "is this pipeline
// fully wired" and "what would removing group X break".
//
// INVARIANTS:
//
// Canonical definitions: structurally equal definitions added under
// different ids resolve to the same *ir.GroupDefinition. The layer never
// holds two live representations of the same content, and forgets a
// definition when its last instance is removed.
//
// Partition: for every registered id, SatisfiedImports and
// UnsatisfiedImports are disjoint and together equal the group imports
// declared by its definition.
//
// Cascade: Remove severs every edge naming the removed id, whether it was
// the importer or the exporter, so no edge ever references an unregistered
// id.
//
// All-or-nothing: every mutation completes its checks before its first
// write. A returned error means the layer is unchanged.
//
// CONCURRENCY:
//
// The layer does no locking. Mutations require exclusive access; read-only
// queries may run concurrently with each other but not with a mutation.
// Callers sharing a Layer across goroutines serialize access externally.
package composition
