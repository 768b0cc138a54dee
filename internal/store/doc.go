// Package store provides SQLite-backed durable storage for the composition
// operation journal.
//
// The store is an append-only log with two tables:
//   - definitions: group definitions as canonical JSON, keyed by structural hash
//   - operations: one row per journaled mutation, keyed by logical seq
//
// Definitions are content-addressed, so adding the same definition under many
// group ids stores it once, mirroring the in-memory interning store.
//
// # Ordering
//
// All ordering uses seq INTEGER (the layer's logical clock), never timestamps.
// Every read includes ORDER BY seq ASC so replays see operations in the order
// they were applied.
//
// # Integrity
//
// Reads recompute each definition and connection hash from the stored bytes
// and fail on mismatch.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
