// Package ir provides the canonical representation types for groupwire.
//
// This package holds identity types, the immutable definition model for plugin
// groups and their parts, the connection model, and the canonical JSON and
// hashing used for content-addressed identity. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Definitions are immutable once built through their constructors
//   - Equality is structural (Equal), never pointer identity
//   - Set-valued members are normalized into canonical order on construction
//   - NO float types in opaque metadata - use int64 for numbers
//   - All JSON tags use snake_case
package ir
