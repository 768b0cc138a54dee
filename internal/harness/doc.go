// Package harness runs composition scenarios against a CUE catalog.
//
// The harness compiles a catalog of group definitions and a topology,
// executes a scenario's steps against a fresh composition layer, checks the
// layer's invariants after every step, and evaluates assertions on the
// final state.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: pipeline_undo
//	description: "Undo restores a severed connection"
//	catalog: ../catalogs/pipeline
//	history: true
//	steps:
//	  - build: true
//	  - remove: reader
//	  - undo: true
//	  - connect:
//	      importer: writer
//	      exporter: reader
//	      import: table
//	    expect_error: IMPORT_ALREADY_SATISFIED
//	assertions:
//	  - type: satisfied
//	    instance: writer
//	    imports: [table]
//	  - type: order
//	    instances: [reader, writer]
//
// A build step adds every topology instance and requests every topology
// connection, stopping at the first failure without rolling back what it
// already applied. Other steps name instances; each name is bound to a
// deterministic id ("group-0001", ...) on first use. A connect step without
// a map pairs imports to the exporter's provided exports by contract.
//
// # Assertion Types
//
//   - satisfied / unsatisfied: an instance's import contracts
//   - groups: the registered instances
//   - same_definition: instances share one interned definition
//   - distinct_definitions: the number of interned definitions
//   - dependents: the importers an instance supplies
//   - fully_wired: whether every import is satisfied
//   - order: the instantiation order
//   - cycle: the instantiation order fails with a cycle
//
// # Golden Snapshots
//
// RunWithGolden serializes the final state as canonical JSON and compares
// it with testdata/golden/{name}.golden. Run with -update to regenerate.
package harness
