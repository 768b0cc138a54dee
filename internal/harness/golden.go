package harness

import (
	"cmp"
	"errors"
	"slices"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/groupwire/internal/composition"
	"github.com/roach88/groupwire/internal/ir"
	"github.com/roach88/groupwire/internal/testutil"
)

// Snapshot captures the final layer state of a scenario, with instance
// names in place of ids so it is stable across runs.
type Snapshot struct {
	Groups              []GroupSnapshot      `json:"groups"`
	Connections         []ConnectionSnapshot `json:"connections"`
	DistinctDefinitions int                  `json:"distinct_definitions"`
	Order               []string             `json:"order,omitempty"`
	Cycle               []string             `json:"cycle,omitempty"`
	Steps               []StepRecord         `json:"steps"`
}

// GroupSnapshot is one registered instance.
type GroupSnapshot struct {
	Instance    string   `json:"instance"`
	Group       string   `json:"group"`
	Satisfied   []string `json:"satisfied"`
	Unsatisfied []string `json:"unsatisfied"`
}

// ConnectionSnapshot is one live edge. Mappings use textual registration ids.
type ConnectionSnapshot struct {
	Importer string            `json:"importer"`
	Exporter string            `json:"exporter"`
	Import   string            `json:"import"`
	Mappings []MappingSnapshot `json:"mappings"`
}

// MappingSnapshot is one part-level mapping of a connection.
type MappingSnapshot struct {
	Import  string   `json:"import"`
	Exports []string `json:"exports"`
}

// TakeSnapshot records the layer's groups (by instance name), connections
// (by importer name, then contract), the distinct definition count, and the
// instantiation order or the cycle that prevents one.
func TakeSnapshot(layer *composition.Layer, ids *testutil.SequentialIDs) *Snapshot {
	s := &Snapshot{
		Groups:              []GroupSnapshot{},
		Connections:         []ConnectionSnapshot{},
		DistinctDefinitions: layer.DistinctDefinitions(),
		Steps:               []StepRecord{},
	}

	for id := range layer.Groups() {
		def, _ := layer.Group(id)
		sat, _ := layer.SatisfiedImports(id)
		unsat, _ := layer.UnsatisfiedImports(id)
		g := GroupSnapshot{
			Instance:    ids.Name(id),
			Group:       def.Name,
			Satisfied:   make([]string, len(sat)),
			Unsatisfied: importContracts(unsat),
		}
		for i, si := range sat {
			g.Satisfied[i] = si.Import.Contract
		}
		s.Groups = append(s.Groups, g)
	}
	slices.SortFunc(s.Groups, func(a, b GroupSnapshot) int { return cmp.Compare(a.Instance, b.Instance) })

	for _, conn := range layer.Connections() {
		s.Connections = append(s.Connections, snapshotConnection(ids, conn))
	}
	slices.SortFunc(s.Connections, func(a, b ConnectionSnapshot) int {
		if c := cmp.Compare(a.Importer, b.Importer); c != 0 {
			return c
		}
		return cmp.Compare(a.Import, b.Import)
	})

	order, err := layer.InstantiationOrder()
	var ce *composition.Error
	switch {
	case err == nil:
		s.Order = names(ids, order)
	case errors.As(err, &ce):
		s.Cycle = names(ids, ce.Cycle)
	}
	return s
}

func snapshotConnection(ids *testutil.SequentialIDs, conn ir.GroupConnection) ConnectionSnapshot {
	cs := ConnectionSnapshot{
		Importer: ids.Name(conn.Importer),
		Exporter: ids.Name(conn.Exporter),
		Import:   conn.Import.Contract,
		Mappings: make([]MappingSnapshot, len(conn.Mappings)),
	}
	for i, m := range conn.Mappings {
		ms := MappingSnapshot{Import: m.Import.String(), Exports: make([]string, len(m.Exports))}
		for j, e := range m.Exports {
			ms.Exports[j] = e.String()
		}
		cs.Mappings[i] = ms
	}
	return cs
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON serialization.
// This is required because ir.MarshalCanonical only handles IR types and primitives.
func (s *Snapshot) toCanonicalMap() map[string]any {
	groups := make([]any, len(s.Groups))
	for i, g := range s.Groups {
		groups[i] = map[string]any{
			"instance":    g.Instance,
			"group":       g.Group,
			"satisfied":   anyList(g.Satisfied),
			"unsatisfied": anyList(g.Unsatisfied),
		}
	}

	conns := make([]any, len(s.Connections))
	for i, c := range s.Connections {
		mappings := make([]any, len(c.Mappings))
		for j, m := range c.Mappings {
			mappings[j] = map[string]any{
				"import":  m.Import,
				"exports": anyList(m.Exports),
			}
		}
		conns[i] = map[string]any{
			"importer": c.Importer,
			"exporter": c.Exporter,
			"import":   c.Import,
			"mappings": mappings,
		}
	}

	steps := make([]any, len(s.Steps))
	for i, st := range s.Steps {
		step := map[string]any{"index": st.Index, "op": st.Op}
		if st.Error != "" {
			step["error"] = st.Error
		}
		steps[i] = step
	}

	result := map[string]any{
		"groups":               groups,
		"connections":          conns,
		"distinct_definitions": s.DistinctDefinitions,
		"steps":                steps,
	}
	if s.Cycle != nil {
		result["cycle"] = anyList(s.Cycle)
	} else {
		result["order"] = anyList(s.Order)
	}
	return result
}

// MarshalCanonical renders the snapshot as canonical JSON.
func (s *Snapshot) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

func anyList(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file at testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an already computed result's snapshot against a
// golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := result.Snapshot
	if snapshot == nil {
		snapshot = &Snapshot{}
	}
	snapshot.Steps = result.Steps

	data, err := snapshot.MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
