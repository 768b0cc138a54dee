package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/groupwire/internal/compiler"
	"github.com/roach88/groupwire/internal/composition"
	"github.com/roach88/groupwire/internal/ir"
)

// InstanceReport describes one registered group.
type InstanceReport struct {
	Name        string   `json:"name,omitempty"`
	ID          string   `json:"id"`
	Group       string   `json:"group"`
	Satisfied   []string `json:"satisfied"`
	Unsatisfied []string `json:"unsatisfied"`
}

// LayerReport summarizes a layer's wiring.
type LayerReport struct {
	Instances           []InstanceReport `json:"instances"`
	Connections         int              `json:"connections"`
	DistinctDefinitions int              `json:"distinct_definitions"`
	FullyWired          bool             `json:"fully_wired"`
	Order               []string         `json:"order,omitempty"`
	Cycle               []string         `json:"cycle,omitempty"`
}

// buildTopology adds every topology instance to layer under a fresh id from
// gen and requests every topology connection. It returns the instance name
// of each id.
func buildTopology(layer *composition.Layer, cat *compiler.Catalog, gen ir.GroupIDGenerator) (map[ir.GroupCompositionID]string, error) {
	names := make(map[ir.GroupCompositionID]string, len(cat.Topology.Instances))
	ids := make(map[string]ir.GroupCompositionID, len(cat.Topology.Instances))

	for _, in := range cat.Topology.Instances {
		id := gen.Generate()
		if err := layer.Add(id, cat.Groups[in.Group]); err != nil {
			return names, fmt.Errorf("instance %s: %w", in.Name, err)
		}
		ids[in.Name] = id
		names[id] = in.Name
	}
	for _, req := range cat.Topology.Connections {
		conn := req.Connection(ids[req.Importer], ids[req.Exporter])
		if err := layer.Connect(conn); err != nil {
			return names, fmt.Errorf("connect %s <- %s (%s): %w", req.Importer, req.Exporter, req.Import.Contract, err)
		}
	}
	return names, nil
}

// reportLayer summarizes layer. names maps ids to instance names and may be
// nil, e.g. for a layer rebuilt from a journal.
func reportLayer(layer *composition.Layer, names map[ir.GroupCompositionID]string) LayerReport {
	label := func(id ir.GroupCompositionID) string {
		if name, ok := names[id]; ok {
			return name
		}
		return id.String()
	}

	r := LayerReport{
		Instances:           []InstanceReport{},
		Connections:         len(layer.Connections()),
		DistinctDefinitions: layer.DistinctDefinitions(),
		FullyWired:          layer.IsFullyWired(),
	}
	for id := range layer.Groups() {
		def, _ := layer.Group(id)
		sat, _ := layer.SatisfiedImports(id)
		unsat, _ := layer.UnsatisfiedImports(id)

		in := InstanceReport{
			Name:        names[id],
			ID:          id.String(),
			Group:       def.Name,
			Satisfied:   make([]string, 0, len(sat)),
			Unsatisfied: make([]string, 0, len(unsat)),
		}
		for _, s := range sat {
			in.Satisfied = append(in.Satisfied, s.Import.Contract+" <- "+label(s.Exporter))
		}
		for _, u := range unsat {
			in.Unsatisfied = append(in.Unsatisfied, u.Contract)
		}
		r.Instances = append(r.Instances, in)
	}

	order, err := layer.InstantiationOrder()
	var ce *composition.Error
	switch {
	case err == nil:
		r.Order = make([]string, len(order))
		for i, id := range order {
			r.Order[i] = label(id)
		}
	case errors.As(err, &ce):
		r.Cycle = make([]string, len(ce.Cycle))
		for i, id := range ce.Cycle {
			r.Cycle[i] = label(id)
		}
	}
	return r
}

// writeReportText prints a layer report for humans.
func writeReportText(w io.Writer, r LayerReport) {
	for _, in := range r.Instances {
		title := in.ID
		if in.Name != "" {
			title = in.Name + " (" + in.ID + ")"
		}
		fmt.Fprintf(w, "%s: %s\n", title, in.Group)
		for _, s := range in.Satisfied {
			fmt.Fprintf(w, "  ✓ %s\n", s)
		}
		for _, u := range in.Unsatisfied {
			fmt.Fprintf(w, "  ✗ %s\n", u)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d group(s), %d connection(s), %d distinct definition(s)\n",
		len(r.Instances), r.Connections, r.DistinctDefinitions)
	if r.FullyWired {
		fmt.Fprintln(w, "All imports satisfied")
	}
	if r.Cycle != nil {
		fmt.Fprintf(w, "Composition cycle: %s\n", strings.Join(r.Cycle, " -> "))
		return
	}
	fmt.Fprintf(w, "Instantiation order: %s\n", strings.Join(r.Order, ", "))
}

// layerErrorCode returns the composition error code carried by err, or the
// generic CLI code.
func layerErrorCode(err error) string {
	if code := composition.CodeOf(err); code != "" {
		return string(code)
	}
	return ErrCodeGeneric
}
