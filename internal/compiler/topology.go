package compiler

import (
	"cmp"
	"fmt"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/roach88/groupwire/internal/ir"
)

// Instance is one named group instance in a topology.
type Instance struct {
	Name  string `json:"name"`
	Group string `json:"group"`
}

// ConnectRequest asks for Importer's import contract to be satisfied by
// Exporter. Import and Mappings are resolved against the catalog's groups.
type ConnectRequest struct {
	Importer string                         `json:"importer"`
	Exporter string                         `json:"exporter"`
	Import   ir.GroupImportDefinition       `json:"import"`
	Mappings []ir.PartImportToPartExportMap `json:"mappings"`
	Pos      token.Pos                      `json:"-"`
}

// Connection builds the engine-level connection for concrete instance ids.
func (r ConnectRequest) Connection(importer, exporter ir.GroupCompositionID) ir.GroupConnection {
	return ir.NewGroupConnection(importer, exporter, r.Import, r.Mappings...)
}

// Topology is the instance set and connection requests of a catalog.
type Topology struct {
	Instances   []Instance       `json:"instances"`
	Connections []ConnectRequest `json:"connections"`
}

// Instance looks up an instance by name.
func (t *Topology) Instance(name string) (Instance, bool) {
	i, found := slices.BinarySearchFunc(t.Instances, name, func(in Instance, name string) int {
		return cmp.Compare(in.Name, name)
	})
	if !found {
		return Instance{}, false
	}
	return t.Instances[i], true
}

// CompileTopology parses the instance and connect sections of a catalog.
//
//	instance: reader: "Reader"
//	connect: [{importer: "writer", exporter: "reader", import: "table"}]
//
// Instances are sorted by name. A connection may list explicit map entries;
// when it does not, each import of the group import is paired with the
// exporter's provided exports of the same contract.
func CompileTopology(v cue.Value, groups map[string]*ir.GroupDefinition) (*Topology, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	topo := &Topology{Instances: []Instance{}, Connections: []ConnectRequest{}}

	if iv := v.LookupPath(cue.ParsePath("instance")); iv.Exists() {
		iter, err := iv.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			name := iter.Label()
			group, err := iter.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			if _, ok := groups[group]; !ok {
				return nil, &CompileError{
					Field:   "instance." + name,
					Message: fmt.Sprintf("unknown group %q", group),
					Pos:     iter.Value().Pos(),
				}
			}
			topo.Instances = append(topo.Instances, Instance{Name: name, Group: group})
		}
	}
	slices.SortFunc(topo.Instances, func(a, b Instance) int { return cmp.Compare(a.Name, b.Name) })

	cv := v.LookupPath(cue.ParsePath("connect"))
	if !cv.Exists() {
		return topo, nil
	}
	iter, err := cv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for i := 0; iter.Next(); i++ {
		req, err := compileConnect(iter.Value(), fmt.Sprintf("connect[%d]", i), topo, groups)
		if err != nil {
			return nil, err
		}
		topo.Connections = append(topo.Connections, req)
	}
	return topo, nil
}

func compileConnect(v cue.Value, field string, topo *Topology, groups map[string]*ir.GroupDefinition) (ConnectRequest, error) {
	req := ConnectRequest{Pos: v.Pos()}

	var err error
	if req.Importer, err = requiredString(v, "importer", field+".importer"); err != nil {
		return req, err
	}
	if req.Exporter, err = requiredString(v, "exporter", field+".exporter"); err != nil {
		return req, err
	}
	contract, err := requiredString(v, "import", field+".import")
	if err != nil {
		return req, err
	}

	importer, ok := topo.Instance(req.Importer)
	if !ok {
		return req, &CompileError{Field: field + ".importer", Message: fmt.Sprintf("unknown instance %q", req.Importer), Pos: v.Pos()}
	}
	exporter, ok := topo.Instance(req.Exporter)
	if !ok {
		return req, &CompileError{Field: field + ".exporter", Message: fmt.Sprintf("unknown instance %q", req.Exporter), Pos: v.Pos()}
	}

	imp, ok := groups[importer.Group].ImportDefinition(contract)
	if !ok {
		return req, &CompileError{
			Field:   field + ".import",
			Message: fmt.Sprintf("group %q has no import %q", importer.Group, contract),
			Pos:     v.LookupPath(cue.ParsePath("import")).Pos(),
		}
	}
	req.Import = imp

	if mv := v.LookupPath(cue.ParsePath("map")); mv.Exists() {
		req.Mappings, err = parseMappings(mv, field+".map")
		return req, err
	}

	req.Mappings, err = PairByContract(imp, groups[exporter.Group])
	if err != nil {
		return req, &CompileError{Field: field + ".map", Message: err.Error(), Pos: v.Pos()}
	}
	return req, nil
}

// PairByContract maps each import of imp to the exports exporter provides
// under the same contract name. Every import must find at least one export.
func PairByContract(imp ir.GroupImportDefinition, exporter *ir.GroupDefinition) ([]ir.PartImportToPartExportMap, error) {
	if exporter.GroupExport == nil {
		return nil, fmt.Errorf("group %q exports nothing", exporter.Name)
	}
	mappings := make([]ir.PartImportToPartExportMap, 0, len(imp.ImportsToMatch))
	for _, id := range imp.ImportsToMatch {
		var matches []ir.ExportRegistrationID
		for _, e := range exporter.GroupExport.ProvidedExports {
			if e.Contract == id.Contract {
				matches = append(matches, e)
			}
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("group %q provides no export for contract %q (import %s)", exporter.Name, id.Contract, id)
		}
		mappings = append(mappings, ir.NewPartImportToPartExportMap(id, matches...))
	}
	return mappings, nil
}
