package composition

import (
	"fmt"

	"github.com/roach88/groupwire/internal/ir"
)

// SatisfiedImport pairs a satisfied group import with the group supplying it.
type SatisfiedImport struct {
	Import   ir.GroupImportDefinition
	Exporter ir.GroupCompositionID
}

// Connect records an edge satisfying one import of conn.Importer from
// conn.Exporter.
//
// Checks, in order, all before any write:
//   - both ids are registered (UNKNOWN_GROUP_ID)
//   - conn.Import is one of the importer's group imports, in any member
//     order (UNKNOWN_IMPORT_DEFINITION)
//   - every mapping's import is covered by conn.Import (UNKNOWN_IMPORT_DEFINITION)
//   - every mapped export is provided by the exporter (UNKNOWN_EXPORT_DEFINITION)
//   - the import has no live edge (IMPORT_ALREADY_SATISFIED)
func (l *Layer) Connect(conn ir.GroupConnection) error {
	importerDef, ok := l.groups[conn.Importer]
	if !ok {
		e := unknownGroup(conn.Importer)
		e.Importer = conn.Importer
		return e
	}
	exporterDef, ok := l.groups[conn.Exporter]
	if !ok {
		e := unknownGroup(conn.Exporter)
		e.Exporter = conn.Exporter
		return e
	}

	declared, ok := importerDef.ImportDefinition(conn.Import.Contract)
	if !ok || !declared.Equal(conn.Import.Clone()) {
		return &Error{
			Code:     CodeUnknownImportDefinition,
			Message:  fmt.Sprintf("group %q does not declare this import", importerDef.Name),
			Importer: conn.Importer,
			Contract: conn.Import.Contract,
		}
	}
	for _, m := range conn.Mappings {
		if !declared.Matches(m.Import) {
			return &Error{
				Code:     CodeUnknownImportDefinition,
				Message:  fmt.Sprintf("mapped import %s is not part of the import contract", m.Import),
				Importer: conn.Importer,
				Contract: conn.Import.Contract,
			}
		}
		for _, exp := range m.Exports {
			if !exporterDef.ProvidesExport(exp) {
				return &Error{
					Code:     CodeUnknownExportDefinition,
					Message:  fmt.Sprintf("group %q does not provide export %s", exporterDef.Name, exp),
					Exporter: conn.Exporter,
					Contract: conn.Import.Contract,
				}
			}
		}
	}

	if existing, ok := l.graph.get(conn.Importer, conn.Import.Contract); ok {
		return &Error{
			Code:     CodeImportAlreadySatisfied,
			Message:  fmt.Sprintf("import is already satisfied by %s", existing.Exporter),
			Importer: conn.Importer,
			Exporter: conn.Exporter,
			Contract: conn.Import.Contract,
		}
	}

	c := &change{kind: ir.OpConnect, conn: ir.NewGroupConnection(conn.Importer, conn.Exporter, declared, conn.Mappings...)}
	l.apply(c)
	l.commit(c)
	l.logger.Debug("groups connected",
		"importer", conn.Importer.String(),
		"exporter", conn.Exporter.String(),
		"contract", conn.Import.Contract,
	)
	return nil
}

// Disconnect removes every edge from importer to exporter. The affected
// imports revert to unsatisfied. Succeeds without change when no such edge
// exists.
func (l *Layer) Disconnect(importer, exporter ir.GroupCompositionID) error {
	if err := l.requireRegistered(importer, exporter); err != nil {
		return err
	}
	keys := l.graph.between(importer, exporter)
	if len(keys) == 0 {
		return nil
	}

	c := &change{kind: ir.OpDisconnect, importer: importer, exporter: exporter}
	l.apply(c)
	l.commit(c)
	l.logger.Debug("groups disconnected",
		"importer", importer.String(),
		"exporter", exporter.String(),
		"severed", len(c.severed),
	)
	return nil
}

// DisconnectImport removes the edge satisfying one import contract of
// importer, if any.
func (l *Layer) DisconnectImport(importer ir.GroupCompositionID, contract string) error {
	if err := l.requireRegistered(importer); err != nil {
		return err
	}
	if _, ok := l.graph.get(importer, contract); !ok {
		return nil
	}

	c := &change{kind: ir.OpDisconnectImport, importer: importer, contract: contract}
	l.apply(c)
	l.commit(c)
	l.logger.Debug("import disconnected", "importer", importer.String(), "contract", contract)
	return nil
}

// DisconnectAll removes every edge in which id is the importer or the
// exporter. Remove uses the same cascade.
func (l *Layer) DisconnectAll(id ir.GroupCompositionID) error {
	if err := l.requireRegistered(id); err != nil {
		return err
	}
	if len(l.graph.touching(id)) == 0 {
		return nil
	}

	c := &change{kind: ir.OpDisconnectAll, group: id}
	l.apply(c)
	l.commit(c)
	l.logger.Debug("group disconnected", "group", id.String(), "severed", len(c.severed))
	return nil
}

// SatisfiedImports returns copies of the imports of id that have a live
// edge, with the group supplying each, ordered by contract.
func (l *Layer) SatisfiedImports(id ir.GroupCompositionID) ([]SatisfiedImport, error) {
	def, ok := l.groups[id]
	if !ok {
		return nil, unknownGroup(id)
	}
	out := []SatisfiedImport{}
	for _, imp := range def.GroupImports {
		if conn, ok := l.graph.get(id, imp.Contract); ok {
			out = append(out, SatisfiedImport{Import: imp.Clone(), Exporter: conn.Exporter})
		}
	}
	return out, nil
}

// UnsatisfiedImports returns copies of the imports of id with no live edge,
// in the definition's canonical order.
func (l *Layer) UnsatisfiedImports(id ir.GroupCompositionID) ([]ir.GroupImportDefinition, error) {
	def, ok := l.groups[id]
	if !ok {
		return nil, unknownGroup(id)
	}
	out := []ir.GroupImportDefinition{}
	for _, imp := range def.GroupImports {
		if _, ok := l.graph.get(id, imp.Contract); !ok {
			out = append(out, imp.Clone())
		}
	}
	return out, nil
}

// Connection returns a copy of the edge satisfying contract on importer.
func (l *Layer) Connection(importer ir.GroupCompositionID, contract string) (ir.GroupConnection, bool) {
	conn, ok := l.graph.get(importer, contract)
	if !ok {
		return ir.GroupConnection{}, false
	}
	return conn.Clone(), true
}

// Connections returns copies of every live edge ordered by importer, then
// contract.
func (l *Layer) Connections() []ir.GroupConnection {
	all := l.graph.all()
	for i := range all {
		all[i] = all[i].Clone()
	}
	return all
}

// Dependents returns the importers currently supplied by id: the groups
// whose imports would revert to unsatisfied if id were removed.
func (l *Layer) Dependents(id ir.GroupCompositionID) ([]ir.GroupCompositionID, error) {
	if err := l.requireRegistered(id); err != nil {
		return nil, err
	}
	return l.graph.dependents(id), nil
}

// IsFullyWired reports whether every import of every registered group is
// satisfied.
func (l *Layer) IsFullyWired() bool {
	for id, def := range l.groups {
		for _, imp := range def.GroupImports {
			if _, ok := l.graph.get(id, imp.Contract); !ok {
				return false
			}
		}
	}
	return true
}

func (l *Layer) requireRegistered(ids ...ir.GroupCompositionID) error {
	for _, id := range ids {
		if _, ok := l.groups[id]; !ok {
			return unknownGroup(id)
		}
	}
	return nil
}
