package ir

import (
	"cmp"
	"slices"
)

// GroupExportDefinition is the subset of a group's internal exports offered to
// other groups under one group-level contract.
type GroupExportDefinition struct {
	Group           string                 `json:"group"`
	Contract        string                 `json:"contract"`
	ProvidedExports []ExportRegistrationID `json:"provided_exports"`
}

// NewGroupExportDefinition creates a group export. Provided exports are sorted
// and deduplicated.
func NewGroupExportDefinition(group, contract string, provided ...ExportRegistrationID) *GroupExportDefinition {
	return &GroupExportDefinition{
		Group:           group,
		Contract:        contract,
		ProvidedExports: sortedUnique(provided, ExportRegistrationID.Compare),
	}
}

// Provides reports whether id is one of the provided exports.
func (e *GroupExportDefinition) Provides(id ExportRegistrationID) bool {
	if e == nil {
		return false
	}
	_, found := slices.BinarySearchFunc(e.ProvidedExports, id, ExportRegistrationID.Compare)
	return found
}

// Equal reports structural equality. Two nil exports are equal.
func (e *GroupExportDefinition) Equal(other *GroupExportDefinition) bool {
	if e == nil || other == nil {
		return e == nil && other == nil
	}
	return e.Group == other.Group &&
		e.Contract == other.Contract &&
		slices.Equal(e.ProvidedExports, other.ProvidedExports)
}

func (e *GroupExportDefinition) clone() *GroupExportDefinition {
	if e == nil {
		return nil
	}
	return NewGroupExportDefinition(e.Group, e.Contract, e.ProvidedExports...)
}

// GroupImportDefinition is a subset of a group's internal imports that must be
// satisfied by another group, under one group-level contract.
type GroupImportDefinition struct {
	Group          string                 `json:"group"`
	Contract       string                 `json:"contract"`
	ImportsToMatch []ImportRegistrationID `json:"imports_to_match"`
}

// NewGroupImportDefinition creates a group import. Imports to match are sorted
// and deduplicated.
func NewGroupImportDefinition(group, contract string, imports ...ImportRegistrationID) GroupImportDefinition {
	return GroupImportDefinition{
		Group:          group,
		Contract:       contract,
		ImportsToMatch: sortedUnique(imports, ImportRegistrationID.Compare),
	}
}

// Matches reports whether id is one of the imports this definition covers.
// i must be in canonical form (see Clone).
func (i GroupImportDefinition) Matches(id ImportRegistrationID) bool {
	_, found := slices.BinarySearchFunc(i.ImportsToMatch, id, ImportRegistrationID.Compare)
	return found
}

// Equal reports structural equality.
func (i GroupImportDefinition) Equal(other GroupImportDefinition) bool {
	return i.Group == other.Group &&
		i.Contract == other.Contract &&
		slices.Equal(i.ImportsToMatch, other.ImportsToMatch)
}

// Clone returns a copy in canonical form: ImportsToMatch sorted and
// deduplicated, sharing no memory with i.
func (i GroupImportDefinition) Clone() GroupImportDefinition {
	return NewGroupImportDefinition(i.Group, i.Contract, i.ImportsToMatch...)
}

// GroupDefinition describes a deployable group of cooperating parts.
//
// Definitions are values: two definitions with the same content are
// interchangeable. Build them with NewGroupDefinition so set-valued members
// are in canonical order, and never mutate one after handing it to a
// composition layer.
type GroupDefinition struct {
	Name                string                      `json:"name"`
	Parts               []GroupPartDefinition       `json:"parts"`
	InternalConnections []PartImportToPartExportMap `json:"internal_connections"`
	GroupExport         *GroupExportDefinition      `json:"group_export,omitempty"`
	GroupImports        []GroupImportDefinition     `json:"group_imports"`
}

// NewGroupDefinition creates a definition in canonical form. All inputs are
// copied. Parts are ordered by registration id, internal connections by
// import id, and group imports by contract.
func NewGroupDefinition(
	name string,
	parts []GroupPartDefinition,
	internal []PartImportToPartExportMap,
	export *GroupExportDefinition,
	imports []GroupImportDefinition,
) *GroupDefinition {
	def := &GroupDefinition{
		Name:                name,
		Parts:               make([]GroupPartDefinition, len(parts)),
		InternalConnections: cloneMaps(internal),
		GroupExport:         export.clone(),
		GroupImports:        make([]GroupImportDefinition, len(imports)),
	}
	for i, p := range parts {
		def.Parts[i] = p.clone()
	}
	for i, imp := range imports {
		def.GroupImports[i] = imp.Clone()
	}

	slices.SortStableFunc(def.Parts, func(a, b GroupPartDefinition) int {
		return a.RegistrationID().Compare(b.RegistrationID())
	})
	slices.SortStableFunc(def.InternalConnections, func(a, b PartImportToPartExportMap) int {
		return a.Import.Compare(b.Import)
	})
	slices.SortStableFunc(def.GroupImports, func(a, b GroupImportDefinition) int {
		return cmp.Compare(a.Contract, b.Contract)
	})
	return def
}

// Clone returns a deep copy in canonical form.
func (d *GroupDefinition) Clone() *GroupDefinition {
	return NewGroupDefinition(d.Name, d.Parts, d.InternalConnections, d.GroupExport, d.GroupImports)
}

// Equal reports deep structural equality over name, parts, internal wiring,
// and exposed contracts.
func (d *GroupDefinition) Equal(other *GroupDefinition) bool {
	if d == nil || other == nil {
		return d == nil && other == nil
	}
	if d == other {
		return true
	}
	return d.Name == other.Name &&
		slices.EqualFunc(d.Parts, other.Parts, GroupPartDefinition.Equal) &&
		mapsEqual(d.InternalConnections, other.InternalConnections) &&
		d.GroupExport.Equal(other.GroupExport) &&
		slices.EqualFunc(d.GroupImports, other.GroupImports, GroupImportDefinition.Equal)
}

// Hash returns the structural hash of the definition. Equal definitions
// always hash equal.
func (d *GroupDefinition) Hash() (string, error) {
	return DefinitionHash(d)
}

// CanonicalJSON returns the RFC 8785 encoding hashed by Hash.
func (d *GroupDefinition) CanonicalJSON() ([]byte, error) {
	return MarshalCanonical(d.toIR())
}

// Part looks up a part by registration id.
func (d *GroupDefinition) Part(id PartRegistrationID) (GroupPartDefinition, bool) {
	for _, p := range d.Parts {
		if p.RegistrationID() == id {
			return p, true
		}
	}
	return GroupPartDefinition{}, false
}

// Export looks up an export declared by one of the group's parts.
func (d *GroupDefinition) Export(id ExportRegistrationID) (ExportDefinition, bool) {
	p, ok := d.Part(id.Part())
	if !ok {
		return ExportDefinition{}, false
	}
	e, ok := p.Exports[id]
	return e, ok
}

// Import looks up an import declared by one of the group's parts.
func (d *GroupDefinition) Import(id ImportRegistrationID) (ImportDefinition, bool) {
	p, ok := d.Part(id.Part())
	if !ok {
		return ImportDefinition{}, false
	}
	i, ok := p.Imports[id]
	return i, ok
}

// ImportDefinition returns the group-level import with the given contract.
func (d *GroupDefinition) ImportDefinition(contract string) (GroupImportDefinition, bool) {
	for _, imp := range d.GroupImports {
		if imp.Contract == contract {
			return imp, true
		}
	}
	return GroupImportDefinition{}, false
}

// DeclaresImport reports whether imp is, structurally, one of the group's
// import definitions. The order of imp.ImportsToMatch does not matter.
func (d *GroupDefinition) DeclaresImport(imp GroupImportDefinition) bool {
	declared, ok := d.ImportDefinition(imp.Contract)
	return ok && declared.Equal(imp.Clone())
}

// ProvidesExport reports whether the group offers id to other groups.
func (d *GroupDefinition) ProvidesExport(id ExportRegistrationID) bool {
	return d.GroupExport.Provides(id)
}

// toIR converts the definition to the IR tree that is canonically encoded for
// hashing and persistence. Field names match the JSON tags so the canonical
// bytes decode back into a GroupDefinition.
func (d *GroupDefinition) toIR() IRObject {
	parts := make(IRArray, len(d.Parts))
	for i, p := range d.Parts {
		parts[i] = partToIR(p)
	}

	internal := make(IRArray, len(d.InternalConnections))
	for i, m := range d.InternalConnections {
		internal[i] = mapToIR(m)
	}

	imports := make(IRArray, len(d.GroupImports))
	for i, imp := range d.GroupImports {
		imports[i] = IRObject{
			"group":            IRString(imp.Group),
			"contract":         IRString(imp.Contract),
			"imports_to_match": idsToIR(imp.ImportsToMatch),
		}
	}

	obj := IRObject{
		"name":                 IRString(d.Name),
		"parts":                parts,
		"internal_connections": internal,
		"group_imports":        imports,
	}
	if d.GroupExport != nil {
		obj["group_export"] = IRObject{
			"group":            IRString(d.GroupExport.Group),
			"contract":         IRString(d.GroupExport.Contract),
			"provided_exports": idsToIR(d.GroupExport.ProvidedExports),
		}
	}
	return obj
}

func partToIR(p GroupPartDefinition) IRObject {
	exports := make(IRObject, len(p.Exports))
	for id, e := range p.Exports {
		exports[id.String()] = IRObject{
			"contract":      IRString(e.Contract),
			"contract_type": IRString(e.ContractType),
		}
	}
	imports := make(IRObject, len(p.Imports))
	for id, i := range p.Imports {
		imports[id.String()] = IRObject{
			"contract":      IRString(i.Contract),
			"contract_type": IRString(i.ContractType),
			"cardinality":   IRString(i.Cardinality),
			"prerequisite":  IRBool(i.Prerequisite),
		}
	}
	obj := IRObject{
		"identity": IRString(p.Identity),
		"index":    IRInt(p.Index),
		"exports":  exports,
		"imports":  imports,
	}
	if len(p.Schedule) > 0 {
		obj["schedule"] = p.Schedule
	}
	return obj
}

func mapToIR(m PartImportToPartExportMap) IRObject {
	return IRObject{
		"import":  IRString(m.Import.String()),
		"exports": idsToIR(m.Exports),
	}
}

func idsToIR[T interface{ String() string }](ids []T) IRArray {
	arr := make(IRArray, len(ids))
	for i, id := range ids {
		arr[i] = IRString(id.String())
	}
	return arr
}

func sortedUnique[T comparable](in []T, compare func(a, b T) int) []T {
	out := slices.Clone(in)
	if out == nil {
		out = []T{}
	}
	slices.SortFunc(out, compare)
	return slices.Compact(out)
}
