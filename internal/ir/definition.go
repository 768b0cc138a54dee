package ir

import (
	"maps"
	"slices"
)

// Cardinality describes how many exports an import accepts.
type Cardinality string

const (
	// ExactlyOne imports require a single matching export.
	ExactlyOne Cardinality = "exactly_one"
	// ZeroOrOne imports accept at most one export.
	ZeroOrOne Cardinality = "zero_or_one"
	// ZeroOrMore imports accept a collection of exports.
	ZeroOrMore Cardinality = "zero_or_more"
)

// ValidCardinalities defines the allowed cardinality values.
var ValidCardinalities = map[Cardinality]bool{
	ExactlyOne: true,
	ZeroOrOne:  true,
	ZeroOrMore: true,
}

// ExportDefinition describes a contract a part offers.
type ExportDefinition struct {
	Contract     string `json:"contract"`
	ContractType string `json:"contract_type"`
}

// ImportDefinition describes a contract a part requires.
type ImportDefinition struct {
	Contract     string      `json:"contract"`
	ContractType string      `json:"contract_type"`
	Cardinality  Cardinality `json:"cardinality"`
	Prerequisite bool        `json:"prerequisite"`
}

// GroupPartDefinition describes one part of a group: its type identity, its
// index within the group, and the exports and imports it declares.
//
// Schedule is opaque scheduling metadata (actions and conditions). The
// engine never interprets it, but it participates in structural equality.
type GroupPartDefinition struct {
	Identity string                                    `json:"identity"`
	Index    int                                       `json:"index"`
	Exports  map[ExportRegistrationID]ExportDefinition `json:"exports"`
	Imports  map[ImportRegistrationID]ImportDefinition `json:"imports"`
	Schedule IRObject                                  `json:"schedule,omitempty"`
}

// NewGroupPartDefinition creates a part definition. Maps and metadata are
// copied so later changes by the caller cannot leak into the definition.
func NewGroupPartDefinition(
	identity string,
	index int,
	exports map[ExportRegistrationID]ExportDefinition,
	imports map[ImportRegistrationID]ImportDefinition,
	schedule IRObject,
) GroupPartDefinition {
	p := GroupPartDefinition{
		Identity: identity,
		Index:    index,
		Exports:  make(map[ExportRegistrationID]ExportDefinition, len(exports)),
		Imports:  make(map[ImportRegistrationID]ImportDefinition, len(imports)),
		Schedule: schedule.Clone(),
	}
	maps.Copy(p.Exports, exports)
	maps.Copy(p.Imports, imports)
	return p
}

// RegistrationID returns the part's registration id within its group.
func (p GroupPartDefinition) RegistrationID() PartRegistrationID {
	return PartRegistrationID{Name: p.Identity, Index: p.Index}
}

// SortedExports returns the part's export ids in canonical order.
func (p GroupPartDefinition) SortedExports() []ExportRegistrationID {
	ids := slices.Collect(maps.Keys(p.Exports))
	slices.SortFunc(ids, ExportRegistrationID.Compare)
	return ids
}

// SortedImports returns the part's import ids in canonical order.
func (p GroupPartDefinition) SortedImports() []ImportRegistrationID {
	ids := slices.Collect(maps.Keys(p.Imports))
	slices.SortFunc(ids, ImportRegistrationID.Compare)
	return ids
}

// Equal reports structural equality.
func (p GroupPartDefinition) Equal(other GroupPartDefinition) bool {
	return p.Identity == other.Identity &&
		p.Index == other.Index &&
		maps.Equal(p.Exports, other.Exports) &&
		maps.Equal(p.Imports, other.Imports) &&
		ValuesEqual(p.Schedule, other.Schedule)
}

func (p GroupPartDefinition) clone() GroupPartDefinition {
	return NewGroupPartDefinition(p.Identity, p.Index, p.Exports, p.Imports, p.Schedule)
}

// PartImportToPartExportMap maps one import to the ordered set of exports that
// satisfy it. A collection import may need more than one export.
type PartImportToPartExportMap struct {
	Import  ImportRegistrationID   `json:"import"`
	Exports []ExportRegistrationID `json:"exports"`
}

// NewPartImportToPartExportMap creates a mapping. Duplicate exports are
// dropped; the first occurrence keeps its position.
func NewPartImportToPartExportMap(imp ImportRegistrationID, exports ...ExportRegistrationID) PartImportToPartExportMap {
	seen := make(map[ExportRegistrationID]bool, len(exports))
	ordered := make([]ExportRegistrationID, 0, len(exports))
	for _, e := range exports {
		if seen[e] {
			continue
		}
		seen[e] = true
		ordered = append(ordered, e)
	}
	return PartImportToPartExportMap{Import: imp, Exports: ordered}
}

// Equal reports structural equality. Export order is significant.
func (m PartImportToPartExportMap) Equal(other PartImportToPartExportMap) bool {
	return m.Import == other.Import && slices.Equal(m.Exports, other.Exports)
}

func (m PartImportToPartExportMap) clone() PartImportToPartExportMap {
	return NewPartImportToPartExportMap(m.Import, m.Exports...)
}

func mapsEqual(a, b []PartImportToPartExportMap) bool {
	return slices.EqualFunc(a, b, PartImportToPartExportMap.Equal)
}

func cloneMaps(in []PartImportToPartExportMap) []PartImportToPartExportMap {
	out := make([]PartImportToPartExportMap, len(in))
	for i, m := range in {
		out[i] = m.clone()
	}
	return out
}
