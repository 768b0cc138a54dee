package ir

import "slices"

// GroupConnection is one edge of the composition graph: Importer's import
// contract is satisfied by Exporter, realized by the part-level Mappings.
type GroupConnection struct {
	Importer GroupCompositionID          `json:"importer"`
	Exporter GroupCompositionID          `json:"exporter"`
	Import   GroupImportDefinition       `json:"import"`
	Mappings []PartImportToPartExportMap `json:"mappings"`
}

// NewGroupConnection creates a connection. The import definition and mappings
// are copied; mapping order is kept.
func NewGroupConnection(
	importer, exporter GroupCompositionID,
	imp GroupImportDefinition,
	mappings ...PartImportToPartExportMap,
) GroupConnection {
	return GroupConnection{
		Importer: importer,
		Exporter: exporter,
		Import:   imp.Clone(),
		Mappings: cloneMaps(mappings),
	}
}

// Equal reports structural equality.
func (c GroupConnection) Equal(other GroupConnection) bool {
	return c.Importer == other.Importer &&
		c.Exporter == other.Exporter &&
		c.Import.Equal(other.Import) &&
		mapsEqual(c.Mappings, other.Mappings)
}

// Compare orders connections by importer, then import contract.
func (c GroupConnection) Compare(other GroupConnection) int {
	if n := c.Importer.Compare(other.Importer); n != 0 {
		return n
	}
	if c.Import.Contract < other.Import.Contract {
		return -1
	}
	if c.Import.Contract > other.Import.Contract {
		return 1
	}
	return 0
}

// MappedExports returns every export referenced by the mappings, in mapping
// order, without duplicates.
func (c GroupConnection) MappedExports() []ExportRegistrationID {
	var out []ExportRegistrationID
	for _, m := range c.Mappings {
		for _, e := range m.Exports {
			if !slices.Contains(out, e) {
				out = append(out, e)
			}
		}
	}
	return out
}

// Clone returns a deep copy.
func (c GroupConnection) Clone() GroupConnection {
	return NewGroupConnection(c.Importer, c.Exporter, c.Import, c.Mappings...)
}

func (c GroupConnection) toIR() IRObject {
	mappings := make(IRArray, len(c.Mappings))
	for i, m := range c.Mappings {
		mappings[i] = mapToIR(m)
	}
	return IRObject{
		"importer": IRString(c.Importer.String()),
		"exporter": IRString(c.Exporter.String()),
		"import": IRObject{
			"group":            IRString(c.Import.Group),
			"contract":         IRString(c.Import.Contract),
			"imports_to_match": idsToIR(c.Import.ImportsToMatch),
		},
		"mappings": mappings,
	}
}

// CanonicalJSON returns the RFC 8785 encoding hashed by ConnectionHash.
func (c GroupConnection) CanonicalJSON() ([]byte, error) {
	return MarshalCanonical(c.toIR())
}
