package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGroupDefinitionNormalizesOrder(t *testing.T) {
	def := exporterDefinition()

	require.Len(t, def.Parts, 2)
	assert.Equal(t, "Acme.CsvReader", def.Parts[0].Identity)
	assert.Equal(t, "Acme.Stats", def.Parts[1].Identity)
	assert.Equal(t, []ExportRegistrationID{readerRows, readerSchema}, def.GroupExport.ProvidedExports)
}

func TestNewGroupDefinitionCopiesInputs(t *testing.T) {
	parts := exporterParts()
	export := NewGroupExportDefinition("Exporter", "table", readerRows)
	def := NewGroupDefinition("Exporter", parts, nil, export, nil)
	before := def.Clone()

	parts[0].Exports[NewExportRegistrationID("Acme.Stats", 0, "extra")] = ExportDefinition{Contract: "extra"}
	parts[1].Schedule["actions"] = IRArray{}
	export.ProvidedExports[0] = readerSchema

	assert.True(t, def.Equal(before), "caller mutations must not leak into the definition")
}

func TestGroupDefinitionEqual(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *GroupDefinition)
		equal  bool
	}{
		{"identical", func(d *GroupDefinition) {}, true},
		{"name", func(d *GroupDefinition) { d.Name = "Renamed" }, false},
		{"schedule removed", func(d *GroupDefinition) { d.Parts[1].Schedule = nil }, false},
		{"part index", func(d *GroupDefinition) { d.Parts[0].Index = 1 }, false},
		{"export contract type", func(d *GroupDefinition) {
			d.Parts[0].Exports[readerRows] = ExportDefinition{Contract: "rows", ContractType: "Other"}
		}, false},
		{"internal wiring", func(d *GroupDefinition) { d.InternalConnections = nil }, false},
		{"group export", func(d *GroupDefinition) { d.GroupExport = nil }, false},
		{"group imports", func(d *GroupDefinition) {
			d.GroupImports = []GroupImportDefinition{NewGroupImportDefinition("Exporter", "input", statsRows)}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := exporterDefinition()
			tt.mutate(d)
			assert.Equal(t, tt.equal, exporterDefinition().Equal(d))
			assert.Equal(t, tt.equal, d.Equal(exporterDefinition()))
		})
	}
}

func TestGroupDefinitionEqualNil(t *testing.T) {
	var nilDef *GroupDefinition
	assert.True(t, nilDef.Equal(nil))
	assert.False(t, nilDef.Equal(exporterDefinition()))
	assert.False(t, exporterDefinition().Equal(nil))
}

func TestScheduleNilAndEmptyAreEqual(t *testing.T) {
	a := NewGroupPartDefinition("P", 0, nil, nil, nil)
	b := NewGroupPartDefinition("P", 0, nil, nil, IRObject{})
	assert.True(t, a.Equal(b))
}

func TestPartImportToPartExportMapOrderedSet(t *testing.T) {
	m := NewPartImportToPartExportMap(statsRows, readerSchema, readerRows, readerSchema)

	assert.Equal(t, []ExportRegistrationID{readerSchema, readerRows}, m.Exports)
	assert.False(t, m.Equal(NewPartImportToPartExportMap(statsRows, readerRows, readerSchema)),
		"export order is significant")
}

func TestGroupDefinitionLookups(t *testing.T) {
	e := exporterDefinition()
	i := importerDefinition()

	part, ok := e.Part(PartRegistrationID{Name: "Acme.Stats", Index: 0})
	require.True(t, ok)
	assert.Equal(t, "Acme.Stats", part.Identity)

	_, ok = e.Part(PartRegistrationID{Name: "Acme.Stats", Index: 1})
	assert.False(t, ok)

	exp, ok := e.Export(readerSchema)
	require.True(t, ok)
	assert.Equal(t, "Schema", exp.ContractType)

	_, ok = e.Export(NewExportRegistrationID("Acme.CsvReader", 0, "missing"))
	assert.False(t, ok)

	imp, ok := i.Import(writerRows)
	require.True(t, ok)
	assert.True(t, imp.Prerequisite)

	def, ok := i.ImportDefinition("table")
	require.True(t, ok)
	assert.True(t, def.Equal(tableImport()))
	assert.True(t, i.DeclaresImport(tableImport()))
	assert.False(t, i.DeclaresImport(NewGroupImportDefinition("Importer", "table", writerRows)))
	reordered := GroupImportDefinition{Group: "Importer", Contract: "table", ImportsToMatch: []ImportRegistrationID{writerSchema, writerRows}}
	assert.True(t, i.DeclaresImport(reordered), "member order does not matter")
	assert.Equal(t, []ImportRegistrationID{writerSchema, writerRows}, reordered.ImportsToMatch, "DeclaresImport does not reorder its argument")

	assert.True(t, e.ProvidesExport(readerRows))
	assert.False(t, e.ProvidesExport(statsSummary))
	assert.False(t, i.ProvidesExport(readerRows), "group without export provides nothing")
}

func TestGroupDefinitionCanonicalJSONRoundTrip(t *testing.T) {
	original := exporterDefinition()

	data, err := original.CanonicalJSON()
	require.NoError(t, err)

	var decoded GroupDefinition
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.True(t, original.Equal(&decoded))
	assert.Equal(t, MustDefinitionHash(original), MustDefinitionHash(&decoded))
}

func TestGroupConnectionMappedExports(t *testing.T) {
	conn := NewGroupConnection(GroupCompositionIDFrom("i"), GroupCompositionIDFrom("e"), tableImport(),
		NewPartImportToPartExportMap(writerRows, readerRows),
		NewPartImportToPartExportMap(writerSchema, readerSchema, readerRows),
	)

	assert.Equal(t, []ExportRegistrationID{readerRows, readerSchema}, conn.MappedExports())
	assert.True(t, conn.Equal(conn.Clone()))
}
