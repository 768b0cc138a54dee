package testutil

import (
	"github.com/roach88/groupwire/internal/ir"
)

// Registration ids used by the fixture groups.
var (
	ReaderRows   = ir.NewExportRegistrationID("Acme.CsvReader", 0, "rows")
	ReaderSchema = ir.NewExportRegistrationID("Acme.CsvReader", 0, "schema")
	StatsSummary = ir.NewExportRegistrationID("Acme.Stats", 0, "summary")
	StatsRows    = ir.NewImportRegistrationID("Acme.Stats", 0, "rows")
	WriterRows   = ir.NewImportRegistrationID("Acme.Writer", 0, "rows")
	WriterSchema = ir.NewImportRegistrationID("Acme.Writer", 0, "schema")
)

// ExporterGroup returns a two-part group declaring three exports
// (rows, schema, summary). Its group export "table" offers rows and schema.
func ExporterGroup() *ir.GroupDefinition {
	reader := ir.NewGroupPartDefinition("Acme.CsvReader", 0,
		map[ir.ExportRegistrationID]ir.ExportDefinition{
			ReaderRows:   {Contract: "rows", ContractType: "Row"},
			ReaderSchema: {Contract: "schema", ContractType: "Schema"},
		},
		nil,
		ir.IRObject{"actions": ir.IRArray{ir.IRString("read")}},
	)
	stats := ir.NewGroupPartDefinition("Acme.Stats", 0,
		map[ir.ExportRegistrationID]ir.ExportDefinition{
			StatsSummary: {Contract: "summary", ContractType: "Summary"},
		},
		map[ir.ImportRegistrationID]ir.ImportDefinition{
			StatsRows: {Contract: "rows", ContractType: "Row", Cardinality: ir.ZeroOrMore},
		},
		nil,
	)
	return ir.NewGroupDefinition("Exporter",
		[]ir.GroupPartDefinition{reader, stats},
		[]ir.PartImportToPartExportMap{ir.NewPartImportToPartExportMap(StatsRows, ReaderRows)},
		ir.NewGroupExportDefinition("Exporter", "table", ReaderRows, ReaderSchema),
		nil,
	)
}

// TableImport is the single group import of ImporterGroup.
func TableImport() ir.GroupImportDefinition {
	return ir.NewGroupImportDefinition("Importer", "table", WriterRows, WriterSchema)
}

// ImporterGroup returns a one-part group whose group import "table" needs
// two exports.
func ImporterGroup() *ir.GroupDefinition {
	writer := ir.NewGroupPartDefinition("Acme.Writer", 0, nil,
		map[ir.ImportRegistrationID]ir.ImportDefinition{
			WriterRows:   {Contract: "rows", ContractType: "Row", Cardinality: ir.ExactlyOne, Prerequisite: true},
			WriterSchema: {Contract: "schema", ContractType: "Schema", Cardinality: ir.ExactlyOne},
		},
		nil,
	)
	return ir.NewGroupDefinition("Importer", []ir.GroupPartDefinition{writer}, nil, nil,
		[]ir.GroupImportDefinition{TableImport()})
}

// TableConnection wires ImporterGroup's table import to ExporterGroup.
func TableConnection(importer, exporter ir.GroupCompositionID) ir.GroupConnection {
	return ir.NewGroupConnection(importer, exporter, TableImport(),
		ir.NewPartImportToPartExportMap(WriterRows, ReaderRows),
		ir.NewPartImportToPartExportMap(WriterSchema, ReaderSchema),
	)
}

// RelayGroup returns a group that both imports and exports the "table"
// contract, for chains and mixed-role tests.
func RelayGroup() *ir.GroupDefinition {
	in := ir.NewImportRegistrationID("Acme.Relay", 0, "rows")
	out := ir.NewExportRegistrationID("Acme.Relay", 0, "rows")
	relay := ir.NewGroupPartDefinition("Acme.Relay", 0,
		map[ir.ExportRegistrationID]ir.ExportDefinition{out: {Contract: "rows", ContractType: "Row"}},
		map[ir.ImportRegistrationID]ir.ImportDefinition{in: {Contract: "rows", ContractType: "Row", Cardinality: ir.ExactlyOne}},
		nil,
	)
	return ir.NewGroupDefinition("Relay",
		[]ir.GroupPartDefinition{relay},
		nil,
		ir.NewGroupExportDefinition("Relay", "rows", out),
		[]ir.GroupImportDefinition{RelayImport()},
	)
}

// RelayImport is the single group import of RelayGroup.
func RelayImport() ir.GroupImportDefinition {
	return ir.NewGroupImportDefinition("Relay", "rows", ir.NewImportRegistrationID("Acme.Relay", 0, "rows"))
}

// RelayConnection wires a relay's import to another relay's export.
func RelayConnection(importer, exporter ir.GroupCompositionID) ir.GroupConnection {
	return ir.NewGroupConnection(importer, exporter, RelayImport(),
		ir.NewPartImportToPartExportMap(
			ir.NewImportRegistrationID("Acme.Relay", 0, "rows"),
			ir.NewExportRegistrationID("Acme.Relay", 0, "rows"),
		),
	)
}
