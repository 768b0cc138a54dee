package ir

var (
	readerRows   = NewExportRegistrationID("Acme.CsvReader", 0, "rows")
	readerSchema = NewExportRegistrationID("Acme.CsvReader", 0, "schema")
	statsSummary = NewExportRegistrationID("Acme.Stats", 0, "summary")
	statsRows    = NewImportRegistrationID("Acme.Stats", 0, "rows")
	writerRows   = NewImportRegistrationID("Acme.Writer", 0, "rows")
	writerSchema = NewImportRegistrationID("Acme.Writer", 0, "schema")
)

// exporterParts returns the two parts of the exporting test group in
// non-canonical order.
func exporterParts() []GroupPartDefinition {
	stats := NewGroupPartDefinition("Acme.Stats", 0,
		map[ExportRegistrationID]ExportDefinition{
			statsSummary: {Contract: "summary", ContractType: "Summary"},
		},
		map[ImportRegistrationID]ImportDefinition{
			statsRows: {Contract: "rows", ContractType: "Row", Cardinality: ZeroOrMore},
		},
		IRObject{"actions": IRArray{IRString("aggregate")}},
	)
	reader := NewGroupPartDefinition("Acme.CsvReader", 0,
		map[ExportRegistrationID]ExportDefinition{
			readerRows:   {Contract: "rows", ContractType: "Row"},
			readerSchema: {Contract: "schema", ContractType: "Schema"},
		},
		nil,
		IRObject{"actions": IRArray{IRString("read")}},
	)
	return []GroupPartDefinition{stats, reader}
}

func exporterDefinition() *GroupDefinition {
	return NewGroupDefinition("Exporter",
		exporterParts(),
		[]PartImportToPartExportMap{NewPartImportToPartExportMap(statsRows, readerRows)},
		NewGroupExportDefinition("Exporter", "table", readerSchema, readerRows),
		nil,
	)
}

func tableImport() GroupImportDefinition {
	return NewGroupImportDefinition("Importer", "table", writerSchema, writerRows)
}

func importerDefinition() *GroupDefinition {
	writer := NewGroupPartDefinition("Acme.Writer", 0, nil,
		map[ImportRegistrationID]ImportDefinition{
			writerRows:   {Contract: "rows", ContractType: "Row", Cardinality: ExactlyOne, Prerequisite: true},
			writerSchema: {Contract: "schema", ContractType: "Schema", Cardinality: ExactlyOne},
		},
		nil,
	)
	return NewGroupDefinition("Importer", []GroupPartDefinition{writer}, nil, nil,
		[]GroupImportDefinition{tableImport()})
}
