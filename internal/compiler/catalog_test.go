package compiler

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/groupwire/internal/ir"
)

// pipelineGroups is a reader/writer catalog without connections.
const pipelineGroups = `
group: Exporter: {
	parts: [{
		type: "Acme.CsvReader"
		exports: [
			{contract: "rows", contract_type: "Row"},
			{contract: "schema", contract_type: "Schema"},
		]
		schedule: {actions: ["read"]}
	}, {
		type: "Acme.Stats"
		exports: [{contract: "summary", contract_type: "Summary"}]
		imports: [{contract: "rows", contract_type: "Row", cardinality: "zero_or_more"}]
	}]
	internal: [{
		import: {part: "Acme.Stats", contract: "rows"}
		exports: [{part: "Acme.CsvReader", contract: "rows"}]
	}]
	export: {
		contract: "table"
		provides: [
			{part: "Acme.CsvReader", contract: "rows"},
			{part: "Acme.CsvReader", contract: "schema"},
		]
	}
}

group: Importer: {
	parts: [{
		type: "Acme.Writer"
		imports: [
			{contract: "rows", contract_type: "Row", prerequisite: true},
			{contract: "schema", contract_type: "Schema"},
		]
	}]
	imports: [{
		contract: "table"
		requires: [
			{part: "Acme.Writer", contract: "rows"},
			{part: "Acme.Writer", contract: "schema"},
		]
	}]
}

instance: reader: "Exporter"
instance: writer: "Importer"
`

// pipelineCatalog wires the writer's table import to the reader.
const pipelineCatalog = pipelineGroups + `
connect: [{importer: "writer", exporter: "reader", import: "table"}]
`

func compileCatalog(t *testing.T, src string) (cue.Value, map[string]*ir.GroupDefinition) {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())

	groups := make(map[string]*ir.GroupDefinition)
	iter, err := v.LookupPath(cue.ParsePath("group")).Fields()
	require.NoError(t, err)
	for iter.Next() {
		def, err := CompileGroup(iter.Value())
		require.NoError(t, err, "group %s", iter.Label())
		groups[def.Name] = def
	}
	return v, groups
}

func writeCatalog(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
	}
	return dir
}

func TestLoadCatalog(t *testing.T) {
	dir := writeCatalog(t, map[string]string{
		"groups.cue":   "package catalog\n" + pipelineGroups,
		"topology.cue": "package catalog\nconnect: [{importer: \"writer\", exporter: \"reader\", import: \"table\"}]\n",
	})

	cat, errs := LoadCatalog(dir)
	require.Empty(t, errs)
	assert.Equal(t, 2, cat.FileCount)
	assert.Equal(t, []string{"Exporter", "Importer"}, cat.GroupNames())
	assert.Len(t, cat.Topology.Instances, 2)
	assert.Len(t, cat.Topology.Connections, 1)
}

func TestLoadCatalogCollectsGroupErrors(t *testing.T) {
	dir := writeCatalog(t, map[string]string{
		"bad.cue": `package catalog
group: A: {}
group: B: parts: [{index: 0}]
group: C: parts: [{type: "Acme.Ok"}]
`,
	})

	cat, errs := LoadCatalog(dir)
	require.Len(t, errs, 2)
	assert.Contains(t, cat.Groups, "C")

	var ce *CompileError
	require.True(t, errors.As(errs[0], &ce))
	assert.Equal(t, "group.A.parts", ce.Field)
	require.True(t, errors.As(errs[1], &ce))
	assert.Equal(t, "group.B.parts[0].type", ce.Field)
}

func TestLoadCatalogErrors(t *testing.T) {
	_, errs := LoadCatalog(filepath.Join(t.TempDir(), "missing"))
	require.Len(t, errs, 1)

	_, errs = LoadCatalog(t.TempDir())
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrNoCUEFiles)

	dir := writeCatalog(t, map[string]string{"broken.cue": "package catalog\ngroup: {"})
	_, errs = LoadCatalog(dir)
	require.Len(t, errs, 1)
}
