package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/groupwire/internal/ir"
	"github.com/roach88/groupwire/internal/testutil"
)

func TestValidateGroupValid(t *testing.T) {
	assert.Empty(t, Validate(testutil.ExporterGroup()))
	assert.Empty(t, Validate(*testutil.ImporterGroup()))
}

func TestValidateUnsupportedType(t *testing.T) {
	errs := Validate("not a group")
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnsupportedIRType, errs[0].Code)
}

func TestValidateGroupCodes(t *testing.T) {
	bogus := ir.NewExportRegistrationID("Acme.Missing", 0, "rows")
	misowned := ir.NewImportRegistrationID("Acme.Other", 0, "rows")

	part := ir.NewGroupPartDefinition("Acme|Bad", 0,
		map[ir.ExportRegistrationID]ir.ExportDefinition{
			ir.NewExportRegistrationID("Acme|Bad", 0, "out"): {Contract: "different"},
		},
		map[ir.ImportRegistrationID]ir.ImportDefinition{
			misowned: {Contract: "rows", Cardinality: "many"},
		},
		nil,
	)
	def := ir.NewGroupDefinition("", []ir.GroupPartDefinition{part, part},
		[]ir.PartImportToPartExportMap{{Import: misowned}},
		ir.NewGroupExportDefinition("G", "out", bogus),
		[]ir.GroupImportDefinition{ir.NewGroupImportDefinition("G", "in")},
	)

	codes := make(map[string]bool)
	for _, e := range Validate(def) {
		codes[e.Code] = true
		assert.NotEqual(t, ErrUnsupportedIRType, e.Code, "unmapped field %q", e.Field)
	}

	for _, code := range []string{
		ErrGroupNameEmpty,
		ErrInvalidPartIdentity,
		ErrDuplicatePart,
		ErrRegistrationMismatch,
		ErrInvalidCardinality,
		ErrInvalidInternalWiring,
		ErrInvalidGroupExport,
		ErrInvalidGroupImport,
	} {
		assert.True(t, codes[code], "expected code %s", code)
	}
}

func TestValidationErrorFormat(t *testing.T) {
	e := ValidationError{Field: "name", Message: "group name is required", Code: ErrGroupNameEmpty}
	assert.Equal(t, "[E101] name: group name is required", e.Error())

	e.Line = 7
	assert.Equal(t, "[E101] line 7: name: group name is required", e.Error())
}

func TestValidateTopology(t *testing.T) {
	v, groups := compileCatalog(t, pipelineCatalog)
	topo, err := CompileTopology(v, groups)
	require.NoError(t, err)
	assert.Empty(t, ValidateTopology(topo, groups))

	// Hand-edited topologies can still go wrong after compilation.
	broken := &Topology{
		Instances: append(topo.Instances, Instance{Name: "zed", Group: "Missing"}),
		Connections: []ConnectRequest{
			topo.Connections[0],
			topo.Connections[0],
			{Importer: "ghost", Exporter: "reader", Import: testutil.TableImport()},
			{Importer: "reader", Exporter: "writer", Import: testutil.TableImport()},
		},
	}

	codes := make(map[string]int)
	for _, e := range ValidateTopology(broken, groups) {
		codes[e.Code]++
	}
	assert.Equal(t, 1, codes[ErrUnknownInstanceGroup])
	assert.Equal(t, 1, codes[ErrDuplicateConnection])
	assert.Equal(t, 1, codes[ErrUnknownInstance])
	assert.Equal(t, 1, codes[ErrUnmatchedConnectImport])
}
