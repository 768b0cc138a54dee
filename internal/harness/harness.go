package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/groupwire/internal/compiler"
	"github.com/roach88/groupwire/internal/composition"
	"github.com/roach88/groupwire/internal/ir"
	"github.com/roach88/groupwire/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios against a fresh layer with deterministic instance ids.
type Harness struct {
	layer   *composition.Layer
	catalog *compiler.Catalog
	ids     *testutil.SequentialIDs
	logger  *slog.Logger
}

// errScenario marks a step the scenario itself got wrong (unknown group name,
// unpairable connection), as opposed to a layer error the step may expect.
var errScenario = errors.New("scenario error")

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Load and compile the scenario's CUE catalog
// 2. Create a fresh layer (with or without history)
// 3. Execute steps, matching each against its expect_error
// 4. Check layer invariants after every step
// 5. Evaluate assertions and snapshot the final state
func Run(scenario *Scenario) (*Result, error) {
	cat, errs := compiler.LoadCatalog(scenario.Catalog)
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to load catalog %s: %w", scenario.Catalog, errors.Join(errs...))
	}
	return RunCatalog(scenario, cat)
}

// RunCatalog executes a scenario against an already compiled catalog.
func RunCatalog(scenario *Scenario, cat *compiler.Catalog) (*Result, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	opts := []composition.Option{composition.WithLogger(logger)}

	layer := composition.New(opts...)
	if !scenario.HistoryEnabled() {
		layer = composition.NewWithoutHistory(opts...)
	}

	h := &Harness{
		layer:   layer,
		catalog: cat,
		ids:     testutil.NewSequentialIDs("group"),
		logger:  logger,
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		err := h.execute(step)
		if errors.Is(err, errScenario) {
			return nil, fmt.Errorf("steps[%d] (%s): %w", i, step.Op(), err)
		}

		code := string(composition.CodeOf(err))
		if err != nil && code == "" {
			return nil, fmt.Errorf("steps[%d] (%s): %w", i, step.Op(), err)
		}
		result.AddStep(i, step.Op(), code)

		if code != step.ExpectError {
			result.AddError(fmt.Sprintf("steps[%d] (%s): expected error %q, got %q", i, step.Op(), step.ExpectError, code))
		}
		for _, violation := range CheckInvariants(h.layer, h.ids) {
			result.AddError(fmt.Sprintf("steps[%d] (%s): invariant violated: %s", i, step.Op(), violation))
		}

		h.logger.Info("step completed", "step", i, "op", step.Op(), "code", code)
	}

	for _, msg := range EvaluateAssertions(h.layer, h.ids, scenario.Assertions) {
		result.AddError(msg)
	}

	result.Snapshot = TakeSnapshot(h.layer, h.ids)
	result.Snapshot.Steps = result.Steps
	return result, nil
}

// execute performs one step against the layer.
func (h *Harness) execute(step Step) error {
	switch step.Op() {
	case StepBuild:
		return h.build()
	case StepAdd:
		return h.add(step.Add.Instance, step.Add.Group)
	case StepRemove:
		return h.layer.Remove(h.ids.For(step.Remove))
	case StepConnect:
		conn, err := h.connection(step.Connect)
		if err != nil {
			return err
		}
		return h.layer.Connect(conn)
	case StepDisconnect:
		return h.layer.Disconnect(h.ids.For(step.Disconnect.Importer), h.ids.For(step.Disconnect.Exporter))
	case StepDisconnectImport:
		return h.layer.DisconnectImport(h.ids.For(step.DisconnectImport.Importer), step.DisconnectImport.Import)
	case StepDisconnectAll:
		return h.layer.DisconnectAll(h.ids.For(step.DisconnectAll))
	case StepUndo:
		return h.layer.Undo()
	case StepRedo:
		return h.layer.Redo()
	default:
		return fmt.Errorf("%w: no operation", errScenario)
	}
}

// build adds every topology instance and requests every topology connection.
// The first failure ends the build; earlier operations stay applied.
func (h *Harness) build() error {
	topo := h.catalog.Topology
	for _, in := range topo.Instances {
		if err := h.add(in.Name, in.Group); err != nil {
			return err
		}
	}
	for _, req := range topo.Connections {
		conn := req.Connection(h.ids.For(req.Importer), h.ids.For(req.Exporter))
		if err := h.layer.Connect(conn); err != nil {
			return err
		}
	}
	return nil
}

func (h *Harness) add(instance, group string) error {
	if group == "" {
		in, ok := h.catalog.Topology.Instance(instance)
		if !ok {
			return fmt.Errorf("%w: instance %q has no group and is not in the topology", errScenario, instance)
		}
		group = in.Group
	}
	def, ok := h.catalog.Groups[group]
	if !ok {
		return fmt.Errorf("%w: unknown group %q", errScenario, group)
	}
	return h.layer.Add(h.ids.For(instance), def)
}

// connection builds the connection a connect step asks for. The import
// definition comes from the importer's registered group; if the importer is
// unknown or does not declare the contract, a bare definition is used so
// the layer reports the error.
func (h *Harness) connection(step *ConnectStep) (ir.GroupConnection, error) {
	importer, exporter := h.ids.For(step.Importer), h.ids.For(step.Exporter)

	imp := ir.NewGroupImportDefinition(step.Importer, step.Import)
	if def, err := h.layer.Group(importer); err == nil {
		if declared, ok := def.ImportDefinition(step.Import); ok {
			imp = declared
		}
	}

	if len(step.Map) > 0 {
		mappings, err := parseMap(step.Map)
		if err != nil {
			return ir.GroupConnection{}, err
		}
		return ir.NewGroupConnection(importer, exporter, imp, mappings...), nil
	}

	exporterDef, err := h.layer.Group(exporter)
	if err != nil || len(imp.ImportsToMatch) == 0 {
		return ir.NewGroupConnection(importer, exporter, imp), nil
	}
	mappings, err := compiler.PairByContract(imp, exporterDef)
	if err != nil {
		return ir.GroupConnection{}, fmt.Errorf("%w: %v", errScenario, err)
	}
	return ir.NewGroupConnection(importer, exporter, imp, mappings...), nil
}

func parseMap(entries []MapEntry) ([]ir.PartImportToPartExportMap, error) {
	out := make([]ir.PartImportToPartExportMap, 0, len(entries))
	for i, e := range entries {
		var imp ir.ImportRegistrationID
		if err := imp.UnmarshalText([]byte(e.Import)); err != nil {
			return nil, fmt.Errorf("%w: map[%d].import: %v", errScenario, i, err)
		}
		exports := make([]ir.ExportRegistrationID, len(e.Exports))
		for j, s := range e.Exports {
			if err := exports[j].UnmarshalText([]byte(s)); err != nil {
				return nil, fmt.Errorf("%w: map[%d].exports[%d]: %v", errScenario, i, j, err)
			}
		}
		out = append(out, ir.NewPartImportToPartExportMap(imp, exports...))
	}
	return out, nil
}
