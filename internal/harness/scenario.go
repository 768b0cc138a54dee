package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a composition test scenario.
// A scenario builds a layer from a CUE catalog by executing steps, then
// asserts on the resulting wiring.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalog is the path to a CUE catalog directory.
	// Relative paths are resolved against the scenario file location.
	Catalog string `yaml:"catalog"`

	// History enables the undo timeline. Defaults to true.
	History *bool `yaml:"history,omitempty"`

	// Steps are executed in order against one layer.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final layer state.
	Assertions []Assertion `yaml:"assertions"`
}

// HistoryEnabled reports whether the scenario runs with the undo timeline.
func (s *Scenario) HistoryEnabled() bool {
	return s.History == nil || *s.History
}

// Step is one layer mutation. Exactly one operation field must be set.
type Step struct {
	// Build adds every topology instance (in name order) and then requests
	// every topology connection (in catalog order). It is not atomic: it
	// stops at the first failing operation, leaving the earlier ones
	// applied, and the step records that operation's error code.
	Build bool `yaml:"build,omitempty"`

	Add              *AddStep              `yaml:"add,omitempty"`
	Remove           string                `yaml:"remove,omitempty"`
	Connect          *ConnectStep          `yaml:"connect,omitempty"`
	Disconnect       *DisconnectStep       `yaml:"disconnect,omitempty"`
	DisconnectImport *DisconnectImportStep `yaml:"disconnect_import,omitempty"`
	DisconnectAll    string                `yaml:"disconnect_all,omitempty"`
	Undo             bool                  `yaml:"undo,omitempty"`
	Redo             bool                  `yaml:"redo,omitempty"`

	// ExpectError is the error code the step must fail with.
	// If empty, the step must succeed.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// AddStep registers an instance. Group defaults to the topology's group for
// the instance.
type AddStep struct {
	Instance string `yaml:"instance"`
	Group    string `yaml:"group,omitempty"`
}

// ConnectStep requests a connection. Without Map, imports are paired with
// the exporter's provided exports by contract.
type ConnectStep struct {
	Importer string     `yaml:"importer"`
	Exporter string     `yaml:"exporter"`
	Import   string     `yaml:"import"`
	Map      []MapEntry `yaml:"map,omitempty"`
}

// MapEntry is an explicit import-to-exports mapping in registration id form
// ("Part|index|contract").
type MapEntry struct {
	Import  string   `yaml:"import"`
	Exports []string `yaml:"exports"`
}

// DisconnectStep severs every edge between two instances.
type DisconnectStep struct {
	Importer string `yaml:"importer"`
	Exporter string `yaml:"exporter"`
}

// DisconnectImportStep severs the edge satisfying one import contract.
type DisconnectImportStep struct {
	Importer string `yaml:"importer"`
	Import   string `yaml:"import"`
}

// Op names the step's operation.
func (s Step) Op() string {
	switch {
	case s.Build:
		return StepBuild
	case s.Add != nil:
		return StepAdd
	case s.Remove != "":
		return StepRemove
	case s.Connect != nil:
		return StepConnect
	case s.Disconnect != nil:
		return StepDisconnect
	case s.DisconnectImport != nil:
		return StepDisconnectImport
	case s.DisconnectAll != "":
		return StepDisconnectAll
	case s.Undo:
		return StepUndo
	case s.Redo:
		return StepRedo
	default:
		return ""
	}
}

func (s Step) opCount() int {
	n := 0
	for _, set := range []bool{
		s.Build, s.Add != nil, s.Remove != "", s.Connect != nil, s.Disconnect != nil,
		s.DisconnectImport != nil, s.DisconnectAll != "", s.Undo, s.Redo,
	} {
		if set {
			n++
		}
	}
	return n
}

// Step operation names.
const (
	StepBuild            = "build"
	StepAdd              = "add"
	StepRemove           = "remove"
	StepConnect          = "connect"
	StepDisconnect       = "disconnect"
	StepDisconnectImport = "disconnect_import"
	StepDisconnectAll    = "disconnect_all"
	StepUndo             = "undo"
	StepRedo             = "redo"
)

// Assertion validates the final layer state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "satisfied": Instance's satisfied import contracts are exactly Imports
	// - "unsatisfied": Instance's unsatisfied import contracts are exactly Imports
	// - "groups": registered instances are exactly Instances
	// - "same_definition": all Instances share one interned definition
	// - "distinct_definitions": the definition store holds Count entries
	// - "dependents": Instance's dependents are exactly Instances
	// - "fully_wired": IsFullyWired equals Value
	// - "order": instantiation order equals Instances
	// - "cycle": instantiation order fails with a cycle through Instances
	Type string `yaml:"type"`

	Instance  string   `yaml:"instance,omitempty"`
	Instances []string `yaml:"instances,omitempty"`
	Imports   []string `yaml:"imports,omitempty"`
	Count     *int     `yaml:"count,omitempty"`
	Value     *bool    `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertSatisfied           = "satisfied"
	AssertUnsatisfied         = "unsatisfied"
	AssertGroups              = "groups"
	AssertSameDefinition      = "same_definition"
	AssertDistinctDefinitions = "distinct_definitions"
	AssertDependents          = "dependents"
	AssertFullyWired          = "fully_wired"
	AssertOrder               = "order"
	AssertCycle               = "cycle"
)

// LoadScenario reads and parses a scenario YAML file.
// Relative catalog paths are resolved against the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Catalog != "" && !filepath.IsAbs(scenario.Catalog) {
		scenario.Catalog = filepath.Join(filepath.Dir(path), scenario.Catalog)
	}
	if _, err := os.Stat(scenario.Catalog); err != nil {
		return nil, &CatalogNotFoundError{Scenario: scenario.Name, ResolvedPath: scenario.Catalog}
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML without resolving the catalog path.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Catalog == "" {
		return fmt.Errorf("catalog is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s Step) error {
	switch s.opCount() {
	case 0:
		return fmt.Errorf("steps[%d]: no operation given", index)
	case 1:
	default:
		return fmt.Errorf("steps[%d]: exactly one operation is allowed", index)
	}

	switch {
	case s.Add != nil && s.Add.Instance == "":
		return fmt.Errorf("steps[%d].add: instance is required", index)
	case s.Connect != nil && (s.Connect.Importer == "" || s.Connect.Exporter == "" || s.Connect.Import == ""):
		return fmt.Errorf("steps[%d].connect: importer, exporter and import are required", index)
	case s.Disconnect != nil && (s.Disconnect.Importer == "" || s.Disconnect.Exporter == ""):
		return fmt.Errorf("steps[%d].disconnect: importer and exporter are required", index)
	case s.DisconnectImport != nil && (s.DisconnectImport.Importer == "" || s.DisconnectImport.Import == ""):
		return fmt.Errorf("steps[%d].disconnect_import: importer and import are required", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertSatisfied, AssertUnsatisfied, AssertDependents:
		if a.Instance == "" {
			return fmt.Errorf("assertions[%d]: instance is required for %s", index, a.Type)
		}
	case AssertGroups, AssertOrder, AssertCycle:
	case AssertSameDefinition:
		if len(a.Instances) < 2 {
			return fmt.Errorf("assertions[%d]: at least two instances are required for same_definition", index)
		}
	case AssertDistinctDefinitions:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for distinct_definitions", index)
		}
	case AssertFullyWired:
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for fully_wired", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// CatalogNotFoundError is returned when a scenario's catalog directory
// doesn't exist.
type CatalogNotFoundError struct {
	Scenario     string
	ResolvedPath string
}

// Error implements the error interface.
func (e *CatalogNotFoundError) Error() string {
	return fmt.Sprintf("scenario %q references catalog %s which does not exist", e.Scenario, e.ResolvedPath)
}
