package harness

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/groupwire/internal/composition"
	"github.com/roach88/groupwire/internal/ir"
	"github.com/roach88/groupwire/internal/testutil"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Index    int
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertions[%d] (%s): expected %s, got %s", e.Index, e.Type, e.Expected, e.Actual)
}

// EvaluateAssertions checks every assertion against the final layer state and
// returns one message per failure.
func EvaluateAssertions(layer *composition.Layer, ids *testutil.SequentialIDs, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(layer, ids, a); err != nil {
			var ae *AssertionError
			if errors.As(err, &ae) {
				ae.Index = i
			}
			failures = append(failures, err.Error())
		}
	}
	return failures
}

func evaluate(layer *composition.Layer, ids *testutil.SequentialIDs, a Assertion) error {
	switch a.Type {
	case AssertSatisfied:
		sat, err := layer.SatisfiedImports(ids.For(a.Instance))
		if err != nil {
			return mismatch(a, "registered instance "+a.Instance, string(composition.CodeOf(err)))
		}
		contracts := make([]string, len(sat))
		for i, s := range sat {
			contracts[i] = s.Import.Contract
		}
		return compareSets(a, a.Imports, contracts)

	case AssertUnsatisfied:
		unsat, err := layer.UnsatisfiedImports(ids.For(a.Instance))
		if err != nil {
			return mismatch(a, "registered instance "+a.Instance, string(composition.CodeOf(err)))
		}
		return compareSets(a, a.Imports, importContracts(unsat))

	case AssertGroups:
		var got []string
		for id := range layer.Groups() {
			got = append(got, ids.Name(id))
		}
		return compareSets(a, a.Instances, got)

	case AssertSameDefinition:
		var first *ir.GroupDefinition
		for _, name := range a.Instances {
			def, err := layer.Group(ids.For(name))
			if err != nil {
				return mismatch(a, "registered instance "+name, string(composition.CodeOf(err)))
			}
			if first == nil {
				first = def
			} else if def != first {
				return mismatch(a, "one shared definition", name+" holds a different definition")
			}
		}
		return nil

	case AssertDistinctDefinitions:
		if got := layer.DistinctDefinitions(); got != *a.Count {
			return mismatch(a, fmt.Sprint(*a.Count), fmt.Sprint(got))
		}
		return nil

	case AssertDependents:
		deps, err := layer.Dependents(ids.For(a.Instance))
		if err != nil {
			return mismatch(a, "registered instance "+a.Instance, string(composition.CodeOf(err)))
		}
		return compareSets(a, a.Instances, names(ids, deps))

	case AssertFullyWired:
		if got := layer.IsFullyWired(); got != *a.Value {
			return mismatch(a, fmt.Sprint(*a.Value), fmt.Sprint(got))
		}
		return nil

	case AssertOrder:
		order, err := layer.InstantiationOrder()
		if err != nil {
			return mismatch(a, "an order", err.Error())
		}
		got := names(ids, order)
		if !slices.Equal(got, a.Instances) {
			return mismatch(a, format(a.Instances), format(got))
		}
		return nil

	case AssertCycle:
		_, err := layer.InstantiationOrder()
		var ce *composition.Error
		if !errors.As(err, &ce) || ce.Code != composition.CodeCompositionCycle {
			return mismatch(a, "a composition cycle", "no cycle")
		}
		if len(a.Instances) == 0 {
			return nil
		}
		members := names(ids, ce.Cycle[:len(ce.Cycle)-1])
		return compareSets(a, a.Instances, members)

	default:
		return fmt.Errorf("assertions: unknown type %q", a.Type)
	}
}

// compareSets compares two name lists ignoring order.
func compareSets(a Assertion, expected, actual []string) error {
	want := slices.Sorted(slices.Values(expected))
	got := slices.Sorted(slices.Values(actual))
	if !slices.Equal(want, got) {
		return mismatch(a, format(want), format(got))
	}
	return nil
}

func mismatch(a Assertion, expected, actual string) error {
	return &AssertionError{Type: a.Type, Expected: expected, Actual: actual}
}

func names(ids *testutil.SequentialIDs, in []ir.GroupCompositionID) []string {
	out := make([]string, len(in))
	for i, id := range in {
		out[i] = ids.Name(id)
	}
	return out
}

func importContracts(imps []ir.GroupImportDefinition) []string {
	out := make([]string, len(imps))
	for i, imp := range imps {
		out[i] = imp.Contract
	}
	return out
}

func format(list []string) string {
	return "[" + strings.Join(list, ", ") + "]"
}
