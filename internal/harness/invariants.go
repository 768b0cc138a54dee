package harness

import (
	"fmt"
	"slices"

	"github.com/roach88/groupwire/internal/composition"
	"github.com/roach88/groupwire/internal/testutil"
)

// CheckInvariants verifies the layer's structural invariants:
//   - for every group, satisfied and unsatisfied imports partition its
//     declared group imports
//   - every connection joins two registered groups through an import the
//     importer declares
func CheckInvariants(layer *composition.Layer, ids *testutil.SequentialIDs) []string {
	var violations []string

	for id := range layer.Groups() {
		def, err := layer.Group(id)
		if err != nil {
			violations = append(violations, fmt.Sprintf("group %s listed but not readable: %v", ids.Name(id), err))
			continue
		}
		sat, err := layer.SatisfiedImports(id)
		if err != nil {
			violations = append(violations, err.Error())
			continue
		}
		unsat, err := layer.UnsatisfiedImports(id)
		if err != nil {
			violations = append(violations, err.Error())
			continue
		}

		seen := make(map[string]int, len(def.GroupImports))
		for _, s := range sat {
			seen[s.Import.Contract]++
		}
		for _, u := range unsat {
			seen[u.Contract]++
		}
		for _, imp := range def.GroupImports {
			if seen[imp.Contract] != 1 {
				violations = append(violations, fmt.Sprintf(
					"group %s: import %q appears %d times across satisfied and unsatisfied",
					ids.Name(id), imp.Contract, seen[imp.Contract]))
			}
			delete(seen, imp.Contract)
		}
		for contract := range seen {
			violations = append(violations, fmt.Sprintf("group %s: undeclared import %q reported", ids.Name(id), contract))
		}
	}

	for _, conn := range layer.Connections() {
		if !layer.Contains(conn.Importer) || !layer.Contains(conn.Exporter) {
			violations = append(violations, fmt.Sprintf("connection %s <- %s (%s) has an unregistered endpoint",
				ids.Name(conn.Importer), ids.Name(conn.Exporter), conn.Import.Contract))
			continue
		}
		def, _ := layer.Group(conn.Importer)
		if !def.DeclaresImport(conn.Import) {
			violations = append(violations, fmt.Sprintf("connection %s <- %s: import %q is not declared",
				ids.Name(conn.Importer), ids.Name(conn.Exporter), conn.Import.Contract))
		}
	}

	slices.Sort(violations)
	return violations
}
