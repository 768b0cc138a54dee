package ir

import (
	"fmt"
	"strings"
)

// ValidationError represents a validation error with field path and message.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the definition's internal consistency.
// Returns all errors (not fail-fast) for better developer experience.
func (d *GroupDefinition) Validate() []ValidationError {
	var errs []ValidationError
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(d.Name) == "" {
		add("name", "group name is required")
	}

	seenParts := make(map[PartRegistrationID]bool, len(d.Parts))
	for i, p := range d.Parts {
		field := fmt.Sprintf("parts[%d]", i)
		if p.Identity == "" {
			add(field+".identity", "part identity is required")
		}
		if strings.Contains(p.Identity, registrationSeparator) {
			add(field+".identity", "part identity %q must not contain %q", p.Identity, registrationSeparator)
		}
		if seenParts[p.RegistrationID()] {
			add(field, "duplicate part registration %s", p.RegistrationID())
		}
		seenParts[p.RegistrationID()] = true

		for _, id := range p.SortedExports() {
			if id.Part() != p.RegistrationID() {
				add(field+".exports."+id.String(), "export is owned by %s, not %s", id.Part(), p.RegistrationID())
			}
			if e := p.Exports[id]; e.Contract != id.Contract {
				add(field+".exports."+id.String(), "contract %q does not match registration contract %q", e.Contract, id.Contract)
			}
		}
		for _, id := range p.SortedImports() {
			imp := p.Imports[id]
			if id.Part() != p.RegistrationID() {
				add(field+".imports."+id.String(), "import is owned by %s, not %s", id.Part(), p.RegistrationID())
			}
			if imp.Contract != id.Contract {
				add(field+".imports."+id.String(), "contract %q does not match registration contract %q", imp.Contract, id.Contract)
			}
			if !ValidCardinalities[imp.Cardinality] {
				add(field+".imports."+id.String()+".cardinality",
					"invalid cardinality %q, must be one of: exactly_one, zero_or_one, zero_or_more", imp.Cardinality)
			}
		}
		if len(p.Schedule) > 0 {
			if _, err := MarshalCanonical(p.Schedule); err != nil {
				add(field+".schedule", "schedule metadata is not canonical: %v", err)
			}
		}
	}

	wired := make(map[ImportRegistrationID]bool, len(d.InternalConnections))
	for i, m := range d.InternalConnections {
		field := fmt.Sprintf("internal_connections[%d]", i)
		if _, ok := d.Import(m.Import); !ok {
			add(field+".import", "import %s is not declared by any part", m.Import)
		}
		if wired[m.Import] {
			add(field+".import", "import %s is wired more than once", m.Import)
		}
		wired[m.Import] = true
		if len(m.Exports) == 0 {
			add(field+".exports", "at least one export is required")
		}
		for j, e := range m.Exports {
			if _, ok := d.Export(e); !ok {
				add(fmt.Sprintf("%s.exports[%d]", field, j), "export %s is not declared by any part", e)
			}
		}
	}

	if e := d.GroupExport; e != nil {
		if e.Contract == "" {
			add("group_export.contract", "group export contract is required")
		}
		if len(e.ProvidedExports) == 0 {
			add("group_export.provided_exports", "at least one provided export is required")
		}
		for j, id := range e.ProvidedExports {
			if _, ok := d.Export(id); !ok {
				add(fmt.Sprintf("group_export.provided_exports[%d]", j), "export %s is not declared by any part", id)
			}
		}
	}

	seenContracts := make(map[string]bool, len(d.GroupImports))
	for i, imp := range d.GroupImports {
		field := fmt.Sprintf("group_imports[%d]", i)
		if imp.Contract == "" {
			add(field+".contract", "group import contract is required")
		}
		if seenContracts[imp.Contract] {
			add(field+".contract", "duplicate group import contract %q", imp.Contract)
		}
		seenContracts[imp.Contract] = true
		if len(imp.ImportsToMatch) == 0 {
			add(field+".imports_to_match", "at least one import is required")
		}
		for j, id := range imp.ImportsToMatch {
			if _, ok := d.Import(id); !ok {
				add(fmt.Sprintf("%s.imports_to_match[%d]", field, j), "import %s is not declared by any part", id)
			}
		}
	}

	return errs
}
