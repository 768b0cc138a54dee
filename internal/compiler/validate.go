package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/groupwire/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedIRType = "E100" // unsupported IR type for validation

	// GroupDefinition errors (E101-E109)
	ErrGroupNameEmpty         = "E101" // group name is required
	ErrInvalidPartIdentity    = "E102" // empty or malformed part identity
	ErrDuplicatePart          = "E103" // duplicate part registration
	ErrRegistrationMismatch   = "E104" // export/import keyed under the wrong part or contract
	ErrInvalidCardinality     = "E105" // unknown import cardinality
	ErrInvalidInternalWiring  = "E106" // internal connection references undeclared points
	ErrInvalidGroupExport     = "E107" // group export empty or undeclared
	ErrInvalidGroupImport     = "E108" // group import empty, duplicated, or undeclared
	ErrNonCanonicalSchedule   = "E109" // schedule metadata cannot be canonically encoded
	ErrUnknownInstanceGroup   = "E110" // instance names an unknown group
	ErrUnknownInstance        = "E111" // connection names an unknown instance
	ErrDuplicateConnection    = "E112" // import contract wired more than once
	ErrUnmatchedConnectImport = "E113" // connection import not declared by the importer
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates compiled IR against schema rules.
// Returns all errors found (does not fail-fast).
// Supports GroupDefinition; topologies are checked by ValidateTopology.
func Validate(v any) []ValidationError {
	switch def := v.(type) {
	case *ir.GroupDefinition:
		return validateGroup(def)
	case ir.GroupDefinition:
		return validateGroup(&def)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported IR type: %T", v),
			Code:    ErrUnsupportedIRType,
		}}
	}
}

func validateGroup(def *ir.GroupDefinition) []ValidationError {
	var errs []ValidationError
	for _, e := range def.Validate() {
		errs = append(errs, ValidationError{
			Field:   e.Field,
			Message: e.Message,
			Code:    codeForField(e.Field),
		})
	}
	return errs
}

// codeForField maps a definition validation field path to its error code.
func codeForField(field string) string {
	switch {
	case field == "name":
		return ErrGroupNameEmpty
	case strings.HasPrefix(field, "internal_connections"):
		return ErrInvalidInternalWiring
	case strings.HasPrefix(field, "group_export"):
		return ErrInvalidGroupExport
	case strings.HasPrefix(field, "group_imports"):
		return ErrInvalidGroupImport
	case strings.HasSuffix(field, ".identity"):
		return ErrInvalidPartIdentity
	case strings.HasSuffix(field, ".cardinality"):
		return ErrInvalidCardinality
	case strings.HasSuffix(field, ".schedule"):
		return ErrNonCanonicalSchedule
	case strings.Contains(field, ".exports.") || strings.Contains(field, ".imports."):
		return ErrRegistrationMismatch
	case strings.HasPrefix(field, "parts["):
		return ErrDuplicatePart
	default:
		return ErrUnsupportedIRType
	}
}

// ValidateTopology checks a topology against the catalog's groups: every
// instance names a known group, every connection names known instances and an
// import the importer declares, and no import contract is wired twice.
func ValidateTopology(topo *Topology, groups map[string]*ir.GroupDefinition) []ValidationError {
	var errs []ValidationError

	for _, in := range topo.Instances {
		if _, ok := groups[in.Group]; !ok {
			errs = append(errs, ValidationError{
				Field:   "instance." + in.Name,
				Message: fmt.Sprintf("unknown group %q", in.Group),
				Code:    ErrUnknownInstanceGroup,
			})
		}
	}

	type wiredKey struct{ importer, contract string }
	wired := make(map[wiredKey]int)
	for i, req := range topo.Connections {
		field := fmt.Sprintf("connect[%d]", i)
		importer, iok := topo.Instance(req.Importer)
		if !iok {
			errs = append(errs, ValidationError{
				Field:   field + ".importer",
				Message: fmt.Sprintf("unknown instance %q", req.Importer),
				Code:    ErrUnknownInstance,
			})
		}
		if _, ok := topo.Instance(req.Exporter); !ok {
			errs = append(errs, ValidationError{
				Field:   field + ".exporter",
				Message: fmt.Sprintf("unknown instance %q", req.Exporter),
				Code:    ErrUnknownInstance,
			})
		}
		if iok {
			if def, ok := groups[importer.Group]; ok && !def.DeclaresImport(req.Import) {
				errs = append(errs, ValidationError{
					Field:   field + ".import",
					Message: fmt.Sprintf("group %q does not declare import %q", importer.Group, req.Import.Contract),
					Code:    ErrUnmatchedConnectImport,
				})
			}
		}

		key := wiredKey{req.Importer, req.Import.Contract}
		if first, dup := wired[key]; dup {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("import %q of %q already wired by connect[%d]", req.Import.Contract, req.Importer, first),
				Code:    ErrDuplicateConnection,
			})
			continue
		}
		wired[key] = i
	}

	return errs
}
