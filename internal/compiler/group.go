package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/groupwire/internal/ir"
)

// CompileGroup parses a CUE value into a GroupDefinition.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the group struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`group: Reader: { parts: [...] }`)
//	def, err := CompileGroup(v.LookupPath(cue.ParsePath("group.Reader")))
//
// The group name is taken from the struct label.
func CompileGroup(v cue.Value) (*ir.GroupDefinition, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	var name string
	if labels := v.Path().Selectors(); len(labels) > 0 {
		name = strings.Trim(labels[len(labels)-1].String(), `"`)
	}

	parts, err := parseParts(v)
	if err != nil {
		return nil, err
	}

	var internal []ir.PartImportToPartExportMap
	if iv := v.LookupPath(cue.ParsePath("internal")); iv.Exists() {
		internal, err = parseMappings(iv, "internal")
		if err != nil {
			return nil, err
		}
	}

	var export *ir.GroupExportDefinition
	if ev := v.LookupPath(cue.ParsePath("export")); ev.Exists() {
		contract, err := requiredString(ev, "contract", "export.contract")
		if err != nil {
			return nil, err
		}
		provides, err := parseExportRefs(ev.LookupPath(cue.ParsePath("provides")), "export.provides")
		if err != nil {
			return nil, err
		}
		export = ir.NewGroupExportDefinition(name, contract, provides...)
	}

	var imports []ir.GroupImportDefinition
	if iv := v.LookupPath(cue.ParsePath("imports")); iv.Exists() {
		iter, err := iv.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for i := 0; iter.Next(); i++ {
			field := fmt.Sprintf("imports[%d]", i)
			contract, err := requiredString(iter.Value(), "contract", field+".contract")
			if err != nil {
				return nil, err
			}
			requires, err := parseImportRefs(iter.Value().LookupPath(cue.ParsePath("requires")), field+".requires")
			if err != nil {
				return nil, err
			}
			imports = append(imports, ir.NewGroupImportDefinition(name, contract, requires...))
		}
	}

	return ir.NewGroupDefinition(name, parts, internal, export, imports), nil
}

// parseParts extracts the part list. At least one part is required.
func parseParts(v cue.Value) ([]ir.GroupPartDefinition, error) {
	partsVal := v.LookupPath(cue.ParsePath("parts"))
	if !partsVal.Exists() {
		return nil, &CompileError{
			Field:   "parts",
			Message: "at least one part is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := partsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var parts []ir.GroupPartDefinition
	for i := 0; iter.Next(); i++ {
		p, err := parsePart(iter.Value(), fmt.Sprintf("parts[%d]", i))
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	if len(parts) == 0 {
		return nil, &CompileError{
			Field:   "parts",
			Message: "at least one part is required",
			Pos:     partsVal.Pos(),
		}
	}
	return parts, nil
}

func parsePart(v cue.Value, field string) (ir.GroupPartDefinition, error) {
	identity, err := requiredString(v, "type", field+".type")
	if err != nil {
		return ir.GroupPartDefinition{}, err
	}
	index, err := optionalInt(v, "index", field+".index")
	if err != nil {
		return ir.GroupPartDefinition{}, err
	}

	exports := make(map[ir.ExportRegistrationID]ir.ExportDefinition)
	if ev := v.LookupPath(cue.ParsePath("exports")); ev.Exists() {
		iter, err := ev.List()
		if err != nil {
			return ir.GroupPartDefinition{}, formatCUEError(err)
		}
		for i := 0; iter.Next(); i++ {
			f := fmt.Sprintf("%s.exports[%d]", field, i)
			contract, err := requiredString(iter.Value(), "contract", f+".contract")
			if err != nil {
				return ir.GroupPartDefinition{}, err
			}
			contractType, err := optionalString(iter.Value(), "contract_type", f+".contract_type")
			if err != nil {
				return ir.GroupPartDefinition{}, err
			}
			id := ir.NewExportRegistrationID(identity, index, contract)
			if _, dup := exports[id]; dup {
				return ir.GroupPartDefinition{}, &CompileError{
					Field:   f + ".contract",
					Message: fmt.Sprintf("duplicate export contract %q", contract),
					Pos:     iter.Value().Pos(),
				}
			}
			exports[id] = ir.ExportDefinition{Contract: contract, ContractType: contractType}
		}
	}

	imports := make(map[ir.ImportRegistrationID]ir.ImportDefinition)
	if iv := v.LookupPath(cue.ParsePath("imports")); iv.Exists() {
		iter, err := iv.List()
		if err != nil {
			return ir.GroupPartDefinition{}, formatCUEError(err)
		}
		for i := 0; iter.Next(); i++ {
			f := fmt.Sprintf("%s.imports[%d]", field, i)
			imp, err := parseImport(iter.Value(), f)
			if err != nil {
				return ir.GroupPartDefinition{}, err
			}
			id := ir.NewImportRegistrationID(identity, index, imp.Contract)
			if _, dup := imports[id]; dup {
				return ir.GroupPartDefinition{}, &CompileError{
					Field:   f + ".contract",
					Message: fmt.Sprintf("duplicate import contract %q", imp.Contract),
					Pos:     iter.Value().Pos(),
				}
			}
			imports[id] = imp
		}
	}

	var schedule ir.IRObject
	if sv := v.LookupPath(cue.ParsePath("schedule")); sv.Exists() {
		val, err := cueToIR(sv, field+".schedule")
		if err != nil {
			return ir.GroupPartDefinition{}, err
		}
		obj, ok := val.(ir.IRObject)
		if !ok {
			return ir.GroupPartDefinition{}, &CompileError{
				Field:   field + ".schedule",
				Message: "schedule must be a struct",
				Pos:     sv.Pos(),
			}
		}
		schedule = obj
	}

	return ir.NewGroupPartDefinition(identity, index, exports, imports, schedule), nil
}

func parseImport(v cue.Value, field string) (ir.ImportDefinition, error) {
	contract, err := requiredString(v, "contract", field+".contract")
	if err != nil {
		return ir.ImportDefinition{}, err
	}
	contractType, err := optionalString(v, "contract_type", field+".contract_type")
	if err != nil {
		return ir.ImportDefinition{}, err
	}
	cardinality, err := optionalString(v, "cardinality", field+".cardinality")
	if err != nil {
		return ir.ImportDefinition{}, err
	}
	if cardinality == "" {
		cardinality = string(ir.ExactlyOne)
	}
	if !ir.ValidCardinalities[ir.Cardinality(cardinality)] {
		return ir.ImportDefinition{}, &CompileError{
			Field:   field + ".cardinality",
			Message: fmt.Sprintf("invalid cardinality %q, must be one of: exactly_one, zero_or_one, zero_or_more", cardinality),
			Pos:     v.LookupPath(cue.ParsePath("cardinality")).Pos(),
		}
	}

	imp := ir.ImportDefinition{
		Contract:     contract,
		ContractType: contractType,
		Cardinality:  ir.Cardinality(cardinality),
	}
	if pv := v.LookupPath(cue.ParsePath("prerequisite")); pv.Exists() {
		b, err := pv.Bool()
		if err != nil {
			return ir.ImportDefinition{}, formatCUEError(err)
		}
		imp.Prerequisite = b
	}
	return imp, nil
}

// parseMappings parses a list of {import: ref, exports: [ref...]} entries.
func parseMappings(v cue.Value, field string) ([]ir.PartImportToPartExportMap, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []ir.PartImportToPartExportMap
	for i := 0; iter.Next(); i++ {
		f := fmt.Sprintf("%s[%d]", field, i)
		iv := iter.Value().LookupPath(cue.ParsePath("import"))
		if !iv.Exists() {
			return nil, &CompileError{Field: f + ".import", Message: "import is required", Pos: iter.Value().Pos()}
		}
		owner, index, contract, err := parseRef(iv, f+".import")
		if err != nil {
			return nil, err
		}
		exports, err := parseExportRefs(iter.Value().LookupPath(cue.ParsePath("exports")), f+".exports")
		if err != nil {
			return nil, err
		}
		out = append(out, ir.NewPartImportToPartExportMap(ir.NewImportRegistrationID(owner, index, contract), exports...))
	}
	return out, nil
}

func parseExportRefs(v cue.Value, field string) ([]ir.ExportRegistrationID, error) {
	var out []ir.ExportRegistrationID
	err := eachRef(v, field, func(owner string, index int, contract string) {
		out = append(out, ir.NewExportRegistrationID(owner, index, contract))
	})
	return out, err
}

func parseImportRefs(v cue.Value, field string) ([]ir.ImportRegistrationID, error) {
	var out []ir.ImportRegistrationID
	err := eachRef(v, field, func(owner string, index int, contract string) {
		out = append(out, ir.NewImportRegistrationID(owner, index, contract))
	})
	return out, err
}

// eachRef walks a required, non-empty list of {part, index, contract} refs.
func eachRef(v cue.Value, field string, fn func(owner string, index int, contract string)) error {
	if !v.Exists() {
		return &CompileError{Field: field, Message: "at least one reference is required", Pos: v.Pos()}
	}
	iter, err := v.List()
	if err != nil {
		return formatCUEError(err)
	}
	n := 0
	for ; iter.Next(); n++ {
		owner, index, contract, err := parseRef(iter.Value(), fmt.Sprintf("%s[%d]", field, n))
		if err != nil {
			return err
		}
		fn(owner, index, contract)
	}
	if n == 0 {
		return &CompileError{Field: field, Message: "at least one reference is required", Pos: v.Pos()}
	}
	return nil
}

// parseRef reads a registration reference {part, index, contract}.
func parseRef(v cue.Value, field string) (string, int, string, error) {
	owner, err := requiredString(v, "part", field+".part")
	if err != nil {
		return "", 0, "", err
	}
	index, err := optionalInt(v, "index", field+".index")
	if err != nil {
		return "", 0, "", err
	}
	contract, err := requiredString(v, "contract", field+".contract")
	if err != nil {
		return "", 0, "", err
	}
	return owner, index, contract, nil
}

// cueToIR converts a concrete CUE value to an IR value.
// Floats are forbidden; canonical JSON only carries integers.
func cueToIR(v cue.Value, field string) (ir.IRValue, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRString(s), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRInt(n), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRBool(b), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		arr := ir.IRArray{}
		for i := 0; iter.Next(); i++ {
			elem, err := cueToIR(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		return arr, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		obj := ir.IRObject{}
		for iter.Next() {
			elem, err := cueToIR(iter.Value(), field+"."+iter.Label())
			if err != nil {
				return nil, err
			}
			obj[iter.Label()] = elem
		}
		return obj, nil
	case cue.FloatKind, cue.NumberKind:
		return nil, &CompileError{
			Field:   field,
			Message: "float values are forbidden - use int instead",
			Pos:     v.Pos(),
		}
	default:
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unsupported value kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

func requiredString(v cue.Value, path, field string) (string, error) {
	sv := v.LookupPath(cue.ParsePath(path))
	if !sv.Exists() {
		return "", &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	s, err := sv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	if strings.TrimSpace(s) == "" {
		return "", &CompileError{Field: field, Message: field + " must be non-empty", Pos: sv.Pos()}
	}
	return s, nil
}

func optionalString(v cue.Value, path, field string) (string, error) {
	sv := v.LookupPath(cue.ParsePath(path))
	if !sv.Exists() {
		return "", nil
	}
	s, err := sv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalInt(v cue.Value, path, field string) (int, error) {
	iv := v.LookupPath(cue.ParsePath(path))
	if !iv.Exists() {
		return 0, nil
	}
	n, err := iv.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	if n < 0 {
		return 0, &CompileError{Field: field, Message: "index must be non-negative", Pos: iv.Pos()}
	}
	return int(n), nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
