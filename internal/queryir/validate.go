package queryir

import (
	"fmt"
	"regexp"

	"github.com/roach88/groupwire/internal/ir"
)

// identifier matches a bare or alias-qualified column or table name.
var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidationResult lists the problems found in a query.
type ValidationResult struct {
	// Valid is true when the query can be compiled by every backend.
	Valid bool

	// Errors lists each problem found. Empty when Valid is true.
	Errors []string
}

// Validate checks a query's structure:
//  1. Every table, alias and column is an identifier
//  2. Select names at least one column and one order key
//  3. Every Join has an On predicate
//  4. Literal values are scalar IR values
//
// Validate is a pure function with no side effects.
func Validate(query Query) ValidationResult {
	v := &validator{errors: []string{}}
	v.validateQuery(query)

	return ValidationResult{
		Valid:  len(v.errors) == 0,
		Errors: v.errors,
	}
}

// validator accumulates errors during traversal.
type validator struct {
	errors []string
}

func (v *validator) addError(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *validator) identifier(kind, name string) {
	if !identifier.MatchString(name) {
		v.addError("invalid %s name %q", kind, name)
	}
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case Select:
		v.validateSelect(query)
	case *Select:
		if query == nil {
			v.addError("nil query")
			return
		}
		v.validateSelect(*query)
	case nil:
		v.addError("nil query")
	default:
		v.addError("unknown query type: %T", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	if len(sel.Columns) == 0 {
		v.addError("select names no columns")
	}
	for _, c := range sel.Columns {
		v.identifier("column", c)
	}
	if len(sel.OrderBy) == 0 {
		v.addError("select has no order")
	}
	for _, c := range sel.OrderBy {
		v.identifier("order", c)
	}
	v.validateSource(sel.From)
	if sel.Filter != nil {
		v.validatePredicate(sel.Filter)
	}
}

func (v *validator) validateSource(s Source) {
	switch src := s.(type) {
	case Table:
		v.identifier("table", src.Name)
		if src.Alias != "" {
			v.identifier("alias", src.Alias)
		}
	case Join:
		v.validateSource(src.Left)
		v.validateSource(src.Right)
		if src.On == nil {
			v.addError("join has no on predicate")
			return
		}
		v.validatePredicate(src.On)
	case nil:
		v.addError("select has no source")
	default:
		v.addError("unknown source type: %T", s)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case Equals:
		v.identifier("column", pred.Field)
		v.scalar(pred.Field, pred.Value)
	case Greater:
		v.identifier("column", pred.Field)
		v.scalar(pred.Field, pred.Value)
	case FieldEquals:
		v.identifier("column", pred.Left)
		v.identifier("column", pred.Right)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case Or:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case nil:
		v.addError("nil predicate")
	default:
		v.addError("unknown predicate type: %T", p)
	}
}

func (v *validator) scalar(field string, value ir.IRValue) {
	switch value.(type) {
	case ir.IRString, ir.IRInt, ir.IRBool:
	default:
		v.addError("field %q compared to non-scalar value %T", field, value)
	}
}
