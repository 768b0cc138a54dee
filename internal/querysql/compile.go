// Package querysql compiles journal queries to parameterized SQLite SQL.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/groupwire/internal/ir"
	"github.com/roach88/groupwire/internal/queryir"
)

// Compile converts a query to parameterized SQL.
// Returns (sql, params, error).
//
// The query is validated first. Values are never interpolated: every
// literal becomes a ? placeholder.
func Compile(q queryir.Query) (string, []any, error) {
	if res := queryir.Validate(q); !res.Valid {
		return "", nil, fmt.Errorf("invalid query: %s", strings.Join(res.Errors, "; "))
	}

	switch query := q.(type) {
	case queryir.Select:
		return compileSelect(query)
	case *queryir.Select:
		return compileSelect(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func compileSelect(q queryir.Select) (string, []any, error) {
	from, params, err := compileSource(q.From)
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(q.Columns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(from)

	if q.Filter != nil {
		where, whereParams, err := compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		b.WriteString(" WHERE ")
		b.WriteString(where)
		params = append(params, whereParams...)
	}

	order := make([]string, len(q.OrderBy))
	for i, key := range q.OrderBy {
		order[i] = key + " ASC"
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(strings.Join(order, ", "))

	return b.String(), params, nil
}

func compileSource(s queryir.Source) (string, []any, error) {
	switch src := s.(type) {
	case queryir.Table:
		if src.Alias == "" {
			return src.Name, nil, nil
		}
		return src.Name + " AS " + src.Alias, nil, nil
	case queryir.Join:
		left, params, err := compileSource(src.Left)
		if err != nil {
			return "", nil, err
		}
		right, rightParams, err := compileSource(src.Right)
		if err != nil {
			return "", nil, err
		}
		on, onParams, err := compilePredicate(src.On)
		if err != nil {
			return "", nil, fmt.Errorf("compile join on: %w", err)
		}
		join := " INNER JOIN "
		if src.Outer {
			join = " LEFT JOIN "
		}
		params = append(params, rightParams...)
		params = append(params, onParams...)
		return left + join + right + " ON " + on, params, nil
	default:
		return "", nil, fmt.Errorf("unsupported source type: %T", s)
	}
}

// compilePredicate compiles a predicate to a WHERE clause fragment.
func compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		return compileComparison(pred.Field, "=", pred.Value)
	case queryir.Greater:
		return compileComparison(pred.Field, ">", pred.Value)
	case queryir.FieldEquals:
		return pred.Left + " = " + pred.Right, nil, nil
	case queryir.And:
		return compileJunction(pred.Predicates, " AND ", "1 = 1")
	case queryir.Or:
		return compileJunction(pred.Predicates, " OR ", "1 = 0")
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileComparison(field, op string, value ir.IRValue) (string, []any, error) {
	param, err := irValueToParam(value)
	if err != nil {
		return "", nil, fmt.Errorf("field %s: %w", field, err)
	}
	return field + " " + op + " ?", []any{param}, nil
}

// compileJunction joins sub-predicates with sep. Each part is parenthesized
// so nested And/Or keep their grouping.
func compileJunction(preds []queryir.Predicate, sep, empty string) (string, []any, error) {
	if len(preds) == 0 {
		return empty, nil, nil
	}
	if len(preds) == 1 {
		return compilePredicate(preds[0])
	}

	parts := make([]string, 0, len(preds))
	var params []any
	for _, pred := range preds {
		sql, predParams, err := compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "("+sql+")")
		params = append(params, predParams...)
	}
	return strings.Join(parts, sep), params, nil
}

// irValueToParam converts a scalar ir.IRValue to a SQL parameter.
func irValueToParam(v ir.IRValue) (any, error) {
	switch val := v.(type) {
	case ir.IRString:
		return string(val), nil
	case ir.IRInt:
		return int64(val), nil
	case ir.IRBool:
		return bool(val), nil
	default:
		return nil, fmt.Errorf("unsupported IRValue type for SQL parameter: %T", v)
	}
}
