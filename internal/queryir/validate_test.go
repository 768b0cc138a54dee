package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/groupwire/internal/ir"
)

func operations() Table {
	return Table{Name: "operations", Alias: "o"}
}

func TestValidate_ValidSelect(t *testing.T) {
	q := Select{
		From: Join{
			Left:  operations(),
			Right: Table{Name: "definitions", Alias: "d"},
			On:    FieldEquals{Left: "d.hash", Right: "o.definition_hash"},
			Outer: true,
		},
		Columns: []string{"o.seq", "d.body"},
		Filter: And{Predicates: []Predicate{
			Equals{Field: "o.kind", Value: ir.IRString("add")},
			Or{Predicates: []Predicate{
				Equals{Field: "o.group_id", Value: ir.IRString("g1")},
				Greater{Field: "o.seq", Value: ir.IRInt(3)},
			}},
		}},
		OrderBy: []string{"o.seq"},
	}

	result := Validate(q)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)

	// Pointer form validates the same.
	assert.True(t, Validate(&q).Valid)
}

func TestValidate_Errors(t *testing.T) {
	base := func() Select {
		return Select{From: operations(), Columns: []string{"o.seq"}, OrderBy: []string{"o.seq"}}
	}

	tests := []struct {
		name   string
		mutate func(*Select)
		want   string
	}{
		{"no columns", func(s *Select) { s.Columns = nil }, "select names no columns"},
		{"no order", func(s *Select) { s.OrderBy = nil }, "select has no order"},
		{"no source", func(s *Select) { s.From = nil }, "select has no source"},
		{"injected column", func(s *Select) { s.Columns = []string{"seq; DROP TABLE operations"} }, "invalid column name"},
		{"bad table", func(s *Select) { s.From = Table{Name: "ops erations"} }, "invalid table name"},
		{"bad alias", func(s *Select) { s.From = Table{Name: "operations", Alias: "1o"} }, "invalid alias name"},
		{"join without on", func(s *Select) {
			s.From = Join{Left: operations(), Right: Table{Name: "definitions"}}
		}, "join has no on predicate"},
		{"non-scalar value", func(s *Select) {
			s.Filter = Equals{Field: "o.kind", Value: ir.IRArray{ir.IRString("add")}}
		}, "non-scalar value"},
		{"nil value", func(s *Select) {
			s.Filter = Greater{Field: "o.seq", Value: nil}
		}, "non-scalar value"},
		{"nil nested predicate", func(s *Select) {
			s.Filter = And{Predicates: []Predicate{nil}}
		}, "nil predicate"},
		{"bad order key", func(s *Select) { s.OrderBy = []string{"seq DESC"} }, "invalid order name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := base()
			tt.mutate(&q)
			result := Validate(q)
			assert.False(t, result.Valid)
			assert.NotEmpty(t, result.Errors)
			assert.Contains(t, result.Errors[0], tt.want)
		})
	}
}

func TestValidate_NilQuery(t *testing.T) {
	result := Validate(nil)
	assert.False(t, result.Valid)
	assert.Equal(t, []string{"nil query"}, result.Errors)

	var sel *Select
	assert.False(t, Validate(sel).Valid)
}

func TestValidate_CollectsEveryError(t *testing.T) {
	result := Validate(Select{From: Table{Name: ""}})
	assert.False(t, result.Valid)
	assert.Len(t, result.Errors, 3) // no columns, no order, bad table
}

func TestSealedInterfaces(t *testing.T) {
	var q Query = Select{}
	var s Source = Table{}
	var p Predicate = And{}

	switch q.(type) {
	case Select:
	default:
		t.Fatal("unexpected query type")
	}
	switch s.(type) {
	case Table, Join:
	default:
		t.Fatal("unexpected source type")
	}
	switch p.(type) {
	case Equals, Greater, FieldEquals, And, Or:
	default:
		t.Fatal("unexpected predicate type")
	}
}
