package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/groupwire/internal/ir"
	"github.com/roach88/groupwire/internal/queryir"
)

func TestCompile_SimpleSelect(t *testing.T) {
	q := queryir.Select{
		From:    queryir.Table{Name: "operations"},
		Columns: []string{"seq", "kind"},
		Filter:  queryir.Equals{Field: "kind", Value: ir.IRString("connect")},
		OrderBy: []string{"seq"},
	}

	sql, params, err := Compile(q)
	require.NoError(t, err)
	assert.Equal(t, "SELECT seq, kind FROM operations WHERE kind = ? ORDER BY seq ASC", sql)
	assert.Equal(t, []any{"connect"}, params)

	// Values are parameterized, never interpolated.
	assert.NotContains(t, sql, "connect")
}

func TestCompile_PointerSelect(t *testing.T) {
	q := &queryir.Select{
		From:    queryir.Table{Name: "operations", Alias: "o"},
		Columns: []string{"o.seq"},
		OrderBy: []string{"o.seq"},
	}

	sql, params, err := Compile(q)
	require.NoError(t, err)
	assert.Equal(t, "SELECT o.seq FROM operations AS o ORDER BY o.seq ASC", sql)
	assert.Empty(t, params)
}

func TestCompile_OuterJoin(t *testing.T) {
	q := queryir.Select{
		From: queryir.Join{
			Left:  queryir.Table{Name: "operations", Alias: "o"},
			Right: queryir.Table{Name: "definitions", Alias: "d"},
			On:    queryir.FieldEquals{Left: "d.hash", Right: "o.definition_hash"},
			Outer: true,
		},
		Columns: []string{"o.seq", "d.body"},
		Filter:  queryir.Equals{Field: "d.name", Value: ir.IRString("Importer")},
		OrderBy: []string{"o.seq"},
	}

	sql, params, err := Compile(q)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT o.seq, d.body FROM operations AS o LEFT JOIN definitions AS d ON d.hash = o.definition_hash "+
			"WHERE d.name = ? ORDER BY o.seq ASC",
		sql)
	assert.Equal(t, []any{"Importer"}, params)
}

func TestCompile_InnerJoin(t *testing.T) {
	q := queryir.Select{
		From: queryir.Join{
			Left:  queryir.Table{Name: "operations", Alias: "o"},
			Right: queryir.Table{Name: "definitions", Alias: "d"},
			On:    queryir.FieldEquals{Left: "d.hash", Right: "o.definition_hash"},
		},
		Columns: []string{"o.seq"},
		OrderBy: []string{"o.seq"},
	}

	sql, _, err := Compile(q)
	require.NoError(t, err)
	assert.Contains(t, sql, " INNER JOIN definitions AS d ON ")
}

func TestCompile_NestedPredicates(t *testing.T) {
	q := queryir.Select{
		From:    queryir.Table{Name: "operations"},
		Columns: []string{"seq"},
		Filter: queryir.And{Predicates: []queryir.Predicate{
			queryir.Equals{Field: "kind", Value: ir.IRString("add")},
			queryir.Or{Predicates: []queryir.Predicate{
				queryir.Equals{Field: "group_id", Value: ir.IRString("g1")},
				queryir.Equals{Field: "importer_id", Value: ir.IRString("g1")},
			}},
			queryir.Greater{Field: "seq", Value: ir.IRInt(10)},
		}},
		OrderBy: []string{"seq"},
	}

	sql, params, err := Compile(q)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT seq FROM operations WHERE (kind = ?) AND ((group_id = ?) OR (importer_id = ?)) AND (seq > ?) ORDER BY seq ASC",
		sql)
	assert.Equal(t, []any{"add", "g1", "g1", int64(10)}, params)
}

func TestCompile_SinglePredicateJunction(t *testing.T) {
	q := queryir.Select{
		From:    queryir.Table{Name: "operations"},
		Columns: []string{"seq"},
		Filter:  queryir.And{Predicates: []queryir.Predicate{queryir.Equals{Field: "contract", Value: ir.IRString("rows")}}},
		OrderBy: []string{"seq"},
	}

	sql, _, err := Compile(q)
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE contract = ? ORDER")
}

func TestCompile_EmptyJunctions(t *testing.T) {
	base := queryir.Select{
		From:    queryir.Table{Name: "operations"},
		Columns: []string{"seq"},
		OrderBy: []string{"seq", "kind"},
	}

	base.Filter = queryir.And{}
	sql, _, err := Compile(base)
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE 1 = 1 ORDER BY seq ASC, kind ASC")

	base.Filter = queryir.Or{}
	sql, _, err = Compile(base)
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE 1 = 0")
}

func TestCompile_InvalidQuery(t *testing.T) {
	_, _, err := Compile(queryir.Select{From: queryir.Table{Name: "operations"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid query")
	assert.Contains(t, err.Error(), "select names no columns")

	_, _, err = Compile(nil)
	require.Error(t, err)
}

func TestIRValueToParam(t *testing.T) {
	tests := []struct {
		name    string
		value   ir.IRValue
		want    any
		wantErr bool
	}{
		{"string", ir.IRString("x"), "x", false},
		{"int", ir.IRInt(7), int64(7), false},
		{"bool", ir.IRBool(true), true, false},
		{"array", ir.IRArray{}, nil, true},
		{"object", ir.IRObject{}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := irValueToParam(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
