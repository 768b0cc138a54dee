package store

import (
	"context"
	"fmt"

	"github.com/roach88/groupwire/internal/ir"
	"github.com/roach88/groupwire/internal/queryir"
	"github.com/roach88/groupwire/internal/querysql"
)

// operationColumns are read by scanOperation, in this order.
var operationColumns = []string{
	"o.seq", "o.kind", "o.group_id", "o.importer_id", "o.exporter_id", "o.contract",
	"o.definition_hash", "d.body", "o.connection", "o.connection_hash",
}

// OperationFilter selects journaled operations. Zero fields match anything;
// set fields must all match.
type OperationFilter struct {
	Kind       ir.OperationKind      // operation kind
	Group      ir.GroupCompositionID // group, importer or exporter
	Contract   string                // import contract (connect by import, disconnect_import)
	Definition string                // name of the added definition
	After      int64                 // seq strictly greater than After
}

// Query builds the journal query for f, ordered by seq.
func (f OperationFilter) Query() queryir.Select {
	var preds []queryir.Predicate
	if f.Kind != "" {
		preds = append(preds, queryir.Equals{Field: "o.kind", Value: ir.IRString(f.Kind)})
	}
	if !f.Group.IsZero() {
		token := ir.IRString(f.Group.String())
		preds = append(preds, queryir.Or{Predicates: []queryir.Predicate{
			queryir.Equals{Field: "o.group_id", Value: token},
			queryir.Equals{Field: "o.importer_id", Value: token},
			queryir.Equals{Field: "o.exporter_id", Value: token},
		}})
	}
	if f.Contract != "" {
		preds = append(preds, queryir.Equals{Field: "o.contract", Value: ir.IRString(f.Contract)})
	}
	if f.Definition != "" {
		preds = append(preds, queryir.Equals{Field: "d.name", Value: ir.IRString(f.Definition)})
	}
	if f.After > 0 {
		preds = append(preds, queryir.Greater{Field: "o.seq", Value: ir.IRInt(f.After)})
	}

	q := queryir.Select{
		From: queryir.Join{
			Left:  queryir.Table{Name: "operations", Alias: "o"},
			Right: queryir.Table{Name: "definitions", Alias: "d"},
			On:    queryir.FieldEquals{Left: "d.hash", Right: "o.definition_hash"},
			Outer: true,
		},
		Columns: operationColumns,
		OrderBy: []string{"o.seq"},
	}
	if len(preds) > 0 {
		q.Filter = queryir.And{Predicates: preds}
	}
	return q
}

// FindOperations returns the operations matching f ordered by seq ASC.
// Definitions and connections are verified against their stored hashes.
func (s *Store) FindOperations(ctx context.Context, f OperationFilter) ([]ir.Operation, error) {
	query, params, err := querysql.Compile(f.Query())
	if err != nil {
		return nil, fmt.Errorf("find operations: %w", err)
	}
	return s.queryOperations(ctx, "find operations", query, params...)
}
