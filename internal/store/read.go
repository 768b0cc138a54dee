package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/groupwire/internal/ir"
)

// ReadOperations returns the whole journal ordered by seq ASC.
// Definitions and connections are verified against their stored hashes.
//
// Returns an empty slice (not nil) if the journal is empty.
func (s *Store) ReadOperations(ctx context.Context) ([]ir.Operation, error) {
	return s.FindOperations(ctx, OperationFilter{})
}

// ReadOperationsAfter returns the operations with seq greater than after,
// ordered by seq ASC.
func (s *Store) ReadOperationsAfter(ctx context.Context, after int64) ([]ir.Operation, error) {
	return s.FindOperations(ctx, OperationFilter{After: after})
}

// GroupOperations returns every operation that names id as its group,
// importer, or exporter, ordered by seq ASC.
func (s *Store) GroupOperations(ctx context.Context, id ir.GroupCompositionID) ([]ir.Operation, error) {
	return s.FindOperations(ctx, OperationFilter{Group: id})
}

func (s *Store) queryOperations(ctx context.Context, what, query string, args ...any) ([]ir.Operation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	defer rows.Close()

	ops := []ir.Operation{}
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", what, err)
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate: %w", what, err)
	}
	return ops, nil
}

// ReadDefinition retrieves a definition by structural hash.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadDefinition(ctx context.Context, hash string) (*ir.GroupDefinition, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `
		SELECT body FROM definitions WHERE hash = ?
	`, hash).Scan(&body)
	if err != nil {
		return nil, err
	}
	return unmarshalDefinition(body, hash)
}

// CountOperations returns the number of journaled operations.
func (s *Store) CountOperations(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM operations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count operations: %w", err)
	}
	return n, nil
}

// CountDefinitions returns the number of distinct definitions stored.
func (s *Store) CountDefinitions(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM definitions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count definitions: %w", err)
	}
	return n, nil
}

// MaxSeq returns the highest journaled seq, or 0 for an empty journal.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM operations`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("max seq: %w", err)
	}
	return seq.Int64, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOperation(row rowScanner) (ir.Operation, error) {
	var (
		op                                       ir.Operation
		kind, group, importer, exporter          string
		defHash, defBody, connJSON, connHashText sql.NullString
	)
	if err := row.Scan(
		&op.Seq, &kind, &group, &importer, &exporter, &op.Contract,
		&defHash, &defBody, &connJSON, &connHashText,
	); err != nil {
		return ir.Operation{}, fmt.Errorf("scan operation: %w", err)
	}

	op.Kind = ir.OperationKind(kind)
	op.Group = ir.GroupCompositionIDFrom(group)
	op.Importer = ir.GroupCompositionIDFrom(importer)
	op.Exporter = ir.GroupCompositionIDFrom(exporter)

	if defHash.Valid {
		if !defBody.Valid {
			return ir.Operation{}, fmt.Errorf("seq %d: definition %s missing", op.Seq, defHash.String)
		}
		def, err := unmarshalDefinition(defBody.String, defHash.String)
		if err != nil {
			return ir.Operation{}, fmt.Errorf("seq %d: %w", op.Seq, err)
		}
		op.Definition = def
	}
	if connJSON.Valid {
		conn, err := unmarshalConnection(connJSON.String, connHashText.String)
		if err != nil {
			return ir.Operation{}, fmt.Errorf("seq %d: %w", op.Seq, err)
		}
		op.Connection = conn
		op.Importer, op.Exporter, op.Contract = ir.GroupCompositionID{}, ir.GroupCompositionID{}, ""
	}
	return op, nil
}
