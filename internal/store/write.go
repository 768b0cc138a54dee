package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/groupwire/internal/ir"
)

// WriteOperation appends one journaled operation.
// Uses ON CONFLICT(seq) DO NOTHING for idempotency - rewriting a seq is
// silently ignored. The operation's definition, if any, is stored once per
// structural hash in the definitions table; the operation row references it.
//
// Both inserts run in one transaction so a definition row is never written
// without the operation that introduced it.
func (s *Store) WriteOperation(ctx context.Context, op ir.Operation) error {
	if !ir.ValidOperationKinds[op.Kind] {
		return fmt.Errorf("write operation: invalid kind %q", op.Kind)
	}

	var defHash, connJSON, connHash sql.NullString
	var defName, defBody string
	if op.Definition != nil {
		body, hash, err := marshalDefinition(op.Definition)
		if err != nil {
			return fmt.Errorf("write operation: %w", err)
		}
		defName, defBody = op.Definition.Name, body
		defHash = sql.NullString{String: hash, Valid: true}
	}
	if op.Connection != nil {
		body, hash, err := marshalConnection(*op.Connection)
		if err != nil {
			return fmt.Errorf("write operation: %w", err)
		}
		connJSON = sql.NullString{String: body, Valid: true}
		connHash = sql.NullString{String: hash, Valid: true}
	}

	// Connect rows index their endpoints and contract so filtered reads
	// find them; scanOperation drops the copies again.
	importer, exporter, contract := op.Importer, op.Exporter, op.Contract
	if op.Connection != nil {
		importer, exporter = op.Connection.Importer, op.Connection.Exporter
		contract = op.Connection.Import.Contract
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write operation: begin: %w", err)
	}
	defer tx.Rollback()

	if defHash.Valid {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO definitions (hash, name, body)
			VALUES (?, ?, ?)
			ON CONFLICT(hash) DO NOTHING
		`, defHash.String, defName, defBody); err != nil {
			return fmt.Errorf("write definition: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO operations
		(seq, kind, group_id, importer_id, exporter_id, contract,
		 definition_hash, connection, connection_hash, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(seq) DO NOTHING
	`,
		op.Seq,
		string(op.Kind),
		op.Group.String(),
		importer.String(),
		exporter.String(),
		contract,
		defHash,
		connJSON,
		connHash,
		ir.EngineVersion,
		ir.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write operation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write operation: commit: %w", err)
	}
	return nil
}

// WriteOperations appends a batch of operations in order, stopping at the
// first failure.
func (s *Store) WriteOperations(ctx context.Context, ops []ir.Operation) error {
	for _, op := range ops {
		if err := s.WriteOperation(ctx, op); err != nil {
			return fmt.Errorf("seq %d: %w", op.Seq, err)
		}
	}
	return nil
}
