package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/groupwire/internal/ir"
)

// marshalDefinition converts a definition to canonical JSON TEXT and its
// structural hash. Uses RFC 8785 canonical JSON so equal definitions share a
// row in the definitions table.
func marshalDefinition(def *ir.GroupDefinition) (body, hash string, err error) {
	data, err := def.CanonicalJSON()
	if err != nil {
		return "", "", fmt.Errorf("marshal definition: %w", err)
	}
	hash, err = def.Hash()
	if err != nil {
		return "", "", fmt.Errorf("marshal definition: %w", err)
	}
	return string(data), hash, nil
}

// unmarshalDefinition parses canonical JSON TEXT and checks it against the
// stored hash. The decoded value is rebuilt through Clone so set-valued members
// are back in canonical order.
func unmarshalDefinition(body, wantHash string) (*ir.GroupDefinition, error) {
	var def ir.GroupDefinition
	if err := json.Unmarshal([]byte(body), &def); err != nil {
		return nil, fmt.Errorf("unmarshal definition: %w", err)
	}
	out := def.Clone()
	got, err := out.Hash()
	if err != nil {
		return nil, fmt.Errorf("unmarshal definition: %w", err)
	}
	if got != wantHash {
		return nil, fmt.Errorf("unmarshal definition: hash mismatch: stored %s, computed %s", wantHash, got)
	}
	return out, nil
}

// marshalConnection converts a connection to canonical JSON TEXT and its hash.
func marshalConnection(conn ir.GroupConnection) (body, hash string, err error) {
	data, err := conn.CanonicalJSON()
	if err != nil {
		return "", "", fmt.Errorf("marshal connection: %w", err)
	}
	hash, err = ir.ConnectionHash(conn)
	if err != nil {
		return "", "", fmt.Errorf("marshal connection: %w", err)
	}
	return string(data), hash, nil
}

// unmarshalConnection parses canonical JSON TEXT and checks it against the
// stored hash.
func unmarshalConnection(body, wantHash string) (*ir.GroupConnection, error) {
	var conn ir.GroupConnection
	if err := json.Unmarshal([]byte(body), &conn); err != nil {
		return nil, fmt.Errorf("unmarshal connection: %w", err)
	}
	out := conn.Clone()
	got, err := ir.ConnectionHash(out)
	if err != nil {
		return nil, fmt.Errorf("unmarshal connection: %w", err)
	}
	if got != wantHash {
		return nil, fmt.Errorf("unmarshal connection: hash mismatch: stored %s, computed %s", wantHash, got)
	}
	return &out, nil
}
