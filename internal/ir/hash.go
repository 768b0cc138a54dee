package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainGroupDefinition = "groupwire/group-definition/v1"
	DomainConnection      = "groupwire/connection/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DefinitionHash computes the structural hash of a group definition over its
// canonical JSON. It is the bucket key of the definition store, so equal
// definitions must hash equal; unequal ones may collide.
// Returns error if schedule metadata cannot be canonically marshaled.
func DefinitionHash(def *GroupDefinition) (string, error) {
	if def == nil {
		return "", fmt.Errorf("DefinitionHash: nil definition")
	}
	canonical, err := def.CanonicalJSON()
	if err != nil {
		return "", fmt.Errorf("DefinitionHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainGroupDefinition, canonical), nil
}

// ConnectionHash computes a content hash for a connection edge. The journal
// stores it so replays can detect that a recorded edge changed shape.
func ConnectionHash(conn GroupConnection) (string, error) {
	canonical, err := MarshalCanonical(conn.toIR())
	if err != nil {
		return "", fmt.Errorf("ConnectionHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainConnection, canonical), nil
}

// MustDefinitionHash is like DefinitionHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustDefinitionHash(def *GroupDefinition) string {
	hash, err := DefinitionHash(def)
	if err != nil {
		panic(err)
	}
	return hash
}
