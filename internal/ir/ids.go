package ir

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// registrationSeparator separates the fields of a textual registration id.
// Owners may not contain it (see GroupDefinition.Validate).
const registrationSeparator = "|"

// PartRegistrationID identifies one part inside a group definition.
// Index disambiguates multiple parts of the same kind.
type PartRegistrationID struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
}

// Compare orders part ids by name, then index.
func (p PartRegistrationID) Compare(other PartRegistrationID) int {
	if c := cmp.Compare(p.Name, other.Name); c != 0 {
		return c
	}
	return cmp.Compare(p.Index, other.Index)
}

func (p PartRegistrationID) String() string {
	return fmt.Sprintf("%s#%d", p.Name, p.Index)
}

// GroupCompositionID identifies one instance of a group, not its definition.
// The zero value is invalid.
type GroupCompositionID struct {
	token string
}

// NewGroupCompositionID generates a fresh, time-sortable instance id (UUIDv7).
//
// Panics if UUID generation fails (should never happen in practice).
func NewGroupCompositionID() GroupCompositionID {
	return GroupCompositionID{token: uuid.Must(uuid.NewV7()).String()}
}

// GroupIDGenerator mints group instance ids.
// Implemented by UUIDv7Generator (production) and testutil.SequentialIDs (tests).
type GroupIDGenerator interface {
	Generate() GroupCompositionID
}

// UUIDv7Generator generates time-sortable UUIDv7 group ids.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns NewGroupCompositionID().
func (UUIDv7Generator) Generate() GroupCompositionID {
	return NewGroupCompositionID()
}

// GroupCompositionIDFrom wraps an existing token, e.g. one read back from a
// journal. Returns the zero id for an empty token.
func GroupCompositionIDFrom(token string) GroupCompositionID {
	return GroupCompositionID{token: token}
}

// IsZero reports whether the id was never assigned.
func (g GroupCompositionID) IsZero() bool {
	return g.token == ""
}

// Compare orders ids by token. UUIDv7 tokens therefore sort by creation time.
func (g GroupCompositionID) Compare(other GroupCompositionID) int {
	return cmp.Compare(g.token, other.token)
}

func (g GroupCompositionID) String() string {
	return g.token
}

// MarshalText implements encoding.TextMarshaler.
func (g GroupCompositionID) MarshalText() ([]byte, error) {
	return []byte(g.token), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *GroupCompositionID) UnmarshalText(data []byte) error {
	g.token = string(data)
	return nil
}

// PartCompositionID addresses one part within one specific group instance.
type PartCompositionID struct {
	Group GroupCompositionID `json:"group"`
	Part  PartRegistrationID `json:"part"`
}

// Compare orders by group, then part.
func (p PartCompositionID) Compare(other PartCompositionID) int {
	if c := p.Group.Compare(other.Group); c != 0 {
		return c
	}
	return p.Part.Compare(other.Part)
}

func (p PartCompositionID) String() string {
	return p.Group.String() + "/" + p.Part.String()
}

// ExportRegistrationID addresses one export point on a part: the owning part
// type, the part's index in its group, and the contract name.
type ExportRegistrationID struct {
	Owner    string
	Index    int
	Contract string
}

// NewExportRegistrationID creates an export registration id.
func NewExportRegistrationID(owner string, index int, contract string) ExportRegistrationID {
	return ExportRegistrationID{Owner: owner, Index: index, Contract: contract}
}

// Part returns the registration id of the part that owns this export.
func (e ExportRegistrationID) Part() PartRegistrationID {
	return PartRegistrationID{Name: e.Owner, Index: e.Index}
}

// Compare orders by owner, index, then contract.
func (e ExportRegistrationID) Compare(other ExportRegistrationID) int {
	return compareRegistration(e.Owner, e.Index, e.Contract, other.Owner, other.Index, other.Contract)
}

func (e ExportRegistrationID) String() string {
	return formatRegistration(e.Owner, e.Index, e.Contract)
}

// MarshalText implements encoding.TextMarshaler so export ids can key JSON maps.
func (e ExportRegistrationID) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *ExportRegistrationID) UnmarshalText(data []byte) error {
	owner, index, contract, err := parseRegistration(string(data))
	if err != nil {
		return fmt.Errorf("export registration id: %w", err)
	}
	*e = ExportRegistrationID{Owner: owner, Index: index, Contract: contract}
	return nil
}

// ImportRegistrationID addresses one import point on a part.
type ImportRegistrationID struct {
	Owner    string
	Index    int
	Contract string
}

// NewImportRegistrationID creates an import registration id.
func NewImportRegistrationID(owner string, index int, contract string) ImportRegistrationID {
	return ImportRegistrationID{Owner: owner, Index: index, Contract: contract}
}

// Part returns the registration id of the part that owns this import.
func (i ImportRegistrationID) Part() PartRegistrationID {
	return PartRegistrationID{Name: i.Owner, Index: i.Index}
}

// Compare orders by owner, index, then contract.
func (i ImportRegistrationID) Compare(other ImportRegistrationID) int {
	return compareRegistration(i.Owner, i.Index, i.Contract, other.Owner, other.Index, other.Contract)
}

func (i ImportRegistrationID) String() string {
	return formatRegistration(i.Owner, i.Index, i.Contract)
}

// MarshalText implements encoding.TextMarshaler so import ids can key JSON maps.
func (i ImportRegistrationID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ImportRegistrationID) UnmarshalText(data []byte) error {
	owner, index, contract, err := parseRegistration(string(data))
	if err != nil {
		return fmt.Errorf("import registration id: %w", err)
	}
	*i = ImportRegistrationID{Owner: owner, Index: index, Contract: contract}
	return nil
}

func compareRegistration(ao string, ai int, ac string, bo string, bi int, bc string) int {
	if c := cmp.Compare(ao, bo); c != 0 {
		return c
	}
	if c := cmp.Compare(ai, bi); c != 0 {
		return c
	}
	return cmp.Compare(ac, bc)
}

func formatRegistration(owner string, index int, contract string) string {
	return owner + registrationSeparator + strconv.Itoa(index) + registrationSeparator + contract
}

// parseRegistration splits "owner|index|contract". The contract is the
// remainder after the second separator, so it may itself contain separators.
func parseRegistration(s string) (string, int, string, error) {
	parts := strings.SplitN(s, registrationSeparator, 3)
	if len(parts) != 3 {
		return "", 0, "", fmt.Errorf("malformed %q: want owner|index|contract", s)
	}
	index, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, "", fmt.Errorf("malformed index in %q: %w", s, err)
	}
	return parts[0], index, parts[2], nil
}
