package composition

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/groupwire/internal/ir"
)

// Error is returned by every failing composition layer operation.
//
// The layer's state is unchanged whenever an *Error is returned from a
// mutation. Group, Importer, Exporter and Contract are set when relevant.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	Group    ir.GroupCompositionID
	Importer ir.GroupCompositionID
	Exporter ir.GroupCompositionID
	Contract string

	// Violations lists validation failures for INVALID_DEFINITION.
	Violations []ir.ValidationError

	// Cycle names the groups of a composition cycle, first group repeated
	// at the end.
	Cycle []ir.GroupCompositionID
}

// ErrorCode categorizes composition errors.
type ErrorCode string

const (
	CodeDuplicateGroupID        ErrorCode = "DUPLICATE_GROUP_ID"
	CodeUnknownGroupID          ErrorCode = "UNKNOWN_GROUP_ID"
	CodeInvalidGroupID          ErrorCode = "INVALID_GROUP_ID"
	CodeUnknownImportDefinition ErrorCode = "UNKNOWN_IMPORT_DEFINITION"
	CodeUnknownExportDefinition ErrorCode = "UNKNOWN_EXPORT_DEFINITION"
	CodeImportAlreadySatisfied  ErrorCode = "IMPORT_ALREADY_SATISFIED"
	CodeInvalidDefinition       ErrorCode = "INVALID_DEFINITION"
	CodeCompositionCycle        ErrorCode = "COMPOSITION_CYCLE"
	CodeHistoryDisabled         ErrorCode = "HISTORY_DISABLED"
	CodeNothingToUndo           ErrorCode = "NOTHING_TO_UNDO"
	CodeNothingToRedo           ErrorCode = "NOTHING_TO_REDO"
)

// Sentinels for errors.Is. Matching compares codes only.
var (
	ErrDuplicateGroupID        = &Error{Code: CodeDuplicateGroupID}
	ErrUnknownGroupID          = &Error{Code: CodeUnknownGroupID}
	ErrInvalidGroupID          = &Error{Code: CodeInvalidGroupID}
	ErrUnknownImportDefinition = &Error{Code: CodeUnknownImportDefinition}
	ErrUnknownExportDefinition = &Error{Code: CodeUnknownExportDefinition}
	ErrImportAlreadySatisfied  = &Error{Code: CodeImportAlreadySatisfied}
	ErrInvalidDefinition       = &Error{Code: CodeInvalidDefinition}
	ErrCompositionCycle        = &Error{Code: CodeCompositionCycle}
	ErrHistoryDisabled         = &Error{Code: CodeHistoryDisabled}
	ErrNothingToUndo           = &Error{Code: CodeNothingToUndo}
	ErrNothingToRedo           = &Error{Code: CodeNothingToRedo}
)

// Error implements the error interface.
func (e *Error) Error() string {
	var attrs []string
	if !e.Group.IsZero() {
		attrs = append(attrs, "group="+e.Group.String())
	}
	if !e.Importer.IsZero() {
		attrs = append(attrs, "importer="+e.Importer.String())
	}
	if !e.Exporter.IsZero() {
		attrs = append(attrs, "exporter="+e.Exporter.String())
	}
	if e.Contract != "" {
		attrs = append(attrs, "contract="+e.Contract)
	}
	if len(attrs) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(attrs, ", "))
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// IsUnknownGroup returns true if err reports an unregistered group id.
func IsUnknownGroup(err error) bool {
	return errors.Is(err, ErrUnknownGroupID)
}

// IsDuplicateGroup returns true if err reports an already registered id.
func IsDuplicateGroup(err error) bool {
	return errors.Is(err, ErrDuplicateGroupID)
}

// IsUnknownDefinition returns true if a connection referenced an import or
// export its group does not declare.
func IsUnknownDefinition(err error) bool {
	return errors.Is(err, ErrUnknownImportDefinition) || errors.Is(err, ErrUnknownExportDefinition)
}

// IsAlreadySatisfied returns true if a connection targeted a satisfied import.
func IsAlreadySatisfied(err error) bool {
	return errors.Is(err, ErrImportAlreadySatisfied)
}

// IsCycleError returns true if the composition graph contains a cycle.
func IsCycleError(err error) bool {
	return errors.Is(err, ErrCompositionCycle)
}

func unknownGroup(id ir.GroupCompositionID) *Error {
	return &Error{Code: CodeUnknownGroupID, Message: "group is not registered", Group: id}
}

func invalidGroupID() *Error {
	return &Error{Code: CodeInvalidGroupID, Message: "group id is zero"}
}
