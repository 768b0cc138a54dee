package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/groupwire/internal/compiler"
)

// LoadError represents an error that occurred during catalog loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadCatalog loads and compiles the CUE catalog in dir. Every returned error
// is a *LoadError. A nil catalog means nothing could be compiled; a non-nil
// catalog with errors carries the groups that did compile.
func LoadCatalog(dir string) (*compiler.Catalog, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("catalog directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing catalog directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cat, errs := compiler.LoadCatalog(dir)
	out := make([]error, len(errs))
	for i, err := range errs {
		out[i] = convertLoadError(err, cat == nil)
	}
	return cat, out
}

// convertLoadError classifies a compiler error. Errors before a catalog
// exists are load or build failures; afterwards they are compile errors.
func convertLoadError(err error, fatal bool) *LoadError {
	var compileErr *compiler.CompileError
	isCompileErr := errors.As(err, &compileErr)
	switch {
	case errors.Is(err, compiler.ErrNoCUEFiles):
		return &LoadError{Code: ErrCodeNoFiles, Message: err.Error()}
	case fatal && isCompileErr:
		return &LoadError{Code: ErrCodeLoadFailed, Message: compileErr.Message, Pos: compileErr.Pos}
	case fatal:
		return &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
	case isCompileErr:
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	default:
		return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load or build failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeDatabase    = "E008" // Journal database error
)

// MapFieldToErrorCode maps a compiler error field to an error code. Fields
// are qualified paths such as "group.Reader.parts[0].imports[1].cardinality"
// or "connect[2].importer".
func MapFieldToErrorCode(field string) string {
	switch {
	case strings.HasSuffix(field, ".cardinality"):
		return compiler.ErrInvalidCardinality
	case strings.HasSuffix(field, ".schedule") || strings.Contains(field, ".schedule."):
		return compiler.ErrNonCanonicalSchedule
	case strings.HasSuffix(field, ".type") || strings.HasSuffix(field, ".index"):
		return compiler.ErrInvalidPartIdentity
	case strings.Contains(field, ".internal"):
		return compiler.ErrInvalidInternalWiring
	case strings.Contains(field, ".export.") || strings.HasSuffix(field, ".export"):
		return compiler.ErrInvalidGroupExport
	case strings.HasPrefix(field, "group.") && strings.Contains(field, ".imports["):
		if strings.Contains(field, ".parts[") {
			return compiler.ErrRegistrationMismatch
		}
		return compiler.ErrInvalidGroupImport
	case strings.HasPrefix(field, "group.") && strings.Contains(field, ".exports["):
		return compiler.ErrRegistrationMismatch
	case strings.HasPrefix(field, "instance."):
		return compiler.ErrUnknownInstanceGroup
	case strings.HasPrefix(field, "connect[") &&
		(strings.HasSuffix(field, ".importer") || strings.HasSuffix(field, ".exporter")):
		return compiler.ErrUnknownInstance
	case strings.HasPrefix(field, "connect["):
		return compiler.ErrUnmatchedConnectImport
	case field == "group" || strings.HasSuffix(field, ".name"):
		return compiler.ErrGroupNameEmpty
	default:
		return ErrCodeGeneric
	}
}
