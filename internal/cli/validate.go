package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/groupwire/internal/compiler"
	"github.com/roach88/groupwire/internal/composition"
	"github.com/roach88/groupwire/internal/ir"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []string                   `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <catalog-dir>",
		Short: "Validate a group catalog",
		Long: `Validate the CUE group definitions and topology in a catalog.

Checks every group definition's structural rules, every topology instance
and connection, and then wires the topology in a scratch layer to catch
connection errors. A composition cycle is reported as a warning.

Exit codes:
  0 - Catalog is valid (warnings allowed)
  1 - Validation errors found
  2 - Command error (directory not found, CUE does not load, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, catalogDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cat, loadErrors := LoadCatalog(catalogDir)

	// Handle load errors (directory not found, no files, etc.)
	if cat == nil {
		return outputCommandError(formatter, loadErrors[0])
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", cat.FileCount, catalogDir)

	validationErrors := loadErrorsToValidation(loadErrors)
	var warnings []string
	if len(validationErrors) == 0 {
		validationErrors, warnings = validateCatalog(cat, formatter, opts)
	}

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}
	return outputValidateSuccess(formatter, cat, warnings)
}

// validateCatalog runs definition and topology validation, then wires the
// topology into a scratch layer. Cycles become warnings.
func validateCatalog(cat *compiler.Catalog, formatter *OutputFormatter, opts *RootOptions) ([]compiler.ValidationError, []string) {
	var errs []compiler.ValidationError

	for _, name := range cat.GroupNames() {
		formatter.VerboseLog("Validating group: %s", name)
		for _, e := range compiler.Validate(cat.Groups[name]) {
			e.Field = "group." + name + "." + e.Field
			errs = append(errs, e)
		}
	}
	errs = append(errs, compiler.ValidateTopology(cat.Topology, cat.Groups)...)
	if len(errs) > 0 {
		return errs, nil
	}

	layer := composition.NewWithoutHistory(composition.WithLogger(opts.logger()))
	names, err := buildTopology(layer, cat, ir.UUIDv7Generator{})
	if err != nil {
		return []compiler.ValidationError{{Field: "topology", Message: err.Error(), Code: layerErrorCode(err)}}, nil
	}

	var warnings []string
	r := reportLayer(layer, names)
	if r.Cycle != nil {
		warnings = append(warnings, fmt.Sprintf("composition cycle: %s", strings.Join(r.Cycle, " -> ")))
	}
	if !r.FullyWired {
		warnings = append(warnings, "topology leaves imports unsatisfied")
	}
	return nil, warnings
}

// loadErrorsToValidation converts compile errors to validation errors.
func loadErrorsToValidation(errs []error) []compiler.ValidationError {
	out := make([]compiler.ValidationError, 0, len(errs))
	for _, err := range errs {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			out = append(out, compiler.ValidationError{
				Field:   "load",
				Message: loadErr.Message,
				Code:    loadErr.Code,
				Line:    getLineFromCuePos(loadErr),
			})
		}
	}
	return out
}

// getLineFromCuePos extracts the line number of a load error's position.
func getLineFromCuePos(e *LoadError) int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, cat *compiler.Catalog, warnings []string) error {
	if formatter.JSON() {
		return formatter.Success(ValidationResult{Valid: true, Warnings: warnings})
	}

	fmt.Fprintf(formatter.Writer, "✓ Catalog valid: %d group(s), %d instance(s), %d connection(s)\n",
		len(cat.Groups), len(cat.Topology.Instances), len(cat.Topology.Connections))
	for _, w := range warnings {
		fmt.Fprintf(formatter.Writer, "  warning: %s\n", w)
	}
	return nil
}

// outputCommandError outputs a single load error as a command error.
func outputCommandError(formatter *OutputFormatter, err error) error {
	code, message := ErrCodeGeneric, err.Error()
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		code, message = loadErr.Code, loadErr.Message
	}
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.JSON() {
		result := ValidationResult{Valid: false, Errors: errs}
		if err := formatter.Failure(errs[0].Code, errs[0].Message, result); err != nil {
			return err
		}
		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
