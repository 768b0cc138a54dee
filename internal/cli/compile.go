package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/groupwire/internal/compiler"
	"github.com/roach88/groupwire/internal/composition"
	"github.com/roach88/groupwire/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompiledGroup is one compiled definition with its structural hash.
type CompiledGroup struct {
	Name       string              `json:"name"`
	Hash       string              `json:"hash"`
	Definition *ir.GroupDefinition `json:"definition"`
}

// CompilationResult holds the compiled catalog.
type CompilationResult struct {
	Groups              []CompiledGroup `json:"groups"`
	Instances           int             `json:"instances"`
	Connections         int             `json:"connections"`
	DistinctDefinitions int             `json:"distinct_definitions"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <catalog-dir>",
		Short: "Compile a catalog to canonical IR",
		Long: `Compile the CUE group definitions in a catalog to canonical IR.

Each definition is reported with its structural hash. Instances whose
definitions are identical share one interned definition; the result
reports how many distinct definitions the topology needs.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, catalogDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cat, loadErrors := LoadCatalog(catalogDir)

	// Handle load errors (directory not found, no files, etc.)
	if cat == nil {
		return outputCommandError(formatter, loadErrors[0])
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", cat.FileCount, catalogDir)

	// Handle compilation errors
	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	result, err := compileResult(cat, formatter, opts.RootOptions)
	if err != nil {
		return outputCompileErrors(formatter, []error{err})
	}

	// Write to file if --output specified
	if opts.Output != "" {
		if err := writeIRToFile(result, opts.Output); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
			return WrapExitError(ExitCommandError, "writing output file", err)
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// compileResult hashes every group and interns the topology's instances to
// count distinct definitions.
func compileResult(cat *compiler.Catalog, formatter *OutputFormatter, opts *RootOptions) (*CompilationResult, error) {
	result := &CompilationResult{
		Groups:      make([]CompiledGroup, 0, len(cat.Groups)),
		Instances:   len(cat.Topology.Instances),
		Connections: len(cat.Topology.Connections),
	}
	for _, name := range cat.GroupNames() {
		formatter.VerboseLog("Compiling group: %s", name)
		def := cat.Groups[name]
		hash, err := ir.DefinitionHash(def)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", name, err)
		}
		result.Groups = append(result.Groups, CompiledGroup{Name: name, Hash: hash, Definition: def})
	}

	layer := composition.NewWithoutHistory(composition.WithLogger(opts.logger()))
	gen := ir.UUIDv7Generator{}
	for _, in := range cat.Topology.Instances {
		if err := layer.Add(gen.Generate(), cat.Groups[in.Group]); err != nil {
			return nil, fmt.Errorf("instance %s: %w", in.Name, err)
		}
	}
	result.DistinctDefinitions = layer.DistinctDefinitions()
	return result, nil
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	// Human-readable text output
	fmt.Fprintf(formatter.Writer, "✓ Compiled %d group(s)\n\n", len(result.Groups))

	fmt.Fprintln(formatter.Writer, "Groups:")
	for _, g := range result.Groups {
		fmt.Fprintf(formatter.Writer, "  %s: %d part(s), %d import(s), %s\n",
			g.Name, len(g.Definition.Parts), len(g.Definition.GroupImports), g.Hash)
	}
	fmt.Fprintln(formatter.Writer)

	fmt.Fprintf(formatter.Writer, "%d instance(s) share %d distinct definition(s)\n",
		result.Instances, result.DistinctDefinitions)

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Wrote canonical IR to %s\n", outputFile)
	}

	return nil
}

// outputCompileErrors outputs multiple compilation errors.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.JSON() {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseCompileError(err)
			cliErrors[i] = CLIError{Code: code, Message: message}
		}
		if err := formatter.Failure(cliErrors[0].Code, cliErrors[0].Message, cliErrors); err != nil {
			return err
		}
		// Compilation errors are command-level errors (exit code 2)
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		code, message := parseCompileError(err)
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(),
				loadErr.Pos.Line(),
				loadErr.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}

	// Compilation errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// parseCompileError extracts error code and message from an error.
func parseCompileError(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	if code := composition.CodeOf(err); code != "" {
		return string(code), err.Error()
	}
	return ErrCodeGeneric, err.Error()
}

// writeIRToFile writes the compilation result to a file.
func writeIRToFile(result *CompilationResult, filename string) error {
	// Use standard JSON with indentation for readability
	// (canonical JSON without indentation is used only for hashing)
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling IR: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
