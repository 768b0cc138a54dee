package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/groupwire/internal/composition"
	"github.com/roach88/groupwire/internal/ir"
	"github.com/roach88/groupwire/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string

	// IDGenerator allows overriding the group id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator ir.GroupIDGenerator
}

// RunResult is the output of the run command.
type RunResult struct {
	LayerReport
	Database   string `json:"database,omitempty"`
	Operations int64  `json:"operations,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <catalog-dir>",
		Short: "Wire a catalog's topology",
		Long: `Build the catalog's topology in a composition layer and report it.

Every instance is added under a fresh id and every connection is requested.
The report lists each instance's satisfied and unsatisfied imports and the
instantiation order, or the cycle that prevents one.

With --db, every mutation is journaled to a SQLite database (created if it
doesn't exist). Runs against an existing journal append to it.

Exit codes:
  0 - Topology wired without a cycle
  1 - Wiring failed or the topology has a cycle
  2 - Command error (catalog not found, database error, etc.)

Example:
  groupwire run ./catalog
  groupwire run --db ./groupwire.db ./catalog --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTopology(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal database")

	return cmd
}

func runTopology(opts *RunOptions, catalogDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := opts.logger()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cat, loadErrors := LoadCatalog(catalogDir)
	if cat == nil {
		return outputCommandError(formatter, loadErrors[0])
	}
	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}
	logger.Info("catalog compiled", "dir", catalogDir, "groups", len(cat.Groups), "instances", len(cat.Topology.Instances))

	layerOpts := []composition.Option{composition.WithLogger(logger)}

	var st *store.Store
	if opts.Database != "" {
		// Open database (create if not exists)
		logger.Info("opening database", "path", opts.Database)
		var err error
		st, err = store.Open(opts.Database)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()

		last, err := st.MaxSeq(ctx)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read journal", err)
		}
		layerOpts = append(layerOpts,
			composition.WithJournal(store.NewJournal(ctx, st)),
			composition.WithClock(composition.NewClockAt(last)),
		)
	}

	gen := opts.IDGenerator
	if gen == nil {
		gen = ir.UUIDv7Generator{}
	}

	layer := composition.NewWithoutHistory(layerOpts...)
	names, err := buildTopology(layer, cat, gen)
	if err != nil {
		_ = formatter.Error(layerErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitFailure, "wiring failed", err)
	}

	result := RunResult{LayerReport: reportLayer(layer, names), Database: opts.Database}
	if st != nil {
		n, err := st.CountOperations(ctx)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to count operations", err)
		}
		result.Operations = n
	}

	if err := outputRunResult(formatter, result); err != nil {
		return err
	}
	if result.Cycle != nil {
		return NewExitError(ExitFailure, "topology has a composition cycle")
	}
	return nil
}

func outputRunResult(formatter *OutputFormatter, result RunResult) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}
	writeReportText(formatter.Writer, result.LayerReport)
	if result.Database != "" {
		fmt.Fprintf(formatter.Writer, "Journaled to %s (%d operation(s))\n", result.Database, result.Operations)
	}
	return nil
}
