package cli

import (
	"context"
	"fmt"
	"os"
	"reflect"

	"github.com/spf13/cobra"

	"github.com/roach88/groupwire/internal/composition"
	"github.com/roach88/groupwire/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	LayerReport
	Operations    int   `json:"operations"`
	LastSeq       int64 `json:"last_seq"`
	Deterministic bool  `json:"deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild a layer from its journal",
		Long: `Replay the operation journal and report the rebuilt layer.

This command reads every journaled operation in seq order, replays them
twice into fresh layers to verify deterministic behavior, and reports the
resulting groups, connections and instantiation order.

Exit codes:
  0 - Journal replayed deterministically
  1 - Replay failed or was non-deterministic
  2 - Command error (database not found, etc.)

Examples:
  groupwire replay --db ./groupwire.db
  groupwire replay --db ./groupwire.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal database (required)")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Database == "" {
		_ = formatter.Error(ErrCodeGeneric, "--db is required", nil)
		return NewExitError(ExitCommandError, "--db is required")
	}
	// store.Open creates missing databases; replay must not.
	if _, err := os.Stat(opts.Database); err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), nil)
		return WrapExitError(ExitCommandError, "database not found", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ops, err := st.ReadOperations(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	// Replay twice and compare the rebuilt layers.
	first, err := composition.Replay(ops, composition.WithLogger(opts.logger()))
	if err != nil {
		_ = formatter.Error(layerErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitFailure, "replay failed", err)
	}
	second, err := composition.Replay(ops, composition.WithLogger(opts.logger()))
	if err != nil {
		_ = formatter.Error(layerErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitFailure, "second replay failed", err)
	}

	report := reportLayer(first, nil)
	result := ReplayResult{
		LayerReport:   report,
		Operations:    len(ops),
		Deterministic: reflect.DeepEqual(report, reportLayer(second, nil)) && layersEqual(first, second),
	}
	if len(ops) > 0 {
		result.LastSeq = ops[len(ops)-1].Seq
	}

	return outputReplayResult(formatter, result)
}

// layersEqual compares the live connections of two layers.
func layersEqual(a, b *composition.Layer) bool {
	ac, bc := a.Connections(), b.Connections()
	if len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		if !ac[i].Equal(bc[i]) {
			return false
		}
	}
	return true
}

// outputReplayResult outputs the replay result in the configured format.
func outputReplayResult(formatter *OutputFormatter, result ReplayResult) error {
	if formatter.JSON() {
		if !result.Deterministic {
			if err := formatter.Failure("E_DETERMINISM", "determinism verification failed", result); err != nil {
				return err
			}
			// Determinism failure = exit code 1
			return NewExitError(ExitFailure, "determinism verification failed")
		}
		return formatter.Success(result)
	}

	w := formatter.Writer
	if result.Operations == 0 {
		fmt.Fprintln(w, "No operations found in database.")
		return nil
	}
	fmt.Fprintf(w, "Replay Summary: %d operation(s), last seq %d\n", result.Operations, result.LastSeq)
	fmt.Fprintln(w)
	writeReportText(w, result.LayerReport)
	fmt.Fprintln(w)

	if result.Deterministic {
		fmt.Fprintln(w, "✓ Replay verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	// Determinism failure = exit code 1
	return NewExitError(ExitFailure, "determinism verification failed")
}
