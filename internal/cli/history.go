package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/groupwire/internal/ir"
	"github.com/roach88/groupwire/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database   string
	Kind       string
	Group      string
	Contract   string
	Definition string
	After      int64
}

// OperationEntry is one journaled operation as printed by history.
type OperationEntry struct {
	Seq        int64  `json:"seq"`
	Kind       string `json:"kind"`
	Group      string `json:"group,omitempty"`
	Importer   string `json:"importer,omitempty"`
	Exporter   string `json:"exporter,omitempty"`
	Contract   string `json:"contract,omitempty"`
	Definition string `json:"definition,omitempty"`
}

// HistoryResult holds the matching operations.
type HistoryResult struct {
	Operations []OperationEntry `json:"operations"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled operations",
		Long: `List the operations in a journal database, oldest first.

Filters combine: only operations matching every given filter are listed.
--group matches an operation naming the id as its group, importer or
exporter.

Examples:
  groupwire history --db ./groupwire.db
  groupwire history --db ./groupwire.db --kind connect
  groupwire history --db ./groupwire.db --group 0192... --after 10`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal database (required)")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only operations of this kind (add, remove, connect, ...)")
	cmd.Flags().StringVar(&opts.Group, "group", "", "only operations naming this group id")
	cmd.Flags().StringVar(&opts.Contract, "contract", "", "only operations on this import contract")
	cmd.Flags().StringVar(&opts.Definition, "definition", "", "only adds of definitions with this name")
	cmd.Flags().Int64Var(&opts.After, "after", 0, "only operations after this seq")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Database == "" {
		_ = formatter.Error(ErrCodeGeneric, "--db is required", nil)
		return NewExitError(ExitCommandError, "--db is required")
	}
	if opts.Kind != "" && !ir.ValidOperationKinds[ir.OperationKind(opts.Kind)] {
		msg := fmt.Sprintf("unknown operation kind %q", opts.Kind)
		_ = formatter.Error(ErrCodeGeneric, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}
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

	ops, err := st.FindOperations(ctx, store.OperationFilter{
		Kind:       ir.OperationKind(opts.Kind),
		Group:      ir.GroupCompositionIDFrom(opts.Group),
		Contract:   opts.Contract,
		Definition: opts.Definition,
		After:      opts.After,
	})
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	result := HistoryResult{Operations: make([]OperationEntry, len(ops))}
	for i, op := range ops {
		result.Operations[i] = operationEntry(op)
	}
	return outputHistory(formatter, result)
}

// operationEntry flattens op, reading connect endpoints from its connection.
func operationEntry(op ir.Operation) OperationEntry {
	e := OperationEntry{
		Seq:      op.Seq,
		Kind:     string(op.Kind),
		Group:    op.Group.String(),
		Importer: op.Importer.String(),
		Exporter: op.Exporter.String(),
		Contract: op.Contract,
	}
	if op.Connection != nil {
		e.Importer = op.Connection.Importer.String()
		e.Exporter = op.Connection.Exporter.String()
		e.Contract = op.Connection.Import.Contract
	}
	if op.Definition != nil {
		e.Definition = op.Definition.Name
	}
	return e
}

func outputHistory(formatter *OutputFormatter, result HistoryResult) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	if len(result.Operations) == 0 {
		fmt.Fprintln(w, "No operations found.")
		return nil
	}
	for _, e := range result.Operations {
		switch ir.OperationKind(e.Kind) {
		case ir.OpAdd:
			fmt.Fprintf(w, "%6d  %-17s %s (%s)\n", e.Seq, e.Kind, e.Group, e.Definition)
		case ir.OpRemove, ir.OpDisconnectAll:
			fmt.Fprintf(w, "%6d  %-17s %s\n", e.Seq, e.Kind, e.Group)
		case ir.OpConnect:
			fmt.Fprintf(w, "%6d  %-17s %s <- %s [%s]\n", e.Seq, e.Kind, e.Importer, e.Exporter, e.Contract)
		case ir.OpDisconnect:
			fmt.Fprintf(w, "%6d  %-17s %s <- %s\n", e.Seq, e.Kind, e.Importer, e.Exporter)
		default:
			fmt.Fprintf(w, "%6d  %-17s %s [%s]\n", e.Seq, e.Kind, e.Importer, e.Contract)
		}
	}
	fmt.Fprintf(w, "\n%d operation(s)\n", len(result.Operations))
	return nil
}
