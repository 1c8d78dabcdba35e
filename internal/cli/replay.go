package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"reflect"

	"github.com/spf13/cobra"

	"github.com/roach88/tfscope/internal/buffer"
	"github.com/roach88/tfscope/internal/inspect"
	"github.com/roach88/tfscope/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database    string
	NominalRoot string
}

// ReplayResult holds the replay result.
type ReplayResult struct {
	Database      string            `json:"database"`
	Batches       int               `json:"batches"`
	Version       int64             `json:"version"`
	Deterministic bool              `json:"deterministic"`
	Divergence    string            `json:"divergence,omitempty"`
	Tree          *inspect.Snapshot `json:"tree,omitempty"`
	Resolve       *ResolveResult    `json:"resolve,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay [target source]",
		Short: "Rebuild a frame tree from a recording and verify determinism",
		Long: `Rebuild the frame tree from a recording made by "tfscope record".

The recording is replayed twice. Replay is deterministic when every batch
gets the version it was recorded with and both replays end in the same tree.
With no arguments the final tree is printed; with <target> <source> the
transform between them is printed instead.

Exit codes:
  0 - Replay is deterministic (and the transform exists, if asked)
  1 - Replay diverged, or the requested transform is absent
  2 - Command error (database not found, etc.)

Examples:
  tfscope replay --db ./session.db
  tfscope replay --db ./session.db map laser
  tfscope replay --db ./session.db --format json`,
		Args:          cobra.MatchAll(cobra.MaximumNArgs(2), evenArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.NominalRoot, "nominal-root", buffer.DefaultNominalRoot, "fallback root when the tree has zero or several roots")

	return cmd
}

// evenArgs accepts zero args or a target/source pair.
func evenArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return fmt.Errorf("replay takes no arguments or <target> <source>, got 1")
	}
	return nil
}

func runReplay(opts *ReplayOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Open would create a missing database.
	if _, err := os.Stat(opts.Database); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), nil)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	defer st.Close()

	batches, err := st.Batches(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to read recording", err)
	}

	if len(batches) == 0 {
		if formatter.IsJSON() {
			return formatter.Success(ReplayResult{Database: opts.Database, Deterministic: true})
		}
		fmt.Fprintln(formatter.Writer, "No batches recorded.")
		return nil
	}

	first, divergence := replayOnce(ctx, batches, opts.NominalRoot, logger)
	second, _ := replayOnce(ctx, batches, opts.NominalRoot, logger)
	firstSnap, secondSnap := inspect.Take(first), inspect.Take(second)
	if divergence == "" && !reflect.DeepEqual(firstSnap, secondSnap) {
		divergence = "two replays of the same recording produced different trees"
	}

	result := ReplayResult{
		Database:      opts.Database,
		Batches:       len(batches),
		Version:       first.Version(),
		Deterministic: divergence == "",
		Divergence:    divergence,
	}
	if len(args) == 2 {
		res := lookup(first, args[0], args[1])
		result.Resolve = &res
	} else {
		result.Tree = &firstSnap
	}

	return outputReplay(formatter, result)
}

// replayOnce applies the recording to a fresh buffer with the recorded batch
// ids. It returns the first version mismatch, if any.
func replayOnce(ctx context.Context, batches []store.RecordedBatch, nominalRoot string, logger *slog.Logger) (*buffer.Buffer, string) {
	ids := make([]string, len(batches))
	for i, b := range batches {
		ids[i] = b.ID
	}
	buf := buffer.New(
		buffer.WithNominalRoot(nominalRoot),
		buffer.WithLogger(logger),
		buffer.WithBatchIDs(buffer.NewFixedGenerator(ids...)),
	)

	var divergence string
	for _, b := range batches {
		res := buf.ApplyBatch(ctx, b.Records)
		if res.Version != b.Version && divergence == "" {
			divergence = fmt.Sprintf("batch %s: recorded at version %d, replayed at %d", b.ID, b.Version, res.Version)
		}
	}
	return buf, divergence
}

func outputReplay(f *OutputFormatter, res ReplayResult) error {
	absent := res.Resolve != nil && !res.Resolve.Found

	if f.IsJSON() {
		switch {
		case !res.Deterministic:
			if err := f.Failure(ErrCodeDiverged, res.Divergence, res); err != nil {
				return err
			}
		case absent:
			msg := fmt.Sprintf("no transform from %s to %s", res.Resolve.Source, res.Resolve.Target)
			if err := f.Failure(ErrCodeAbsent, msg, res); err != nil {
				return err
			}
			return NewExitError(ExitFailure, msg)
		default:
			return f.Success(res)
		}
		return NewExitError(ExitFailure, "replay diverged: "+res.Divergence)
	}

	fmt.Fprintf(f.Writer, "Replayed %d batch(es) from %s (version %d)\n", res.Batches, res.Database, res.Version)
	if res.Deterministic {
		fmt.Fprintln(f.Writer, "✓ Deterministic")
	} else {
		fmt.Fprintf(f.Writer, "✗ Diverged: %s\n", res.Divergence)
	}
	fmt.Fprintln(f.Writer)

	var outErr error
	if res.Resolve != nil {
		outErr = outputResolve(f, *res.Resolve)
	} else if err := inspect.Render(f.Writer, *res.Tree); err != nil {
		return err
	}

	if !res.Deterministic {
		return NewExitError(ExitFailure, "replay diverged: "+res.Divergence)
	}
	return outErr
}
