package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/tfscope/internal/buffer"
	"github.com/roach88/tfscope/internal/store"
	"github.com/roach88/tfscope/internal/tf"
)

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	SourceOptions
	Database string

	// BatchIDs allows overriding the batch id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	BatchIDs buffer.BatchIDGenerator
}

// RecordResult summarises one recording session.
type RecordResult struct {
	Database string   `json:"database"`
	Batches  int      `json:"batches"`
	Applied  int      `json:"applied"`
	Skipped  int      `json:"skipped"`
	Version  int64    `json:"version"`
	Roots    []string `json:"roots"`
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Ingest a message stream and record every batch to SQLite",
		Long: `Ingest a transform message stream through the single-writer buffer loop
and record every applied batch, malformed entries included, to a SQLite
database for offline replay.

The database is created if it does not exist and must not already hold a
recording. Reading stops at the end of the input or on Ctrl-C.

Example:
  tfscope record --input robot.ndjson --db ./session.db
  cat robot.cbor | tfscope record --input - --input-format cbor --db ./session.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(opts, cmd)
		},
	}

	bindSourceFlags(cmd, &opts.SourceOptions)
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runRecord(opts *RecordOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	static, err := loadStatic(opts.Static)
	if err != nil {
		return failLoad(formatter, err)
	}
	reader, closer, err := openInput(&opts.SourceOptions, cmd.InOrStdin())
	if err != nil {
		return failLoad(formatter, err)
	}
	defer closer.Close()

	logger.Info("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	if n, err := st.Count(parentCtx); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to read database", err)
	} else if n > 0 {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase,
			fmt.Sprintf("database %s already holds a recording of %d batch(es)", opts.Database, n), nil)
	}

	batchIDs := opts.BatchIDs
	if batchIDs == nil {
		batchIDs = buffer.UUIDv7Generator{}
	}
	buf := buffer.New(append(opts.bufferOptions(logger),
		buffer.WithRecorder(st),
		buffer.WithBatchIDs(batchIDs),
	)...)

	result := RecordResult{Database: opts.Database}
	buf.On(buffer.EventUpdate, func(u buffer.Update) error {
		result.Batches++
		result.Applied += u.Applied
		result.Skipped += u.Skipped
		return nil
	})

	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	loop := buffer.NewLoop(buf)
	runErr := make(chan error, 1)
	go func() { runErr <- loop.Run(ctx) }()

	if static != nil {
		loop.Enqueue(static)
	}
	readErr := feed(ctx, loop, reader)

	if err := loop.Query(ctx, func(b *buffer.Buffer) {
		result.Version = b.Version()
		result.Roots = b.Roots()
	}); err != nil {
		logger.Debug("final query skipped", "error", err)
	}
	loop.Stop()

	if err := <-runErr; err != nil && !errors.Is(err, context.Canceled) {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, "buffer loop error", err)
	}
	if readErr != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDecodeFailed, "input stream", readErr)
	}

	logger.Info("recording complete", "batches", result.Batches, "version", result.Version)
	return outputRecord(formatter, result)
}

// feed enqueues one batch per message until EOF, a decode error or ctx is
// done.
func feed(ctx context.Context, loop *buffer.Loop, reader batchReader) error {
	for ctx.Err() == nil {
		records, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if !loop.Enqueue(records) {
			return nil
		}
	}
	return nil
}

// batchReader is the part of wire.Reader that feed uses.
type batchReader interface {
	Next() ([]tf.Record, error)
}

func outputRecord(f *OutputFormatter, res RecordResult) error {
	if f.IsJSON() {
		return f.Success(res)
	}
	fmt.Fprintf(f.Writer, "✓ Recorded %d batch(es) to %s\n", res.Batches, res.Database)
	fmt.Fprintf(f.Writer, "  version: %d, applied: %d, skipped: %d\n", res.Version, res.Applied, res.Skipped)
	return nil
}
