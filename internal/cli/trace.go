package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/tfscope/internal/inspect"
	"github.com/roach88/tfscope/internal/store"
	"github.com/roach88/tfscope/internal/tf"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Frame    string
	Parent   string // optional - filter to entries under this parent
}

// TraceEvent is one recorded entry in a frame's timeline.
type TraceEvent struct {
	BatchID     string         `json:"batch_id"`
	Version     int64          `json:"version"`
	Index       int            `json:"index"`
	Parent      string         `json:"parent"`
	Translation *tf.Vector3    `json:"translation,omitempty"`
	Rotation    *tf.Quaternion `json:"rotation,omitempty"`
	Stamp       *time.Time     `json:"stamp,omitempty"`
	Malformed   string         `json:"malformed,omitempty"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Entries   int `json:"entries"`
	Malformed int `json:"malformed"`
	Reparents int `json:"reparents"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Frame    string       `json:"frame"`
	Timeline []TraceEvent `json:"timeline"`
	Stats    TraceStats   `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the recorded history of one frame",
		Long: `Show every recorded entry for a frame, in the order it was ingested.

The output includes:
- Timeline: each entry with its batch, version, parent and transform
- Stats: entry count, malformed entries, and parent changes

Malformed entries are listed with the reason they were skipped.

Examples:
  tfscope trace --db ./session.db --frame laser
  tfscope trace --db ./session.db --frame laser --parent base_link
  tfscope trace --db ./session.db --frame laser --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Frame, "frame", "", "child frame to trace (required)")
	_ = cmd.MarkFlagRequired("frame")
	cmd.Flags().StringVar(&opts.Parent, "parent", "", "filter to entries under this parent")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := os.Stat(opts.Database); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), nil)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	defer st.Close()

	history, err := st.History(ctx, opts.Frame)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to read history", err)
	}

	result := buildTrace(opts.Frame, history, opts.Parent)

	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	if len(result.Timeline) == 0 {
		fmt.Fprintf(formatter.Writer, "No entries recorded for frame: %s\n", opts.Frame)
		return nil
	}
	return outputTraceText(formatter.Writer, result)
}

// buildTrace turns history into a timeline. Reparents counts parent changes
// among well-formed entries, before the parent filter is applied.
func buildTrace(frame string, history []store.HistoryEntry, parentFilter string) TraceResult {
	result := TraceResult{Frame: frame, Timeline: []TraceEvent{}}

	lastParent := ""
	for _, h := range history {
		ev := TraceEvent{
			BatchID:     h.BatchID,
			Version:     h.Version,
			Index:       h.Index,
			Parent:      h.Record.ParentID,
			Translation: h.Record.Translation,
			Rotation:    h.Record.Rotation,
		}
		if !h.Record.Stamp.IsZero() {
			stamp := h.Record.Stamp
			ev.Stamp = &stamp
		}

		if rec, err := h.Record.Normalize(); err != nil {
			var me *tf.MalformedError
			if errors.As(err, &me) {
				ev.Malformed = me.Field + " " + me.Reason
			} else {
				ev.Malformed = err.Error()
			}
			result.Stats.Malformed++
		} else {
			if lastParent != "" && rec.ParentID != lastParent {
				result.Stats.Reparents++
			}
			lastParent = rec.ParentID
		}

		if parentFilter != "" && ev.Parent != parentFilter {
			continue
		}
		result.Timeline = append(result.Timeline, ev)
	}
	result.Stats.Entries = len(result.Timeline)
	return result
}

func outputTraceText(w io.Writer, result TraceResult) error {
	fmt.Fprintf(w, "Trace for frame: %s\n", result.Frame)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	for _, ev := range result.Timeline {
		fmt.Fprintf(w, "  [v%d] %s#%d parent=%s", ev.Version, ev.BatchID, ev.Index, ev.Parent)
		if ev.Malformed != "" {
			fmt.Fprintf(w, "  [skipped: %s]\n", ev.Malformed)
			continue
		}
		fmt.Fprintf(w, "  t=%s q=%s", inspect.FormatVector(*ev.Translation), inspect.FormatQuaternion(*ev.Rotation))
		if ev.Stamp != nil {
			fmt.Fprintf(w, "  stamp=%s", ev.Stamp.Format(time.RFC3339Nano))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Entries:   %d\n", result.Stats.Entries)
	fmt.Fprintf(w, "  Malformed: %d\n", result.Stats.Malformed)
	fmt.Fprintf(w, "  Reparents: %d\n", result.Stats.Reparents)
	return nil
}
