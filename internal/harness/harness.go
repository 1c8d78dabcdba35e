package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/roach88/tfscope/internal/buffer"
	"github.com/roach88/tfscope/internal/compiler"
	"github.com/roach88/tfscope/internal/inspect"
	"github.com/roach88/tfscope/internal/tf"
)

// Harness executes one scenario against one buffer.
type Harness struct {
	buf    *buffer.Buffer
	result *Result
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh buffer for isolation. An error is
// returned only when the scenario cannot run at all (static file fails to
// compile); failed expectations are reported in Result.Errors.
//
// Execution flow:
//  1. Create a buffer with sequential batch ids and discarded logs
//  2. Apply the static frame file, if any, as the first batch
//  3. Execute steps in order
//  4. Render the final tree into Result.Tree
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	opts := []buffer.Option{
		buffer.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in tests
		buffer.WithBatchIDs(buffer.NewSequenceGenerator("batch")),
	}
	if scenario.NominalRoot != "" {
		opts = append(opts, buffer.WithNominalRoot(scenario.NominalRoot))
	}

	h := &Harness{
		buf:    buffer.New(opts...),
		result: NewResult(),
	}
	h.buf.On(buffer.EventUpdate, func(u buffer.Update) error {
		h.result.Updates = append(h.result.Updates, UpdateEvent{
			BatchID: u.BatchID,
			Version: u.Version,
			Applied: u.Applied,
			Skipped: u.Skipped,
			Frames:  u.Frames,
		})
		return nil
	})

	if scenario.Static != "" {
		records, err := compiler.CompileFile(scenario.Static)
		if err != nil {
			return nil, fmt.Errorf("failed to compile static frames: %w", err)
		}
		h.buf.ApplyBatch(ctx, records)
	}

	for i, step := range scenario.Steps {
		h.execute(ctx, i, step)
	}

	var tree strings.Builder
	if err := inspect.Render(&tree, inspect.Take(h.buf)); err != nil {
		return nil, fmt.Errorf("failed to render tree: %w", err)
	}
	h.result.Tree = tree.String()

	return h.result, nil
}

func (h *Harness) execute(ctx context.Context, i int, step Step) {
	switch step.Kind {
	case StepIngest:
		records := make([]tf.Record, len(step.Ingest))
		for j, e := range step.Ingest {
			records[j] = e.Record()
		}
		h.buf.ApplyBatch(ctx, records)
	case StepExpectResolve:
		h.report(i, step.Kind, checkResolve(h.buf, step.ExpectResolve))
	case StepExpectChildren:
		h.report(i, step.Kind, checkChildren(h.buf, step.ExpectChildren))
	case StepExpectRoots:
		h.report(i, step.Kind, checkRoots(h.buf, step.ExpectRoots))
	case StepExpectNominalRoot:
		h.report(i, step.Kind, checkNominalRoot(h.buf, step.ExpectNominalRoot))
	}
}

func (h *Harness) report(i int, kind, msg string) {
	if msg != "" {
		h.result.AddError(fmt.Sprintf("steps[%d].%s: %s", i, kind, msg))
	}
}

func secondsToTime(sec float64) time.Time {
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(math.Round(frac*1e9))).UTC()
}
