package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tfscope/internal/compiler"
	"github.com/roach88/tfscope/internal/inspect"
	"github.com/roach88/tfscope/internal/tf"
	"github.com/roach88/tfscope/internal/wire"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output       string // output file path
	OutputFormat string // json | cbor
}

// CompiledFrame is one static frame as it will be ingested.
type CompiledFrame struct {
	Child     string       `json:"child"`
	Parent    string       `json:"parent"`
	Transform tf.Transform `json:"transform"`
}

// CompilationResult holds the compiled static batch.
type CompilationResult struct {
	Frames []CompiledFrame `json:"frames"`
	Output string          `json:"output,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <frames.cue>",
		Short: "Compile a static frame file to a transform message",
		Long: `Compile a static frame file into the batch that --static would apply,
sorted by child frame id.

With --output the batch is written as a single transform message, in JSON
or CBOR, so it can be fed to any command that reads --input.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().StringVar(&opts.OutputFormat, "output-format", string(wire.FormatJSON), "output encoding (json|cbor)")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	format, err := wire.ParseFormat(opts.OutputFormat)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	records, err := loadStatic(path)
	if err != nil {
		return failLoad(formatter, err)
	}
	formatter.VerboseLog("Compiled %d frame(s) from %s", len(records), path)

	result := CompilationResult{Frames: make([]CompiledFrame, 0, len(records))}
	for _, r := range records {
		result.Frames = append(result.Frames, CompiledFrame{Child: r.ChildID, Parent: r.ParentID, Transform: r.Transform()})
	}

	if opts.Output != "" {
		if err := writeMessageFile(opts.Output, format, records); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, "writing output file", err)
		}
		result.Output = opts.Output
	}

	return outputCompileSuccess(formatter, result)
}

// writeMessageFile writes records as one transform message.
func writeMessageFile(path string, format wire.Format, records []tf.Record) error {
	var buf bytes.Buffer
	if err := wire.WriteSequence(&buf, format, wire.FromRecords(records)); err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result CompilationResult) error {
	if formatter.IsJSON() {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d frame(s)\n\n", len(result.Frames))
	for _, f := range result.Frames {
		fmt.Fprintf(formatter.Writer, "  %s <- %s  t=%s q=%s\n", f.Parent, f.Child,
			inspect.FormatVector(f.Transform.Translation), inspect.FormatQuaternion(f.Transform.Rotation))
	}

	if result.Output != "" {
		fmt.Fprintf(formatter.Writer, "\nWrote transform message to %s\n", result.Output)
	}
	return nil
}
