package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/tfscope/internal/inspect"
)

// TreeOptions holds flags for the tree command.
type TreeOptions struct {
	*RootOptions
	SourceOptions
}

// NewTreeCommand creates the tree command.
func NewTreeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TreeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the frame tree",
		Long: `Load the input stream (and optional static frames) and print every frame,
depth first from the sorted roots, with its local transform and its pose in
the nominal root.

Examples:
  tfscope tree --input robot.ndjson
  tfscope tree --static frames.cue --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(opts, cmd)
		},
	}

	bindSourceFlags(cmd, &opts.SourceOptions)

	return cmd
}

func runTree(opts *TreeOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	buf, err := loadBuffer(cmd.Context(), &opts.SourceOptions, cmd.InOrStdin(), logger)
	if err != nil {
		return failLoad(formatter, err)
	}
	return outputTree(formatter, inspect.Take(buf))
}

func outputTree(f *OutputFormatter, snap inspect.Snapshot) error {
	if f.IsJSON() {
		return f.Success(snap)
	}
	return inspect.Render(f.Writer, snap)
}
