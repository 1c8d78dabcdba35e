package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tfscope/internal/inspect"
	"github.com/roach88/tfscope/internal/resolver"
	"github.com/roach88/tfscope/internal/tf"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	*RootOptions
	SourceOptions
}

// ResolveResult is the answer to one target/source query.
type ResolveResult struct {
	Target    string        `json:"target"`
	Source    string        `json:"source"`
	Found     bool          `json:"found"`
	Transform *tf.Transform `json:"transform,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	Detail    string        `json:"detail,omitempty"`
}

// lookuper is the query surface shared by live and replayed buffers.
type lookuper interface {
	Lookup(target, source string) (tf.Transform, error)
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve <target> <source>",
		Short: "Print the transform mapping source into target",
		Long: `Load the input stream (and optional static frames) into a frame tree, then
print the transform that maps points expressed in <source> into <target>.

Exit codes:
  0 - Transform found
  1 - Transform absent (unknown frame or disconnected trees)
  2 - Command error (bad paths, undecodable input, etc.)

Examples:
  tfscope resolve map laser --input robot.ndjson
  tfscope resolve base_link camera --static frames.cue
  tfscope resolve map laser --input robot.cbor --input-format cbor --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(opts, args[0], args[1], cmd)
		},
	}

	bindSourceFlags(cmd, &opts.SourceOptions)

	return cmd
}

func runResolve(opts *ResolveOptions, target, source string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	buf, err := loadBuffer(cmd.Context(), &opts.SourceOptions, cmd.InOrStdin(), logger)
	if err != nil {
		return failLoad(formatter, err)
	}
	formatter.VerboseLog("loaded %d frame(s) at version %d", len(buf.AllFrameIDs()), buf.Version())

	return outputResolve(formatter, lookup(buf, target, source))
}

// lookup runs one query and records why it failed, if it did.
func lookup(l lookuper, target, source string) ResolveResult {
	res := ResolveResult{Target: target, Source: source}
	t, err := l.Lookup(target, source)
	if err != nil {
		res.Detail = err.Error()
		var le *resolver.LookupError
		if errors.As(err, &le) {
			res.Reason = string(le.Code)
		}
		return res
	}
	res.Found = true
	res.Transform = &t
	return res
}

// outputResolve prints res. An absent transform exits 1.
func outputResolve(f *OutputFormatter, res ResolveResult) error {
	if !res.Found {
		msg := fmt.Sprintf("no transform from %s to %s", res.Source, res.Target)
		if f.IsJSON() {
			if err := f.Failure(ErrCodeAbsent, msg, res); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(f.Writer, "%s <- %s: absent (%s)\n", res.Target, res.Source, res.Reason)
			f.VerboseLog("%s", res.Detail)
		}
		return NewExitError(ExitFailure, msg)
	}

	if f.IsJSON() {
		return f.Success(res)
	}
	fmt.Fprintf(f.Writer, "%s <- %s\n", res.Target, res.Source)
	fmt.Fprintf(f.Writer, "  translation: %s\n", inspect.FormatVector(res.Transform.Translation))
	fmt.Fprintf(f.Writer, "  rotation:    %s\n", inspect.FormatQuaternion(res.Transform.Rotation))
	return nil
}
