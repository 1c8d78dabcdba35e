package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tfscope/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Frames int                        `json:"frames"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <frames.cue>",
		Short: "Validate a static frame file",
		Long: `Validate a static frame file against the frame schema.

Checks CUE syntax and schema conformance, then applies the ingest record
rules to every frame and rejects duplicate frame ids and parent cycles.
All problems are reported, not just the first.

Exit codes:
  0 - File is valid
  1 - File has validation errors
  2 - Command error (file not found)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	if _, err := os.Stat(path); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("static frame file not found: %s", path), nil)
	}

	formatter.VerboseLog("Validating %s", path)
	records, err := compiler.CompileFile(path)
	if err != nil {
		return outputValidationErrors(formatter, toValidationErrors(err))
	}

	if formatter.IsJSON() {
		return formatter.Success(ValidationResult{Valid: true, Frames: len(records)})
	}
	fmt.Fprintf(formatter.Writer, "✓ %d frame(s) valid\n", len(records))
	return nil
}

// toValidationErrors flattens a compile failure into validation errors.
func toValidationErrors(err error) []compiler.ValidationError {
	if errs, ok := compiler.AsValidationErrors(err); ok {
		return errs
	}

	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		ve := compiler.ValidationError{
			Field:   compileErr.Field,
			Message: compileErr.Message,
			Code:    ErrCodeStatic,
		}
		if compileErr.Pos.IsValid() {
			ve.Line = compileErr.Pos.Line()
		}
		return []compiler.ValidationError{ve}
	}

	return []compiler.ValidationError{{Field: "file", Message: err.Error(), Code: ErrCodeGeneric}}
}

// outputValidationErrors outputs every validation error.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.IsJSON() {
		if err := formatter.Failure(errs[0].Code, errs[0].Message, ValidationResult{Valid: false, Errors: errs}); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	return exitErr
}
