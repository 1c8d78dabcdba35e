package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/tfscope/internal/tf"
)

// Validation error codes (E100-E199)
const (
	ErrMalformedFrame = "E101" // fails the ingest record rules
	ErrDuplicateFrame = "E102" // two labels normalise to the same frame id
	ErrParentCycle    = "E103" // parent chain returns to the frame
)

// ValidationError represents one rejected static frame.
type ValidationError struct {
	Frame   string `json:"frame"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors is every problem found in one file.
type ValidationErrors []ValidationError

func (es ValidationErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// AsValidationErrors unwraps err into the list of validation errors.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var es ValidationErrors
	if errors.As(err, &es) {
		return es, true
	}
	return nil, false
}

// Validate applies the ingest record rules to each static frame and checks
// the set as a whole. It returns the normalised records in input order and
// all errors found (does not fail fast).
func Validate(records []tf.Record) ([]tf.Record, ValidationErrors) {
	var (
		errs  ValidationErrors
		out   = make([]tf.Record, 0, len(records))
		owner = make(map[string]string, len(records))
	)

	for _, raw := range records {
		rec, err := raw.Normalize()
		if err != nil {
			var me *tf.MalformedError
			field := "frames." + raw.ChildID
			if errors.As(err, &me) {
				field += "." + me.Field
			}
			errs = append(errs, ValidationError{
				Frame:   raw.ChildID,
				Field:   field,
				Message: err.Error(),
				Code:    ErrMalformedFrame,
			})
			continue
		}

		if first, dup := owner[rec.ChildID]; dup {
			errs = append(errs, ValidationError{
				Frame:   raw.ChildID,
				Field:   "frames." + raw.ChildID,
				Message: fmt.Sprintf("same frame as %q after normalisation", first),
				Code:    ErrDuplicateFrame,
			})
			continue
		}
		owner[rec.ChildID] = raw.ChildID
		out = append(out, rec)
	}

	for _, c := range FindCycles(out) {
		label := owner[c.Path[0]]
		errs = append(errs, ValidationError{
			Frame:   label,
			Field:   "frames." + label + ".parent",
			Message: c.Message,
			Code:    ErrParentCycle,
		})
	}

	return out, errs
}
