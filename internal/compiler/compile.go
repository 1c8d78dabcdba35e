package compiler

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/tfscope/internal/tf"
)

//go:embed schema.cue
var schemaSource []byte

// CompileFile reads and compiles a static frame file.
func CompileFile(path string) ([]tf.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read static frames: %w", err)
	}
	return CompileSource(path, data)
}

// CompileSource compiles CUE source. filename is used in error positions.
func CompileSource(filename string, src []byte) ([]tf.Record, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("embedded schema: %w", err)
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	unified := schema.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileFrames(unified)
}

// CompileFrames extracts the batch from a value that already satisfies the
// schema. Returns ValidationErrors if any frame breaks the record rules.
func CompileFrames(v cue.Value) ([]tf.Record, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	framesVal := v.LookupPath(cue.ParsePath("frames"))
	if !framesVal.Exists() {
		return nil, &CompileError{
			Field:   "frames",
			Message: "frames is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := framesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var (
		records   []tf.Record
		positions = make(map[string]token.Pos)
	)
	for iter.Next() {
		child := iter.Selector().Unquoted()
		rec, err := parseFrame(child, iter.Value())
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
		positions[child] = iter.Value().Pos()
	}

	normalized, errs := Validate(records)
	if len(errs) > 0 {
		for i := range errs {
			if pos, ok := positions[errs[i].Frame]; ok && pos.IsValid() {
				errs[i].Line = pos.Line()
			}
		}
		return nil, errs
	}

	sort.Slice(normalized, func(i, j int) bool {
		return normalized[i].ChildID < normalized[j].ChildID
	})
	return normalized, nil
}

func parseFrame(child string, v cue.Value) (tf.Record, error) {
	field := func(name string) string { return fmt.Sprintf("frames.%s.%s", child, name) }

	parent, err := v.LookupPath(cue.ParsePath("parent")).String()
	if err != nil {
		return tf.Record{}, formatCUEError(err)
	}

	translation := tf.Vector3{}
	if tv := v.LookupPath(cue.ParsePath("translation")); tv.Exists() {
		xs, err := floats(tv, 3)
		if err != nil {
			return tf.Record{}, err
		}
		translation = tf.Vector3{X: xs[0], Y: xs[1], Z: xs[2]}
	}

	rotVal := v.LookupPath(cue.ParsePath("rotation"))
	rpyVal := v.LookupPath(cue.ParsePath("rpy"))

	rotation := tf.IdentityRotation()
	switch {
	case rotVal.Exists() && rpyVal.Exists():
		return tf.Record{}, &CompileError{
			Field:   field("rotation"),
			Message: "rotation and rpy are mutually exclusive",
			Pos:     rpyVal.Pos(),
		}
	case rotVal.Exists():
		xs, err := floats(rotVal, 4)
		if err != nil {
			return tf.Record{}, err
		}
		rotation = tf.Quaternion{X: xs[0], Y: xs[1], Z: xs[2], W: xs[3]}
	case rpyVal.Exists():
		xs, err := floats(rpyVal, 3)
		if err != nil {
			return tf.Record{}, err
		}
		rotation = tf.FromRPY(xs[0], xs[1], xs[2])
	}

	return tf.Record{
		ParentID:    parent,
		ChildID:     child,
		Translation: &translation,
		Rotation:    &rotation,
	}, nil
}

func floats(v cue.Value, n int) ([]float64, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	out := make([]float64, 0, n)
	for iter.Next() {
		f, err := iter.Value().Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, f)
	}
	if len(out) != n {
		return nil, &CompileError{
			Field:   "list",
			Message: fmt.Sprintf("want %d numbers, got %d", n, len(out)),
			Pos:     v.Pos(),
		}
	}
	return out, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
