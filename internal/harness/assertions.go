package harness

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/tfscope/internal/buffer"
	"github.com/roach88/tfscope/internal/inspect"
	"github.com/roach88/tfscope/internal/resolver"
	"github.com/roach88/tfscope/internal/tf"
)

// Each check returns "" on success or a failure message.

func checkResolve(b *buffer.Buffer, want *ExpectResolve) string {
	got, err := b.Lookup(want.Target, want.Source)

	if want.Absent {
		if err == nil {
			return fmt.Sprintf("%s <- %s: want absent, got t=%s q=%s", want.Target, want.Source,
				inspect.FormatVector(got.Translation), inspect.FormatQuaternion(got.Rotation))
		}
		if want.Reason != "" {
			var le *resolver.LookupError
			code := absenceReasons[want.Reason]
			if !errors.As(err, &le) || le.Code != code {
				return fmt.Sprintf("%s <- %s: want reason %s, got %v", want.Target, want.Source, want.Reason, err)
			}
		}
		return ""
	}

	if err != nil {
		return fmt.Sprintf("%s <- %s: want transform, got absent (%v)", want.Target, want.Source, err)
	}

	expected := got
	if len(want.Translation) == 3 {
		expected.Translation = tf.Vector3{X: want.Translation[0], Y: want.Translation[1], Z: want.Translation[2]}
	}
	switch {
	case len(want.Rotation) == 4:
		q := tf.Quaternion{X: want.Rotation[0], Y: want.Rotation[1], Z: want.Rotation[2], W: want.Rotation[3]}
		if n, ok := q.Normalize(); ok {
			q = n
		}
		expected.Rotation = q
	case len(want.RPY) == 3:
		expected.Rotation = tf.FromRPY(want.RPY[0], want.RPY[1], want.RPY[2])
	}

	tol := want.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	if !tf.Near(expected, got, tol) {
		return fmt.Sprintf("%s <- %s: want t=%s q=%s, got t=%s q=%s", want.Target, want.Source,
			inspect.FormatVector(expected.Translation), inspect.FormatQuaternion(expected.Rotation),
			inspect.FormatVector(got.Translation), inspect.FormatQuaternion(got.Rotation))
	}
	return ""
}

func checkChildren(b *buffer.Buffer, want *ExpectChildren) string {
	got := b.ChildrenOf(want.Frame)
	if !slices.Equal(got, want.Children) {
		return fmt.Sprintf("children of %s: want %v, got %v", want.Frame, want.Children, got)
	}
	return ""
}

func checkRoots(b *buffer.Buffer, want []string) string {
	got := b.Roots()
	if !slices.Equal(got, want) {
		return fmt.Sprintf("want %v, got %v", want, got)
	}
	return ""
}

func checkNominalRoot(b *buffer.Buffer, want string) string {
	if got := b.NominalRoot(); got != tf.NormalizeFrameID(want) {
		return fmt.Sprintf("want %s, got %s", want, got)
	}
	return ""
}
