package testutil

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/tfscope/internal/tf"
)

// AssertTransformNear fails the test if got differs from want by more than
// Tolerance in translation or rotation (up to quaternion sign).
func AssertTransformNear(t testing.TB, want, got tf.Transform, msgAndArgs ...any) bool {
	t.Helper()
	if tf.Near(want, got, Tolerance) {
		return true
	}
	return assert.Fail(t, fmt.Sprintf("transforms differ\nwant %+v\n got %+v", want, got), msgAndArgs...)
}

// AssertTranslation fails the test if got's translation differs from
// (x, y, z) by more than Tolerance.
func AssertTranslation(t testing.TB, x, y, z float64, got tf.Transform) bool {
	t.Helper()
	ok := assert.InDelta(t, x, got.Translation.X, Tolerance, "x")
	ok = assert.InDelta(t, y, got.Translation.Y, Tolerance, "y") && ok
	ok = assert.InDelta(t, z, got.Translation.Z, Tolerance, "z") && ok
	return ok
}
