package compiler

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tfscope/internal/testutil"
	"github.com/roach88/tfscope/internal/tf"
)

func TestValidate_Clean(t *testing.T) {
	out, errs := Validate([]tf.Record{
		testutil.Offset("/map", "base_link", 1, 0, 0),
		testutil.Offset("base_link", "laser", 0, 0, 0),
	})
	assert.Empty(t, errs)
	require.Len(t, out, 2)
	assert.Equal(t, "map", out[0].ParentID)
}

func TestValidate_CollectsAll(t *testing.T) {
	nan := testutil.Offset("map", "nan", math.NaN(), 0, 0)
	noParent := testutil.Offset("", "orphan", 0, 0, 0)

	out, errs := Validate([]tf.Record{nan, noParent, testutil.Offset("map", "ok", 0, 0, 0)})
	require.Len(t, errs, 2)
	assert.Equal(t, "frames.nan.translation", errs[0].Field)
	assert.Equal(t, "frames.orphan.frame_id", errs[1].Field)
	assert.Len(t, out, 1)
}

func TestValidationError_Format(t *testing.T) {
	e := ValidationError{Field: "frames.a.parent", Message: "parent cycle: a -> b -> a", Code: ErrParentCycle, Line: 4}
	assert.Equal(t, "[E103] line 4: frames.a.parent: parent cycle: a -> b -> a", e.Error())

	e.Line = 0
	assert.Equal(t, "[E103] frames.a.parent: parent cycle: a -> b -> a", e.Error())
}

func TestAsValidationErrors(t *testing.T) {
	es := ValidationErrors{{Field: "f", Message: "m", Code: ErrMalformedFrame}}
	wrapped := fmt.Errorf("static frames: %w", es)

	got, ok := AsValidationErrors(wrapped)
	require.True(t, ok)
	assert.Equal(t, es, got)

	_, ok = AsValidationErrors(errors.New("other"))
	assert.False(t, ok)
}
