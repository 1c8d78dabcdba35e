package tf

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vec(x, y, z float64) *Vector3 { return &Vector3{X: x, Y: y, Z: z} }

func rot(x, y, z, w float64) *Quaternion { return &Quaternion{X: x, Y: y, Z: z, W: w} }

func TestRecordNormalize_Valid(t *testing.T) {
	r := Record{ParentID: "/map", ChildID: " base_link", Translation: vec(1, 0, 0), Rotation: rot(0, 0, 0, 2)}

	got, err := r.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "map", got.ParentID)
	assert.Equal(t, "base_link", got.ChildID)
	assert.InDelta(t, 1.0, got.Rotation.W, tol)

	// Input is not mutated.
	assert.Equal(t, 2.0, r.Rotation.W)
}

func TestRecordNormalize_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		rec    Record
		field  string
		reason string
	}{
		{"missing child", Record{ParentID: "map", Translation: vec(0, 0, 0), Rotation: rot(0, 0, 0, 1)}, "child_frame_id", ReasonMissing},
		{"missing parent", Record{ChildID: "a", Translation: vec(0, 0, 0), Rotation: rot(0, 0, 0, 1)}, "frame_id", ReasonMissing},
		{"slash only parent", Record{ParentID: "/", ChildID: "a", Translation: vec(0, 0, 0), Rotation: rot(0, 0, 0, 1)}, "frame_id", ReasonMissing},
		{"self parent", Record{ParentID: "a", ChildID: "/a", Translation: vec(0, 0, 0), Rotation: rot(0, 0, 0, 1)}, "child_frame_id", ReasonSelfParent},
		{"missing translation", Record{ParentID: "map", ChildID: "a", Rotation: rot(0, 0, 0, 1)}, "translation", ReasonMissing},
		{"missing rotation", Record{ParentID: "map", ChildID: "a", Translation: vec(0, 0, 0)}, "rotation", ReasonMissing},
		{"nan translation", Record{ParentID: "map", ChildID: "a", Translation: vec(math.NaN(), 0, 0), Rotation: rot(0, 0, 0, 1)}, "translation", ReasonNonFinite},
		{"inf rotation", Record{ParentID: "map", ChildID: "a", Translation: vec(0, 0, 0), Rotation: rot(math.Inf(1), 0, 0, 1)}, "rotation", ReasonNonFinite},
		{"zero rotation", Record{ParentID: "map", ChildID: "a", Translation: vec(0, 0, 0), Rotation: rot(0, 0, 0, 0)}, "rotation", ReasonZeroRotation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.rec.Normalize()
			require.Error(t, err)
			assert.True(t, IsMalformed(err))

			var me *MalformedError
			require.ErrorAs(t, err, &me)
			assert.Equal(t, tt.field, me.Field)
			assert.Equal(t, tt.reason, me.Reason)
		})
	}
}

func TestMalformedError_Message(t *testing.T) {
	err := &MalformedError{Index: 3, Field: "rotation", Reason: ReasonMissing}
	assert.Equal(t, "malformed entry 3: rotation missing", err.Error())

	wrapped := fmt.Errorf("ingest: %w", err)
	assert.True(t, IsMalformed(wrapped))
	assert.False(t, IsMalformed(fmt.Errorf("other")))
}

func TestNormalizeFrameID(t *testing.T) {
	assert.Equal(t, "base_link", NormalizeFrameID("/base_link"))
	assert.Equal(t, "base_link", NormalizeFrameID("  base_link  "))
	assert.Equal(t, "a/b", NormalizeFrameID("//a/b"))
	// "e" + combining acute composes to U+00E9.
	assert.Equal(t, "cam\u00e9ra", NormalizeFrameID("came\u0301ra"))
}
