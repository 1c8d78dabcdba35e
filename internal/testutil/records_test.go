package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tfscope/internal/tf"
)

func TestOffset(t *testing.T) {
	r := Offset("map", "base_link", 1, 2, 3)
	assert.Equal(t, "map", r.ParentID)
	assert.Equal(t, "base_link", r.ChildID)
	require.NotNil(t, r.Translation)
	require.NotNil(t, r.Rotation)
	assert.Equal(t, tf.Vector3{X: 1, Y: 2, Z: 3}, *r.Translation)
	assert.Equal(t, tf.IdentityRotation(), *r.Rotation)

	_, err := r.Normalize()
	assert.NoError(t, err)
}

func TestRec_DoesNotAlias(t *testing.T) {
	v := tf.Vector3{X: 1}
	r := Rec("a", "b", v, tf.IdentityRotation())
	v.X = 5
	assert.Equal(t, 1.0, r.Translation.X)
}

func TestStamped(t *testing.T) {
	r := Stamped(Offset("a", "b", 0, 0, 0), 42)
	assert.Equal(t, time.Unix(42, 0).UTC(), r.Stamp)
}

func TestAssertTransformNear(t *testing.T) {
	assert.True(t, AssertTransformNear(t, tf.Identity(), tf.Identity()))
	assert.True(t, AssertTranslation(t, 1, 0, 0.5, Pose(1, 0, 0.5, tf.IdentityRotation())))
}
