package tf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-9

func TestIdentity(t *testing.T) {
	id := Identity()
	assert.Equal(t, Vector3{}, id.Translation)
	assert.Equal(t, Quaternion{W: 1}, id.Rotation)

	p := Vector3{X: 1, Y: 2, Z: 3}
	assert.Equal(t, p, id.Apply(p))
}

func TestQuaternion_Normalize(t *testing.T) {
	q, ok := Quaternion{W: 2}.Normalize()
	require.True(t, ok)
	assert.InDelta(t, 1.0, q.W, tol)

	_, ok = Quaternion{}.Normalize()
	assert.False(t, ok, "zero quaternion cannot be normalised")
}

func TestQuaternion_Rotate(t *testing.T) {
	// 90 degrees about Z maps +X onto +Y.
	q := FromAxisAngle(Vector3{Z: 1}, math.Pi/2)
	got := q.Rotate(Vector3{X: 1})
	assert.InDelta(t, 0.0, got.X, tol)
	assert.InDelta(t, 1.0, got.Y, tol)
	assert.InDelta(t, 0.0, got.Z, tol)
}

func TestFromRPY_YawOnly(t *testing.T) {
	q := FromRPY(0, 0, math.Pi/2)
	want := FromAxisAngle(Vector3{Z: 1}, math.Pi/2)
	assert.True(t, Near(Transform{Rotation: q}, Transform{Rotation: want}, tol))
}

func TestFromRPY_Order(t *testing.T) {
	// Roll first, then yaw: +Y rolled 90deg about X becomes +Z, yaw leaves it.
	q := FromRPY(math.Pi/2, 0, math.Pi/2)
	got := q.Rotate(Vector3{Y: 1})
	assert.InDelta(t, 0.0, got.X, tol)
	assert.InDelta(t, 0.0, got.Y, tol)
	assert.InDelta(t, 1.0, got.Z, tol)
}

func TestMatrixRoundTrip(t *testing.T) {
	cases := []Transform{
		Identity(),
		{Translation: Vector3{X: 1, Y: -2, Z: 3}, Rotation: FromAxisAngle(Vector3{Z: 1}, 0.3)},
		{Translation: Vector3{Z: 0.5}, Rotation: FromAxisAngle(Vector3{X: 1}, math.Pi)},
		{Translation: Vector3{Y: 4}, Rotation: FromAxisAngle(Vector3{Y: 1}, -2.5)},
		{Rotation: FromRPY(0.1, -0.7, 2.9)},
	}
	for _, tc := range cases {
		got := FromMatrix(tc.Matrix())
		assert.True(t, Near(tc, got, tol), "round trip of %+v gave %+v", tc, got)
	}
}

func TestCompose_Translations(t *testing.T) {
	a := Transform{Translation: Vector3{X: 1}, Rotation: IdentityRotation()}
	b := Transform{Translation: Vector3{Z: 0.5}, Rotation: IdentityRotation()}

	got := Compose(a, b)
	assert.InDelta(t, 1.0, got.Translation.X, tol)
	assert.InDelta(t, 0.5, got.Translation.Z, tol)
	assert.True(t, Near(Transform{Translation: got.Translation, Rotation: IdentityRotation()}, got, tol))
}

func TestCompose_MatchesSequentialApply(t *testing.T) {
	a := Transform{Translation: Vector3{X: 1, Y: 2}, Rotation: FromRPY(0.2, 0.4, -1.1)}
	b := Transform{Translation: Vector3{Z: -3}, Rotation: FromRPY(-0.9, 0.1, 0.6)}
	p := Vector3{X: 0.3, Y: -0.7, Z: 5}

	want := a.Apply(b.Apply(p))
	got := Compose(a, b).Apply(p)
	assert.InDelta(t, want.X, got.X, 1e-9)
	assert.InDelta(t, want.Y, got.Y, 1e-9)
	assert.InDelta(t, want.Z, got.Z, 1e-9)
}

func TestInverse(t *testing.T) {
	tr := Transform{Translation: Vector3{X: 1, Y: -4, Z: 2}, Rotation: FromRPY(0.5, -0.3, 1.7)}

	assert.True(t, Near(Identity(), Compose(tr, tr.Inverse()), tol))
	assert.True(t, Near(Identity(), Compose(tr.Inverse(), tr), tol))
}

func TestNear_SignAmbiguity(t *testing.T) {
	q := FromAxisAngle(Vector3{Z: 1}, 1)
	neg := Quaternion{X: -q.X, Y: -q.Y, Z: -q.Z, W: -q.W}
	assert.True(t, Near(Transform{Rotation: q}, Transform{Rotation: neg}, tol))
}

func TestNear_DetectsDifference(t *testing.T) {
	a := Identity()
	b := Transform{Translation: Vector3{X: 0.01}, Rotation: IdentityRotation()}
	assert.False(t, Near(a, b, 1e-6))

	c := Transform{Rotation: FromAxisAngle(Vector3{Z: 1}, 0.1)}
	assert.False(t, Near(a, c, 1e-6))
}
