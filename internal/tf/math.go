package tf

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

func (q Quaternion) number() quat.Number {
	return quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
}

func fromNumber(n quat.Number) Quaternion {
	return Quaternion{X: n.Imag, Y: n.Jmag, Z: n.Kmag, W: n.Real}
}

func (v Vector3) vec() r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

func fromVec(v r3.Vec) Vector3 {
	return Vector3{X: v.X, Y: v.Y, Z: v.Z}
}

// Add returns v + o.
func (v Vector3) Add(o Vector3) Vector3 {
	return fromVec(r3.Add(v.vec(), o.vec()))
}

// Sub returns v - o.
func (v Vector3) Sub(o Vector3) Vector3 {
	return fromVec(r3.Sub(v.vec(), o.vec()))
}

// Norm returns the Euclidean length of v.
func (v Vector3) Norm() float64 {
	return r3.Norm(v.vec())
}

// Norm returns the quaternion magnitude.
func (q Quaternion) Norm() float64 {
	return quat.Abs(q.number())
}

// Normalize scales q to unit length.
// Returns false when q has zero or non-finite magnitude.
func (q Quaternion) Normalize() (Quaternion, bool) {
	n := q.Norm()
	if n == 0 || !isFinite(n) {
		return Quaternion{}, false
	}
	return fromNumber(quat.Scale(1/n, q.number())), true
}

// Conjugate returns the inverse rotation of a unit quaternion.
func (q Quaternion) Conjugate() Quaternion {
	return fromNumber(quat.Conj(q.number()))
}

// Mul returns the Hamilton product q * o (apply o first, then q).
func (q Quaternion) Mul(o Quaternion) Quaternion {
	return fromNumber(quat.Mul(q.number(), o.number()))
}

// Rotate applies the rotation to v.
func (q Quaternion) Rotate(v Vector3) Vector3 {
	return fromVec(r3.Rotation(q.number()).Rotate(v.vec()))
}

// FromAxisAngle returns the rotation of angle radians about axis.
func FromAxisAngle(axis Vector3, angle float64) Quaternion {
	return fromNumber(quat.Number(r3.NewRotation(angle, axis.vec())))
}

// FromRPY returns the rotation for fixed-axis roll (X), pitch (Y) and yaw (Z),
// applied in that order.
func FromRPY(roll, pitch, yaw float64) Quaternion {
	qx := FromAxisAngle(Vector3{X: 1}, roll)
	qy := FromAxisAngle(Vector3{Y: 1}, pitch)
	qz := FromAxisAngle(Vector3{Z: 1}, yaw)
	return qz.Mul(qy).Mul(qx)
}

// Apply maps point p from the transform's source frame into its target frame.
func (t Transform) Apply(p Vector3) Vector3 {
	return t.Rotation.Rotate(p).Add(t.Translation)
}

// Matrix returns the 4x4 homogeneous matrix of t.
func (t Transform) Matrix() *mat.Dense {
	x, y, z, w := t.Rotation.X, t.Rotation.Y, t.Rotation.Z, t.Rotation.W
	return mat.NewDense(4, 4, []float64{
		1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w), t.Translation.X,
		2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w), t.Translation.Y,
		2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y), t.Translation.Z,
		0, 0, 0, 1,
	})
}

// FromMatrix decomposes a rigid homogeneous matrix into translation and a
// renormalised rotation.
func FromMatrix(m mat.Matrix) Transform {
	m00, m01, m02 := m.At(0, 0), m.At(0, 1), m.At(0, 2)
	m10, m11, m12 := m.At(1, 0), m.At(1, 1), m.At(1, 2)
	m20, m21, m22 := m.At(2, 0), m.At(2, 1), m.At(2, 2)

	var q Quaternion
	switch trace := m00 + m11 + m22; {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q = Quaternion{W: 0.25 / s, X: (m21 - m12) * s, Y: (m02 - m20) * s, Z: (m10 - m01) * s}
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1+m00-m11-m22)
		q = Quaternion{W: (m21 - m12) / s, X: 0.25 * s, Y: (m01 + m10) / s, Z: (m02 + m20) / s}
	case m11 > m22:
		s := 2 * math.Sqrt(1+m11-m00-m22)
		q = Quaternion{W: (m02 - m20) / s, X: (m01 + m10) / s, Y: 0.25 * s, Z: (m12 + m21) / s}
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11)
		q = Quaternion{W: (m10 - m01) / s, X: (m02 + m20) / s, Y: (m12 + m21) / s, Z: 0.25 * s}
	}
	if q.W < 0 {
		q = Quaternion{X: -q.X, Y: -q.Y, Z: -q.Z, W: -q.W}
	}
	if n, ok := q.Normalize(); ok {
		q = n
	} else {
		q = IdentityRotation()
	}

	return Transform{
		Translation: Vector3{X: m.At(0, 3), Y: m.At(1, 3), Z: m.At(2, 3)},
		Rotation:    q,
	}
}

// Compose returns a*b: the transform applying b first, then a.
func Compose(a, b Transform) Transform {
	var c mat.Dense
	c.Mul(a.Matrix(), b.Matrix())
	return FromMatrix(&c)
}

// Inverse returns the transform mapping points the opposite way.
func (t Transform) Inverse() Transform {
	inv := t.Rotation.Conjugate()
	back := inv.Rotate(t.Translation)
	return Transform{
		Translation: Vector3{X: -back.X, Y: -back.Y, Z: -back.Z},
		Rotation:    inv,
	}
}

// Near reports whether a and b agree within tol. Rotations are compared up to
// sign since q and -q encode the same rotation.
func Near(a, b Transform, tol float64) bool {
	if a.Translation.Sub(b.Translation).Norm() > tol {
		return false
	}
	dot := a.Rotation.X*b.Rotation.X + a.Rotation.Y*b.Rotation.Y +
		a.Rotation.Z*b.Rotation.Z + a.Rotation.W*b.Rotation.W
	return math.Abs(dot) >= 1-tol
}
