// Package testutil holds builders and assertions shared by tfscope tests.
package testutil

import (
	"time"

	"github.com/roach88/tfscope/internal/tf"
)

// Tolerance is the default comparison tolerance for resolved transforms.
const Tolerance = 1e-9

// Rec builds a well-formed record.
func Rec(parent, child string, t tf.Vector3, q tf.Quaternion) tf.Record {
	return tf.Record{
		ParentID:    parent,
		ChildID:     child,
		Translation: &t,
		Rotation:    &q,
	}
}

// Offset builds a pure translation record with identity rotation.
func Offset(parent, child string, x, y, z float64) tf.Record {
	return Rec(parent, child, tf.Vector3{X: x, Y: y, Z: z}, tf.IdentityRotation())
}

// Stamped returns r with Stamp set to sec seconds after the Unix epoch.
func Stamped(r tf.Record, sec int64) tf.Record {
	r.Stamp = time.Unix(sec, 0).UTC()
	return r
}

// Pose builds a transform from a translation and a rotation.
func Pose(x, y, z float64, q tf.Quaternion) tf.Transform {
	return tf.Transform{Translation: tf.Vector3{X: x, Y: y, Z: z}, Rotation: q}
}
