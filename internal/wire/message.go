// Package wire decodes tf2_msgs/TFMessage payloads into ingest records.
//
// Messages arrive as JSON or CBOR with the ROS field names. Every field is
// optional on the wire: a missing header, translation or rotation decodes to
// a nil pointer, and so does a vector missing any component. The resulting
// record is left for buffer.ApplyBatch to reject, so one bad entry never
// costs the rest of its message.
package wire

import (
	"time"

	"github.com/roach88/tfscope/internal/tf"
)

// TFMessage is one published batch of transforms.
type TFMessage struct {
	Transforms []TransformStamped `json:"transforms" cbor:"transforms"`
}

// TransformStamped is a single parent to child transform.
type TransformStamped struct {
	Header       *Header    `json:"header,omitempty" cbor:"header,omitempty"`
	ChildFrameID string     `json:"child_frame_id" cbor:"child_frame_id"`
	Transform    *Transform `json:"transform,omitempty" cbor:"transform,omitempty"`
}

// Header carries the parent frame id and the stamp.
type Header struct {
	FrameID string `json:"frame_id" cbor:"frame_id"`
	Stamp   *Stamp `json:"stamp,omitempty" cbor:"stamp,omitempty"`
}

// Stamp is a ROS 2 builtin_interfaces/Time.
type Stamp struct {
	Sec     int64  `json:"sec" cbor:"sec"`
	Nanosec uint32 `json:"nanosec" cbor:"nanosec"`
}

// Transform is a geometry_msgs/Transform with optional members.
type Transform struct {
	Translation *Vector3    `json:"translation,omitempty" cbor:"translation,omitempty"`
	Rotation    *Quaternion `json:"rotation,omitempty" cbor:"rotation,omitempty"`
}

// Vector3 is a geometry_msgs/Vector3. A component left out on the wire
// stays nil.
type Vector3 struct {
	X *float64 `json:"x,omitempty" cbor:"x,omitempty"`
	Y *float64 `json:"y,omitempty" cbor:"y,omitempty"`
	Z *float64 `json:"z,omitempty" cbor:"z,omitempty"`
}

// Quaternion is a geometry_msgs/Quaternion with optional components.
type Quaternion struct {
	X *float64 `json:"x,omitempty" cbor:"x,omitempty"`
	Y *float64 `json:"y,omitempty" cbor:"y,omitempty"`
	Z *float64 `json:"z,omitempty" cbor:"z,omitempty"`
	W *float64 `json:"w,omitempty" cbor:"w,omitempty"`
}

// Time converts s to a UTC time. A nil stamp is the zero time.
func (s *Stamp) Time() time.Time {
	if s == nil {
		return time.Time{}
	}
	return time.Unix(s.Sec, int64(s.Nanosec)).UTC()
}

// Records converts m into one ingest batch, preserving entry order.
// No validation happens here.
func (m TFMessage) Records() []tf.Record {
	out := make([]tf.Record, 0, len(m.Transforms))
	for _, ts := range m.Transforms {
		rec := tf.Record{ChildID: ts.ChildFrameID}
		if ts.Header != nil {
			rec.ParentID = ts.Header.FrameID
			rec.Stamp = ts.Header.Stamp.Time()
		}
		if ts.Transform != nil {
			rec.Translation = ts.Transform.Translation.record()
			rec.Rotation = ts.Transform.Rotation.record()
		}
		out = append(out, rec)
	}
	return out
}

// FromRecords builds the message that decodes back into records.
func FromRecords(records []tf.Record) TFMessage {
	m := TFMessage{Transforms: make([]TransformStamped, 0, len(records))}
	for _, r := range records {
		ts := TransformStamped{
			Header:       &Header{FrameID: r.ParentID},
			ChildFrameID: r.ChildID,
			Transform: &Transform{
				Translation: vectorOf(r.Translation),
				Rotation:    quaternionOf(r.Rotation),
			},
		}
		if !r.Stamp.IsZero() {
			ts.Header.Stamp = &Stamp{Sec: r.Stamp.Unix(), Nanosec: uint32(r.Stamp.Nanosecond())}
		}
		m.Transforms = append(m.Transforms, ts)
	}
	return m
}

// record returns nil unless every component is present.
func (v *Vector3) record() *tf.Vector3 {
	if v == nil || v.X == nil || v.Y == nil || v.Z == nil {
		return nil
	}
	return &tf.Vector3{X: *v.X, Y: *v.Y, Z: *v.Z}
}

// record returns nil unless every component is present.
func (q *Quaternion) record() *tf.Quaternion {
	if q == nil || q.X == nil || q.Y == nil || q.Z == nil || q.W == nil {
		return nil
	}
	return &tf.Quaternion{X: *q.X, Y: *q.Y, Z: *q.Z, W: *q.W}
}

func vectorOf(v *tf.Vector3) *Vector3 {
	if v == nil {
		return nil
	}
	x, y, z := v.X, v.Y, v.Z
	return &Vector3{X: &x, Y: &y, Z: &z}
}

func quaternionOf(q *tf.Quaternion) *Quaternion {
	if q == nil {
		return nil
	}
	x, y, z, w := q.X, q.Y, q.Z, q.W
	return &Quaternion{X: &x, Y: &y, Z: &z, W: &w}
}
