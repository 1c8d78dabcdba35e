package tf

import (
	"fmt"
	"math"
	"time"
)

// Vector3 is a translation in metres.
type Vector3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Quaternion is a rotation stored as (X, Y, Z, W).
type Quaternion struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
	W float64 `json:"w" yaml:"w"`
}

// Transform is a rigid-body pose relating two frames.
type Transform struct {
	Translation Vector3    `json:"translation"`
	Rotation    Quaternion `json:"rotation"`
}

// IdentityRotation returns the zero rotation.
func IdentityRotation() Quaternion {
	return Quaternion{W: 1}
}

// Identity returns the transform that leaves every point unchanged.
func Identity() Transform {
	return Transform{Rotation: IdentityRotation()}
}

// Record is one parent/child relationship as delivered by a producer.
//
// Translation and Rotation are pointers so that a decoded message can carry
// an entry with missing fields through to ingest, where it is skipped as
// malformed instead of being silently defaulted to identity.
type Record struct {
	ParentID    string
	ChildID     string
	Translation *Vector3
	Rotation    *Quaternion
	Stamp       time.Time
}

// Transform returns the record's local transform.
// Callers must have validated the record with Normalize first.
func (r Record) Transform() Transform {
	var t Transform
	if r.Translation != nil {
		t.Translation = *r.Translation
	}
	if r.Rotation != nil {
		t.Rotation = *r.Rotation
	} else {
		t.Rotation = IdentityRotation()
	}
	return t
}

// String formats a record for diagnostics.
func (r Record) String() string {
	return fmt.Sprintf("%s->%s", r.ParentID, r.ChildID)
}

func (v Vector3) finite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

func (q Quaternion) finite() bool {
	return isFinite(q.X) && isFinite(q.Y) && isFinite(q.Z) && isFinite(q.W)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
