package tf

import (
	"errors"
	"fmt"
)

// Reasons an ingest entry is rejected.
const (
	ReasonMissing      = "missing"
	ReasonNonFinite    = "non_finite"
	ReasonZeroRotation = "zero_rotation"
	ReasonSelfParent   = "self_parent"
	ReasonCycle        = "cycle"
)

// MalformedError describes an ingest entry that was skipped.
type MalformedError struct {
	// Index is the entry's position within its batch (-1 if unknown).
	Index int

	// Field names the offending field (child_frame_id, translation, ...).
	Field string

	// Reason is one of the Reason* constants.
	Reason string
}

func (e *MalformedError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("malformed entry %d: %s %s", e.Index, e.Field, e.Reason)
	}
	return fmt.Sprintf("malformed entry: %s %s", e.Field, e.Reason)
}

// IsMalformed reports whether err is a MalformedError.
func IsMalformed(err error) bool {
	var me *MalformedError
	return errors.As(err, &me)
}

// Normalize validates r and returns a copy with canonical frame ids and a
// unit rotation. The returned error is always a *MalformedError.
func (r Record) Normalize() (Record, error) {
	out := r
	out.ChildID = NormalizeFrameID(r.ChildID)
	out.ParentID = NormalizeFrameID(r.ParentID)

	switch {
	case out.ChildID == "":
		return Record{}, &MalformedError{Index: -1, Field: "child_frame_id", Reason: ReasonMissing}
	case out.ParentID == "":
		return Record{}, &MalformedError{Index: -1, Field: "frame_id", Reason: ReasonMissing}
	case out.ChildID == out.ParentID:
		return Record{}, &MalformedError{Index: -1, Field: "child_frame_id", Reason: ReasonSelfParent}
	case r.Translation == nil:
		return Record{}, &MalformedError{Index: -1, Field: "translation", Reason: ReasonMissing}
	case r.Rotation == nil:
		return Record{}, &MalformedError{Index: -1, Field: "rotation", Reason: ReasonMissing}
	case !r.Translation.finite():
		return Record{}, &MalformedError{Index: -1, Field: "translation", Reason: ReasonNonFinite}
	case !r.Rotation.finite():
		return Record{}, &MalformedError{Index: -1, Field: "rotation", Reason: ReasonNonFinite}
	}

	q, ok := r.Rotation.Normalize()
	if !ok {
		return Record{}, &MalformedError{Index: -1, Field: "rotation", Reason: ReasonZeroRotation}
	}
	tr := *r.Translation
	out.Translation = &tr
	out.Rotation = &q
	return out, nil
}
