package resolver

import (
	"errors"
	"fmt"
)

// LookupErrorCode categorises why a transform is absent.
type LookupErrorCode string

const (
	// ErrCodeUnknownFrame indicates a frame that was never ingested and is
	// not the nominal root.
	ErrCodeUnknownFrame LookupErrorCode = "UNKNOWN_FRAME"

	// ErrCodeDisconnected indicates the two frames share no ancestor.
	ErrCodeDisconnected LookupErrorCode = "DISCONNECTED_FOREST"

	// ErrCodeCycleGuard indicates a parent chain that loops back on itself.
	// Treated as disconnected by callers.
	ErrCodeCycleGuard LookupErrorCode = "CYCLE_GUARD"
)

// LookupError explains an absent transform.
type LookupError struct {
	Code   LookupErrorCode
	Target string
	Source string

	// Frame is the frame that triggered the error (unknown frame, or the
	// start of the cyclic walk).
	Frame string
}

func (e *LookupError) Error() string {
	switch e.Code {
	case ErrCodeUnknownFrame:
		return fmt.Sprintf("%s: frame %q not known (target=%s, source=%s)", e.Code, e.Frame, e.Target, e.Source)
	case ErrCodeCycleGuard:
		return fmt.Sprintf("%s: parent chain of %q loops (target=%s, source=%s)", e.Code, e.Frame, e.Target, e.Source)
	default:
		return fmt.Sprintf("%s: no common ancestor (target=%s, source=%s)", e.Code, e.Target, e.Source)
	}
}

// IsUnknownFrame returns true if the error is an unknown frame error.
func IsUnknownFrame(err error) bool {
	return hasCode(err, ErrCodeUnknownFrame)
}

// IsDisconnected returns true if the frames share no ancestor. A cycle-guard
// abort counts as disconnected.
func IsDisconnected(err error) bool {
	return hasCode(err, ErrCodeDisconnected) || hasCode(err, ErrCodeCycleGuard)
}

// IsCycle returns true if the error is a cycle-guard abort.
func IsCycle(err error) bool {
	return hasCode(err, ErrCodeCycleGuard)
}

func hasCode(err error, code LookupErrorCode) bool {
	var le *LookupError
	if errors.As(err, &le) {
		return le.Code == code
	}
	return false
}
