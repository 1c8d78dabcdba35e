package frames

import (
	"sort"
	"time"

	"github.com/roach88/tfscope/internal/tf"
)

// Frame is the latest known state of one coordinate frame.
type Frame struct {
	ID string

	// ParentID is the declared parent, empty when no edge was ever reported
	// with this frame as child.
	ParentID string

	// Local maps points in this frame into ParentID. Identity for placeholders.
	Local tf.Transform

	// Stamp is the producer timestamp of the last write.
	Stamp time.Time

	// HasTransform distinguishes a frame reported as a child (true) from a
	// placeholder created only because a child named it as parent (false).
	HasTransform bool
}

// HasParent reports whether a parent edge is recorded.
func (f Frame) HasParent() bool {
	return f.ParentID != ""
}

// Store is the canonical frame map.
type Store struct {
	frames map[string]*Frame
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{frames: make(map[string]*Frame)}
}

// Upsert overwrites the child frame's parent, local transform and stamp, and
// ensures the parent has at least a placeholder entry.
//
// Returns the previously declared parent ("" if none) so the hierarchy can
// prune the old edge.
func (s *Store) Upsert(id, parentID string, local tf.Transform, stamp time.Time) string {
	if _, ok := s.frames[parentID]; !ok {
		s.frames[parentID] = &Frame{ID: parentID, Local: tf.Identity()}
	}

	f, ok := s.frames[id]
	if !ok {
		f = &Frame{ID: id}
		s.frames[id] = f
	}
	prev := f.ParentID

	f.ParentID = parentID
	f.Local = local
	f.Stamp = stamp
	f.HasTransform = true
	return prev
}

// Get returns a copy of the frame record. Absence is reported through ok.
func (s *Store) Get(id string) (Frame, bool) {
	f, ok := s.frames[id]
	if !ok {
		return Frame{}, false
	}
	return *f, true
}

// Has reports whether id is known, including placeholders.
func (s *Store) Has(id string) bool {
	_, ok := s.frames[id]
	return ok
}

// Len returns the number of known frames.
func (s *Store) Len() int {
	return len(s.frames)
}

// IDs returns every known frame id in sorted order.
func (s *Store) IDs() []string {
	ids := make([]string, 0, len(s.frames))
	for id := range s.frames {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
