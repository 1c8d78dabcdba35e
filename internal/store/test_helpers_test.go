package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/tfscope/internal/tf"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// offset builds a pure translation record.
func offset(parent, child string, x, y, z float64) tf.Record {
	q := tf.IdentityRotation()
	return tf.Record{ParentID: parent, ChildID: child, Translation: &tf.Vector3{X: x, Y: y, Z: z}, Rotation: &q}
}
