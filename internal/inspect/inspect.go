// Package inspect builds a deterministic view of the frame tree for
// debugging panels, the CLI and golden tests.
package inspect

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/tfscope/internal/frames"
	"github.com/roach88/tfscope/internal/tf"
)

// View is the read surface of a transform buffer. *buffer.Buffer
// implements it.
type View interface {
	Roots() []string
	ChildrenOf(id string) []string
	AllFrameIDs() []string
	Depth(id string) (int, bool)
	Frame(id string) (frames.Frame, bool)
	Placement(id string) (tf.Transform, bool)
	NominalRoot() string
	Version() int64
}

// Row is one frame in a Snapshot.
type Row struct {
	ID           string        `json:"id"`
	Parent       string        `json:"parent,omitempty"`
	Depth        int           `json:"depth"`
	Detached     bool          `json:"detached,omitempty"`
	HasTransform bool          `json:"has_transform"`
	Local        tf.Transform  `json:"local"`
	Stamp        *time.Time    `json:"stamp,omitempty"`
	Pose         *tf.Transform `json:"pose,omitempty"`
}

// Snapshot is the whole tree at one version.
type Snapshot struct {
	Version     int64    `json:"version"`
	NominalRoot string   `json:"nominal_root"`
	Roots       []string `json:"roots"`
	Rows        []Row    `json:"rows"`
}

// Take walks v depth-first from its sorted roots, children sorted, then
// lists every frame no root reaches, sorted and marked Detached.
// Depth comes from the view's depth index. Pose is the frame's placement in
// the nominal root, nil when absent.
func Take(v View) Snapshot {
	snap := Snapshot{
		Version:     v.Version(),
		NominalRoot: v.NominalRoot(),
		Roots:       v.Roots(),
		Rows:        []Row{},
	}
	visited := make(map[string]struct{})

	var walk func(id string)
	walk = func(id string) {
		if _, seen := visited[id]; seen {
			return
		}
		visited[id] = struct{}{}
		row, ok := takeRow(v, id)
		if !ok {
			return
		}
		snap.Rows = append(snap.Rows, row)
		for _, c := range v.ChildrenOf(id) {
			walk(c)
		}
	}
	for _, r := range snap.Roots {
		walk(r)
	}

	for _, id := range v.AllFrameIDs() {
		if _, seen := visited[id]; seen {
			continue
		}
		if row, ok := takeRow(v, id); ok {
			snap.Rows = append(snap.Rows, row)
		}
	}
	return snap
}

func takeRow(v View, id string) (Row, bool) {
	f, ok := v.Frame(id)
	if !ok {
		return Row{}, false
	}
	row := Row{
		ID:           id,
		Parent:       f.ParentID,
		HasTransform: f.HasTransform,
		Local:        f.Local,
	}
	if d, ok := v.Depth(id); ok {
		row.Depth = d
	} else {
		row.Detached = true
	}
	if !f.Stamp.IsZero() {
		stamp := f.Stamp
		row.Stamp = &stamp
	}
	if pose, ok := v.Placement(id); ok {
		row.Pose = &pose
	}
	return row, true
}

// Render writes snap as an indented text tree, two spaces per level.
// Frames that cannot be placed in the nominal root are marked, and so are
// detached frames, which render unindented after the trees.
func Render(w io.Writer, snap Snapshot) error {
	var b strings.Builder
	fmt.Fprintf(&b, "nominal root: %s (version %d)\n", snap.NominalRoot, snap.Version)
	if len(snap.Rows) == 0 {
		b.WriteString("(no frames)\n")
	}
	for _, row := range snap.Rows {
		b.WriteString(strings.Repeat("  ", row.Depth))
		b.WriteString(row.ID)
		if row.HasTransform {
			b.WriteString("  t=")
			b.WriteString(FormatVector(row.Local.Translation))
			b.WriteString(" q=")
			b.WriteString(FormatQuaternion(row.Local.Rotation))
		}
		if row.Detached {
			b.WriteString("  [detached from "+row.Parent+"]")
		} else if row.Pose == nil {
			b.WriteString("  [unplaced]")
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// FormatVector prints v as (x, y, z) with shortest exact floats.
func FormatVector(v tf.Vector3) string {
	return "(" + joinFloats(v.X, v.Y, v.Z) + ")"
}

// FormatQuaternion prints q as (x, y, z, w).
func FormatQuaternion(q tf.Quaternion) string {
	return "(" + joinFloats(q.X, q.Y, q.Z, q.W) + ")"
}

func joinFloats(vals ...float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		if v == 0 {
			v = 0 // drop the sign of -0
		}
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ", ")
}
