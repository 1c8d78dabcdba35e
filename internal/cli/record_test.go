package cli

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tfscope/internal/buffer"
	"github.com/roach88/tfscope/internal/store"
	"github.com/roach88/tfscope/internal/testutil"
	"github.com/roach88/tfscope/internal/tf"
)

// recordSession records robot.ndjson (plus any extra source options) into a
// fresh database with deterministic batch ids and returns its path.
func recordSession(t *testing.T, static string) (string, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "session.db")

	opts := &RecordOptions{
		RootOptions: &RootOptions{Format: "text"},
		SourceOptions: SourceOptions{
			Input:       robotInput,
			InputFormat: "json",
			Static:      static,
			NominalRoot: buffer.DefaultNominalRoot,
		},
		Database: dbPath,
		BatchIDs: testutil.FixedBatchIDs("rec"),
	}

	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetContext(context.Background())

	require.NoError(t, runRecord(opts, cmd))
	return dbPath, out.String()
}

func TestRecord_WritesEveryBatch(t *testing.T) {
	dbPath, out := recordSession(t, "")

	assert.Contains(t, out, "✓ Recorded 3 batch(es)")
	assert.Contains(t, out, "version: 3, applied: 4, skipped: 1")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	batches, err := st.Batches(context.Background())
	require.NoError(t, err)
	require.Len(t, batches, 3)
	assert.Equal(t, "rec-000001", batches[0].ID)
	assert.Equal(t, "rec-000003", batches[2].ID)
	assert.Equal(t, int64(2), batches[1].Version)

	// The malformed entry is recorded as given.
	require.Len(t, batches[1].Records, 2)
	assert.Equal(t, "cam", batches[1].Records[1].ChildID)
	assert.Nil(t, batches[1].Records[1].Rotation)
}

func TestRecord_StaticFramesAreFirstBatch(t *testing.T) {
	dbPath, out := recordSession(t, staticInput)
	assert.Contains(t, out, "✓ Recorded 4 batch(es)")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	batches, err := st.Batches(context.Background())
	require.NoError(t, err)
	require.Len(t, batches, 4)
	require.Len(t, batches[0].Records, 1)
	assert.Equal(t, "imu", batches[0].Records[0].ChildID)
}

func TestRecord_JSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "session.db")
	out, err := execute(t, "--format", "json", "record", "--input", robotInput, "--db", dbPath)
	require.NoError(t, err)

	var res RecordResult
	resp := decodeResponse(t, out, &res)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, res.Batches)
	assert.Equal(t, int64(3), res.Version)
	assert.Equal(t, []string{"map"}, res.Roots)
}

func TestRecord_RefusesExistingRecording(t *testing.T) {
	dbPath, _ := recordSession(t, "")

	out, err := execute(t, "record", "--input", robotInput, "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "already holds a recording of 3 batch(es)")
}

func TestRecord_RequiredFlags(t *testing.T) {
	_, err := execute(t, "record", "--input", robotInput)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")

	_, err = execute(t, "record", "--db", filepath.Join(t.TempDir(), "x.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestRecord_UndecodableInput(t *testing.T) {
	input := writeFile(t, "bad.ndjson", robotLine+"\n{not json\n")
	dbPath := filepath.Join(t.TempDir(), "session.db")

	out, err := execute(t, "record", "--input", input, "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeDecodeFailed+"]")

	// Batches decoded before the bad message are still recorded.
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	n, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

const robotLine = `{"transforms":[{"header":{"frame_id":"map"},"child_frame_id":"odom","transform":{"translation":{"x":1,"y":0,"z":0},"rotation":{"x":0,"y":0,"z":0,"w":1}}}]}`

func TestReplay_Tree(t *testing.T) {
	dbPath, _ := recordSession(t, "")

	out, err := execute(t, "replay", "--db", dbPath)
	require.NoError(t, err)

	assert.Contains(t, out, "Replayed 3 batch(es)")
	assert.Contains(t, out, "✓ Deterministic")
	assert.Contains(t, out, "nominal root: map (version 3)\nmap\n  odom  t=(1, 0, 0) q=(0, 0, 0, 1)\n")
	assert.Contains(t, out, "      laser  t=(0, 0, 1) q=(0, 0, 0, 1)\n")
	assert.NotContains(t, out, "cam")
}

func TestReplay_Resolve(t *testing.T) {
	dbPath, _ := recordSession(t, staticInput)

	out, err := execute(t, "replay", "--db", dbPath, "map", "imu")
	require.NoError(t, err)
	assert.Contains(t, out, "map <- imu\n  translation: (3, 0.1, 0)")

	out, err = execute(t, "replay", "--db", dbPath, "map", "cam")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "absent (UNKNOWN_FRAME)")
}

func TestReplay_JSON(t *testing.T) {
	dbPath, _ := recordSession(t, "")

	out, err := execute(t, "--format", "json", "replay", "--db", dbPath)
	require.NoError(t, err)

	var res ReplayResult
	resp := decodeResponse(t, out, &res)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, res.Batches)
	assert.Equal(t, int64(3), res.Version)
	assert.True(t, res.Deterministic)
	require.NotNil(t, res.Tree)
	assert.Len(t, res.Tree.Rows, 4)
	assert.Nil(t, res.Resolve)
}

func TestReplay_DetectsVersionDivergence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "session.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, st.RecordBatch(ctx, "b1", 1, nil))
	require.NoError(t, st.RecordBatch(ctx, "b2", 5, nil))
	require.NoError(t, st.Close())

	out, err := execute(t, "replay", "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Diverged: batch b2: recorded at version 5, replayed at 2")
}

func TestReplay_EmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := execute(t, "replay", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No batches recorded.")
}

func TestReplay_CommandErrors(t *testing.T) {
	_, err := execute(t, "replay")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")

	out, err := execute(t, "replay", "--db", "/nonexistent/path/session.db")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "database not found")

	_, err = execute(t, "replay", "--db", "/nonexistent/path/session.db", "map")
	require.Error(t, err)
}

func TestTrace_Timeline(t *testing.T) {
	dbPath, _ := recordSession(t, "")

	out, err := execute(t, "trace", "--db", dbPath, "--frame", "laser")
	require.NoError(t, err)

	assert.Contains(t, out, "Trace for frame: laser")
	assert.Contains(t, out, "[v2] rec-000002#0 parent=base_link  t=(0, 0, 0.5) q=(0, 0, 0, 1)\n")
	assert.Contains(t, out, "[v3] rec-000003#0 parent=base_link  t=(0, 0, 1) q=(0, 0, 0, 1)  stamp=1970-01-01T00:00:10Z\n")
	assert.Contains(t, out, "Entries:   2")
	assert.Contains(t, out, "Reparents: 0")
}

func TestTrace_Malformed(t *testing.T) {
	dbPath, _ := recordSession(t, "")

	out, err := execute(t, "--format", "json", "trace", "--db", dbPath, "--frame", "cam")
	require.NoError(t, err)

	var res TraceResult
	decodeResponse(t, out, &res)
	require.Len(t, res.Timeline, 1)
	assert.Equal(t, "rotation missing", res.Timeline[0].Malformed)
	assert.Equal(t, 1, res.Stats.Malformed)
}

func TestTrace_ParentFilterAndReparents(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "session.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, st.RecordBatch(ctx, "b1", 1, []tf.Record{testutil.Offset("map", "a", 1, 0, 0)}))
	require.NoError(t, st.RecordBatch(ctx, "b2", 2, []tf.Record{testutil.Offset("odom", "a", 2, 0, 0)}))
	require.NoError(t, st.RecordBatch(ctx, "b3", 3, []tf.Record{testutil.Offset("map", "a", 3, 0, 0)}))
	require.NoError(t, st.Close())

	out, err := execute(t, "--format", "json", "trace", "--db", dbPath, "--frame", "a", "--parent", "map")
	require.NoError(t, err)

	var res TraceResult
	decodeResponse(t, out, &res)
	require.Len(t, res.Timeline, 2)
	assert.Equal(t, "b1", res.Timeline[0].BatchID)
	assert.Equal(t, "b3", res.Timeline[1].BatchID)
	assert.Equal(t, 2, res.Stats.Entries)
	assert.Equal(t, 2, res.Stats.Reparents)
}

func TestTrace_UnknownFrame(t *testing.T) {
	dbPath, _ := recordSession(t, "")

	out, err := execute(t, "trace", "--db", dbPath, "--frame", "ghost")
	require.NoError(t, err)
	assert.Contains(t, out, "No entries recorded for frame: ghost")
}
