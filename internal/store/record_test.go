package store

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tfscope/internal/buffer"
	"github.com/roach88/tfscope/internal/tf"
)

var _ buffer.Recorder = (*Store)(nil)

func TestRecordBatch_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	stamped := offset("map", "base_link", 1, 2, 3)
	stamped.Stamp = time.Unix(5, 123).UTC()
	noRot := offset("base_link", "broken", 0, 0, 0)
	noRot.Rotation = nil

	require.NoError(t, s.RecordBatch(ctx, "b1", 1, []tf.Record{stamped, noRot}))
	require.NoError(t, s.RecordBatch(ctx, "b2", 2, nil))
	require.NoError(t, s.RecordBatch(ctx, "b3", 3, []tf.Record{offset("base_link", "laser", 0, 0, 1)}))

	batches, err := s.Batches(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 3)

	assert.Equal(t, "b1", batches[0].ID)
	assert.Equal(t, int64(1), batches[0].Version)
	assert.Equal(t, []tf.Record{stamped, noRot}, batches[0].Records)

	assert.Equal(t, "b2", batches[1].ID)
	assert.Empty(t, batches[1].Records)

	assert.Equal(t, "b3", batches[2].ID)
	assert.Less(t, batches[1].Seq, batches[2].Seq)
}

func TestRecordBatch_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordBatch(ctx, "b1", 1, []tf.Record{offset("map", "a", 1, 0, 0)}))
	require.NoError(t, s.RecordBatch(ctx, "b1", 1, []tf.Record{offset("map", "a", 9, 9, 9)}))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	batches, err := s.Batches(ctx)
	require.NoError(t, err)
	require.Len(t, batches[0].Records, 1)
	assert.Equal(t, 1.0, batches[0].Records[0].Translation.X)
}

func TestRecordBatch_NaNReadsBackAbsent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordBatch(ctx, "b1", 1, []tf.Record{offset("map", "a", math.NaN(), 0, 0)}))

	batches, err := s.Batches(ctx)
	require.NoError(t, err)
	rec := batches[0].Records[0]
	assert.Nil(t, rec.Translation)
	_, err = rec.Normalize()
	assert.True(t, tf.IsMalformed(err))
}

func TestHistory(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordBatch(ctx, "b1", 1, []tf.Record{offset("map", "a", 1, 0, 0), offset("map", "b", 0, 0, 0)}))
	require.NoError(t, s.RecordBatch(ctx, "b2", 2, []tf.Record{offset("map", "a", 2, 0, 0)}))

	hist, err := s.History(ctx, "a")
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "b1", hist[0].BatchID)
	assert.Equal(t, int64(1), hist[0].Version)
	assert.Equal(t, 0, hist[0].Index)
	assert.Equal(t, 1.0, hist[0].Record.Translation.X)
	assert.Equal(t, "b2", hist[1].BatchID)
	assert.Equal(t, 2.0, hist[1].Record.Translation.X)

	hist, err = s.History(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, hist)
}

func TestReplayReproducesTree(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	quiet := buffer.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	live := buffer.New(quiet, buffer.WithRecorder(s))
	live.ApplyBatch(ctx, []tf.Record{offset("map", "base_link", 1, 0, 0)})
	live.ApplyBatch(ctx, []tf.Record{offset("base_link", "sensor", 0, 0, 0.5), {ChildID: "bad"}})
	live.ApplyBatch(ctx, []tf.Record{offset("base_link", "sensor", 0, 0, 1)})

	batches, err := s.Batches(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 3)

	replayed := buffer.New(quiet)
	for _, b := range batches {
		replayed.ApplyBatch(ctx, b.Records)
	}

	want, ok := live.Resolve("map", "sensor")
	require.True(t, ok)
	got, ok := replayed.Resolve("map", "sensor")
	require.True(t, ok)
	assert.Equal(t, want, got)
	assert.Equal(t, live.AllFrameIDs(), replayed.AllFrameIDs())
}
