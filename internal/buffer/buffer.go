package buffer

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/tfscope/internal/frames"
	"github.com/roach88/tfscope/internal/notify"
	"github.com/roach88/tfscope/internal/resolver"
	"github.com/roach88/tfscope/internal/tf"
)

// EventUpdate fires once per ApplyBatch.
const EventUpdate = "update"

// Update is the payload of EventUpdate.
type Update struct {
	BatchID string
	Version int64
	Applied int
	Skipped int

	// Frames lists the child ids written by the batch, first-seen order.
	Frames []string
}

// BatchResult reports what ApplyBatch did with each entry.
type BatchResult struct {
	BatchID string
	Version int64
	Applied int

	// Skipped holds one error per rejected entry, with Index set.
	Skipped []*tf.MalformedError
}

// Recorder receives every applied batch. The records are the batch exactly
// as given to ApplyBatch, malformed entries included.
type Recorder interface {
	RecordBatch(ctx context.Context, batchID string, version int64, records []tf.Record) error
}

// Buffer is the transform tree service.
type Buffer struct {
	store     *frames.Store
	hierarchy *frames.Hierarchy
	resolver  *resolver.Resolver
	notifier  *notify.Notifier[Update]
	clock     *Clock

	fallbackRoot string
	logger       *slog.Logger
	registerer   prometheus.Registerer
	recorder     Recorder
	batchIDs     BatchIDGenerator
	metrics      *ingestMetrics
	maxChain     int
}

// New creates an empty Buffer.
func New(opts ...Option) *Buffer {
	b := &Buffer{
		store:        frames.NewStore(),
		hierarchy:    frames.NewHierarchy(),
		clock:        NewClock(),
		fallbackRoot: DefaultNominalRoot,
		logger:       slog.Default(),
		batchIDs:     UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(b)
	}

	b.fallbackRoot = tf.NormalizeFrameID(b.fallbackRoot)
	b.metrics = newIngestMetrics(b.registerer)
	b.resolver = resolver.New(b.store, b.NominalRoot,
		resolver.WithMetrics(resolver.NewMetrics(b.registerer)),
		resolver.WithMaxChainLength(b.maxChain))
	b.notifier = notify.New[Update](b.logger)
	return b
}

// ApplyBatch merges records into the tree, then performs exactly one depth
// recomputation, one cache invalidation and one update notification.
//
// Entries are independent: a malformed entry is skipped and the rest still
// apply. Nothing is rolled back. An entry that would close a cycle is retried
// once after the rest of the batch, unless a later entry already rewrote the
// same child.
func (b *Buffer) ApplyBatch(ctx context.Context, records []tf.Record) BatchResult {
	res := BatchResult{BatchID: b.batchIDs.Generate()}
	var (
		written  []string
		deferred []int
	)
	seen := make(map[string]struct{}, len(records))
	lastWrite := make(map[string]int, len(records))

	skip := func(i int, err error) {
		var me *tf.MalformedError
		if errors.As(err, &me) {
			me.Index = i
			res.Skipped = append(res.Skipped, me)
		}
		b.logger.Warn("skipping transform entry",
			"batch", res.BatchID,
			"index", i,
			"child", records[i].ChildID,
			"parent", records[i].ParentID,
			"reason", err,
		)
	}
	apply := func(i int, rec tf.Record) {
		prev := b.store.Upsert(rec.ChildID, rec.ParentID, rec.Transform(), rec.Stamp)
		b.hierarchy.Link(rec.ChildID, rec.ParentID)
		if prev != "" && prev != rec.ParentID {
			b.logger.Debug("frame reparented", "child", rec.ChildID, "from", prev, "to", rec.ParentID)
		}
		res.Applied++
		lastWrite[rec.ChildID] = i
		if _, ok := seen[rec.ChildID]; !ok {
			seen[rec.ChildID] = struct{}{}
			written = append(written, rec.ChildID)
		}
	}

	for i, raw := range records {
		rec, err := b.admit(raw)
		switch {
		case isCycle(err):
			deferred = append(deferred, i)
		case err != nil:
			skip(i, err)
		default:
			apply(i, rec)
		}
	}
	for _, i := range deferred {
		rec, err := b.admit(records[i])
		if err == nil {
			if last, ok := lastWrite[rec.ChildID]; ok && last > i {
				err = &tf.MalformedError{Index: -1, Field: "frame_id", Reason: tf.ReasonCycle}
			}
		}
		if err != nil {
			skip(i, err)
			continue
		}
		apply(i, rec)
	}
	slices.SortFunc(res.Skipped, func(a, c *tf.MalformedError) int { return a.Index - c.Index })

	b.hierarchy.Recompute(b.store.IDs())
	b.resolver.Invalidate()
	res.Version = b.clock.Next()
	b.metrics.observe(res.Applied, len(res.Skipped))

	b.logger.Debug("batch applied",
		"batch", res.BatchID,
		"version", res.Version,
		"applied", res.Applied,
		"skipped", len(res.Skipped),
	)

	if b.recorder != nil {
		if err := b.recorder.RecordBatch(ctx, res.BatchID, res.Version, records); err != nil {
			b.logger.Error("recording batch failed", "batch", res.BatchID, "error", err)
		}
	}

	b.notifier.Emit(EventUpdate, Update{
		BatchID: res.BatchID,
		Version: res.Version,
		Applied: res.Applied,
		Skipped: len(res.Skipped),
		Frames:  written,
	})
	return res
}

// admit validates one entry against the record rules and the forest invariant.
func (b *Buffer) admit(raw tf.Record) (tf.Record, error) {
	rec, err := raw.Normalize()
	if err != nil {
		return tf.Record{}, err
	}
	if b.hierarchy.WouldCycle(rec.ChildID, rec.ParentID) {
		return tf.Record{}, &tf.MalformedError{Index: -1, Field: "frame_id", Reason: tf.ReasonCycle}
	}
	return rec, nil
}

func isCycle(err error) bool {
	var me *tf.MalformedError
	return errors.As(err, &me) && me.Reason == tf.ReasonCycle
}

// Resolve returns the transform mapping points in source into target.
// ok is false when the transform is absent; callers must not draw content
// they cannot place.
func (b *Buffer) Resolve(target, source string) (tf.Transform, bool) {
	return b.resolver.Resolve(tf.NormalizeFrameID(target), tf.NormalizeFrameID(source))
}

// Lookup is Resolve with the reason for absence (a *resolver.LookupError).
func (b *Buffer) Lookup(target, source string) (tf.Transform, error) {
	return b.resolver.Lookup(tf.NormalizeFrameID(target), tf.NormalizeFrameID(source))
}

// Placement returns the pose of frame in the nominal root, the transform a
// plugin applies to content published in frame.
func (b *Buffer) Placement(frame string) (tf.Transform, bool) {
	return b.Resolve(b.NominalRoot(), frame)
}

// NominalRoot returns the sole root if there is exactly one, otherwise the
// configured fallback.
func (b *Buffer) NominalRoot() string {
	return resolver.NominalRoot(b.hierarchy.Roots(), b.fallbackRoot)
}

// Roots returns every known frame without a parent edge, sorted.
func (b *Buffer) Roots() []string {
	return b.hierarchy.Roots()
}

// ChildrenOf returns the direct children of id, sorted. Never nil.
func (b *Buffer) ChildrenOf(id string) []string {
	return b.hierarchy.ChildrenOf(tf.NormalizeFrameID(id))
}

// IsRoot reports whether id is a known frame with no parent edge.
func (b *Buffer) IsRoot(id string) bool {
	id = tf.NormalizeFrameID(id)
	return b.store.Has(id) && b.hierarchy.IsRoot(id)
}

// ParentOf returns the declared parent of id.
func (b *Buffer) ParentOf(id string) (string, bool) {
	return b.hierarchy.ParentOf(tf.NormalizeFrameID(id))
}

// AllFrameIDs returns every known frame id, placeholders included, sorted.
func (b *Buffer) AllFrameIDs() []string {
	return b.store.IDs()
}

// Frame returns the stored record for id.
func (b *Buffer) Frame(id string) (frames.Frame, bool) {
	return b.store.Get(tf.NormalizeFrameID(id))
}

// Depth returns id's distance from its root as of the last batch.
// For display ordering only.
func (b *Buffer) Depth(id string) (int, bool) {
	return b.hierarchy.Depth(tf.NormalizeFrameID(id))
}

// Version returns the number of batches applied so far.
func (b *Buffer) Version() int64 {
	return b.clock.Current()
}

// On subscribes h to event (EventUpdate).
func (b *Buffer) On(event string, h notify.Handler[Update]) notify.SubscriptionID {
	return b.notifier.On(event, h)
}

// Off removes a subscription made with On.
func (b *Buffer) Off(event string, id notify.SubscriptionID) bool {
	return b.notifier.Off(event, id)
}
