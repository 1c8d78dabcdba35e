package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/tfscope/internal/tf"
)

// RecordedBatch is one batch read back from a recording.
type RecordedBatch struct {
	Seq     int64
	ID      string
	Version int64
	Records []tf.Record
}

// Batches returns every recorded batch with its entries.
// Results are ordered by seq ASC, then entry idx ASC.
func (s *Store) Batches(ctx context.Context) ([]RecordedBatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.seq, b.id, b.version,
		       e.idx, e.parent_id, e.child_id,
		       e.tx, e.ty, e.tz, e.qx, e.qy, e.qz, e.qw, e.stamp_ns
		FROM batches b
		LEFT JOIN entries e ON e.batch_id = b.id
		ORDER BY b.seq ASC, e.idx ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("read batches: %w", err)
	}
	defer rows.Close()

	var out []RecordedBatch
	for rows.Next() {
		var (
			seq, version int64
			id           string
			idx          sql.NullInt64
			e            entryRow
		)
		if err := rows.Scan(&seq, &id, &version, &idx, &e.parent, &e.child,
			&e.t[0], &e.t[1], &e.t[2], &e.q[0], &e.q[1], &e.q[2], &e.q[3], &e.stamp); err != nil {
			return nil, fmt.Errorf("read batches: %w", err)
		}

		if len(out) == 0 || out[len(out)-1].Seq != seq {
			out = append(out, RecordedBatch{Seq: seq, ID: id, Version: version, Records: []tf.Record{}})
		}
		if idx.Valid {
			b := &out[len(out)-1]
			b.Records = append(b.Records, e.record())
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read batches: %w", err)
	}
	return out, nil
}

// HistoryEntry is one recorded entry for a frame, with the batch it came in.
type HistoryEntry struct {
	BatchID string
	Version int64
	Index   int
	Record  tf.Record
}

// History returns every recorded entry whose child is frame, in recording
// order. frame is matched exactly as stored.
func (s *Store) History(ctx context.Context, frame string) ([]HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.version, e.idx, e.parent_id, e.child_id,
		       e.tx, e.ty, e.tz, e.qx, e.qy, e.qz, e.qw, e.stamp_ns
		FROM entries e
		JOIN batches b ON b.id = e.batch_id
		WHERE e.child_id = ?
		ORDER BY b.seq ASC, e.idx ASC
	`, frame)
	if err != nil {
		return nil, fmt.Errorf("read history %s: %w", frame, err)
	}
	defer rows.Close()

	out := []HistoryEntry{}
	for rows.Next() {
		var (
			h HistoryEntry
			e entryRow
		)
		if err := rows.Scan(&h.BatchID, &h.Version, &h.Index, &e.parent, &e.child,
			&e.t[0], &e.t[1], &e.t[2], &e.q[0], &e.q[1], &e.q[2], &e.q[3], &e.stamp); err != nil {
			return nil, fmt.Errorf("read history %s: %w", frame, err)
		}
		h.Record = e.record()
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read history %s: %w", frame, err)
	}
	return out, nil
}

// Count returns the number of recorded batches.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM batches`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count batches: %w", err)
	}
	return n, nil
}

type entryRow struct {
	parent, child sql.NullString
	t             [3]sql.NullFloat64
	q             [4]sql.NullFloat64
	stamp         sql.NullInt64
}

// record rebuilds a tf.Record. A vector with any NULL component is absent.
func (e entryRow) record() tf.Record {
	r := tf.Record{ParentID: e.parent.String, ChildID: e.child.String}
	if e.t[0].Valid && e.t[1].Valid && e.t[2].Valid {
		r.Translation = &tf.Vector3{X: e.t[0].Float64, Y: e.t[1].Float64, Z: e.t[2].Float64}
	}
	if e.q[0].Valid && e.q[1].Valid && e.q[2].Valid && e.q[3].Valid {
		r.Rotation = &tf.Quaternion{X: e.q[0].Float64, Y: e.q[1].Float64, Z: e.q[2].Float64, W: e.q[3].Float64}
	}
	if e.stamp.Valid {
		r.Stamp = time.Unix(0, e.stamp.Int64).UTC()
	}
	return r
}
