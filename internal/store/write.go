package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/tfscope/internal/tf"
)

// RecordBatch writes one applied batch and its entries in a single
// transaction. Uses ON CONFLICT(id) DO NOTHING for idempotency: a batch id
// that is already recorded is left untouched and no error is returned.
//
// records are stored exactly as given, malformed entries included.
func (s *Store) RecordBatch(ctx context.Context, batchID string, version int64, records []tf.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record batch: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO batches (id, version, entry_count)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, batchID, version, len(records))
	if err != nil {
		return fmt.Errorf("record batch %s: %w", batchID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("record batch %s: %w", batchID, err)
	} else if n == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries
		(batch_id, idx, parent_id, child_id, tx, ty, tz, qx, qy, qz, qw, stamp_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("record batch %s: %w", batchID, err)
	}
	defer stmt.Close()

	for i, r := range records {
		var t [3]sql.NullFloat64
		if r.Translation != nil {
			t = [3]sql.NullFloat64{nullFloat(r.Translation.X), nullFloat(r.Translation.Y), nullFloat(r.Translation.Z)}
		}
		var q [4]sql.NullFloat64
		if r.Rotation != nil {
			q = [4]sql.NullFloat64{nullFloat(r.Rotation.X), nullFloat(r.Rotation.Y), nullFloat(r.Rotation.Z), nullFloat(r.Rotation.W)}
		}
		var stamp sql.NullInt64
		if !r.Stamp.IsZero() {
			stamp = sql.NullInt64{Int64: r.Stamp.UnixNano(), Valid: true}
		}

		if _, err := stmt.ExecContext(ctx,
			batchID, i, r.ParentID, r.ChildID,
			t[0], t[1], t[2],
			q[0], q[1], q[2], q[3],
			stamp,
		); err != nil {
			return fmt.Errorf("record batch %s entry %d: %w", batchID, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record batch %s: %w", batchID, err)
	}
	return nil
}

func nullFloat(f float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: f, Valid: true}
}
