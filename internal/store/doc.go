// Package store records applied transform batches in SQLite for offline
// replay and diagnosis.
//
// A Store implements buffer.Recorder. It is append-only: each batch is
// written once, keyed by its batch id, with its entries in arrival order.
// Reads return batches ordered by seq (insertion order) then entry index,
// so replaying a recording into a fresh buffer reproduces the recorded
// tree exactly.
//
// Recordings are a diagnostic artifact. A buffer never loads one on start.
// The layout version lives in PRAGMA user_version; Open refuses a file
// written by a newer build.
//
// SQLite has no NaN: a non-finite component reads back as NULL, which
// replays as a missing field. Either way the entry is skipped.
package store
