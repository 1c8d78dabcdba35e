// Package frames holds the canonical frame records and the topology derived
// from them.
//
// Store maps frame id to the latest reported local transform and declared
// parent (last write wins, no timestamp ordering). Hierarchy indexes the same
// edges in both directions and keeps per-frame depth for display ordering.
//
// Neither type is safe for concurrent use. Both are owned by a single
// buffer.Buffer, which mutates them only inside ApplyBatch.
package frames
