// Package buffer is the transform tree service: the object rendering code
// holds to ingest transform batches and ask frame-to-frame pose questions.
//
// ARCHITECTURE:
//
// A Buffer composes, leaf to root:
//   - frames.Store: frame id -> latest transform and declared parent
//   - frames.Hierarchy: child/parent index, roots, depth
//   - resolver.Resolver: LCA-based composition with a memo cache
//   - notify.Notifier: "update" subscribers
//
// Ingest Flow (ApplyBatch):
//  1. Each entry is validated and normalised; malformed entries and entries
//     that would close a parent cycle are skipped with a Warn log.
//  2. Valid entries overwrite the child frame (last write wins) and relink it
//     in the hierarchy.
//  3. Once per batch: depth recomputation, cache invalidation, version bump,
//     optional recording, and exactly one "update" notification.
//
// There is no rollback: a batch is a best-effort merge.
//
// CONCURRENCY:
//
// Buffer is not safe for concurrent use. It assumes one owner that never
// interleaves a query with a half-applied batch. Callers that ingest from
// other goroutines (network readers, file replays) hand batches to a Loop,
// which applies them and runs query closures on a single goroutine.
//
// There is no package-level Buffer. Construct one per scene with New and pass
// it to whatever needs it.
package buffer
