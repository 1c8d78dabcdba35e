// Package resolver answers frame-to-frame pose queries over a frame forest.
//
// # Algorithm
//
// Resolve(target, source) returns the transform mapping points expressed in
// source into target:
//  1. target == source is identity, even for unknown frames.
//  2. Both frames must be known or equal to the nominal root.
//  3. Each frame's parent chain is walked up to its terminal ancestor. The walk
//     is bounded by the known-frame count and a visited set, so a cyclic
//     parent chain aborts the query instead of hanging it.
//  4. Both paths are trimmed from the root end while they agree; the last
//     shared entry is the lowest common ancestor (LCA). Different terminal
//     ancestors mean the frames live in separate trees.
//  5. Local transforms below the LCA are multiplied as 4x4 homogeneous
//     matrices into the pose of source (and of target) in the LCA.
//  6. The result is inverse(pose of target) * (pose of source), decomposed
//     back into translation and a renormalised rotation.
//
// # Failure policy
//
// Every failure is "absent": Resolve returns ok=false, Lookup returns a
// *LookupError. Callers must hide content they cannot place rather than
// default to identity.
//
// # Caching
//
// Outcomes (found or absent) are memoised per ordered (source, target) pair
// and dropped wholesale by Invalidate, which the owning buffer calls once per
// applied batch.
//
// Resolver is not safe for concurrent use; see buffer.Loop.
package resolver
