// Package tf provides the rigid-body value types shared by every tfscope package.
//
// This package contains value types and their algebra only. All other internal
// packages import tf; tf imports nothing internal.
//
// Conventions:
//   - A Transform maps points expressed in a child (source) frame into its
//     parent (target) frame: p_parent = R * p_child + t.
//   - Rotations are unit quaternions stored as (X, Y, Z, W).
//   - Composition goes through 4x4 homogeneous matrices and is decomposed back
//     into translation + renormalised rotation, so drift never accumulates in
//     cached results.
//   - Frame ids are compared only after NormalizeFrameID.
package tf
