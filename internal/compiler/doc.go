// Package compiler turns static frame files into an ingest batch.
//
// A static frame file is CUE:
//
//	frames: {
//		base_link: {parent: "map", translation: [1, 0, 0]}
//		laser:     {parent: "base_link", translation: [0.2, 0, 0.1], rpy: [0, 0, 1.5708]}
//		camera:    {parent: "base_link", rotation: [0, 0, 0, 1]}
//	}
//
// The file is unified with an embedded schema, so unknown fields and wrong
// shapes are rejected by CUE with a source position. Rotation is given as a
// quaternion (x, y, z, w) or as roll/pitch/yaw radians, never both; when
// neither is present the rotation is identity, likewise a missing
// translation is zero.
//
// The compiled batch is sorted by child id and has passed the same record
// rules as live input, plus a whole-file check for parent cycles.
package compiler
