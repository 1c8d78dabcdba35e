// Package harness runs transform-tree conformance scenarios.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: sensor_moves
//	description: "Re-ingesting a frame invalidates cached answers"
//	nominal_root: map          # optional fallback, default "map"
//	static: frames.cue         # optional, relative to the scenario file
//	steps:
//	  - ingest:
//	      - {parent: map, child: base_link, translation: [1, 0, 0], rotation: [0, 0, 0, 1]}
//	      - {parent: base_link, child: sensor, translation: [0, 0, 0.5], rpy: [0, 0, 0]}
//	  - expect_resolve: {target: map, source: sensor, translation: [1, 0, 0.5]}
//	  - expect_resolve: {target: map, source: ghost, absent: true, reason: unknown_frame}
//	  - expect_children: {frame: base_link, children: [sensor]}
//	  - expect_roots: [map]
//	  - expect_nominal_root: map
//
// Every step has exactly one key. An ingest entry without translation, or
// without both rotation and rpy, is deliberately malformed and will be
// skipped by the buffer.
//
// # Deterministic Testing
//
// Each scenario runs against a fresh buffer with sequential batch ids
// (batch-1, batch-2, ...) and discarded logs, so the final tree renders
// identically on every run and can be compared against a golden file.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/sensor_moves.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
