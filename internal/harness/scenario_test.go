package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/forest.yaml")
	require.NoError(t, err)

	assert.Equal(t, "forest", s.Name)
	assert.Equal(t, "world", s.NominalRoot)
	assert.Equal(t, filepath.Join("testdata", "scenarios", "frames.cue"), s.Static)
	require.Len(t, s.Steps, 12)

	first := s.Steps[0]
	assert.Equal(t, StepIngest, first.Kind)
	require.Len(t, first.Ingest, 3)
	assert.Nil(t, first.Ingest[1].Record().Rotation, "missing rotation stays absent")

	assert.Equal(t, StepExpectRoots, s.Steps[1].Kind)
	assert.Equal(t, []string{"map", "robot2/odom"}, s.Steps[1].ExpectRoots)
	assert.Equal(t, "disconnected", s.Steps[4].ExpectResolve.Reason)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_MissingStatic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: s
description: d
static: absent.cue
steps:
  - expect_roots: []
`), 0o644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "static file not found")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"no name", "description: d\nsteps: [{expect_roots: []}]", "name is required"},
		{"no description", "name: n\nsteps: [{expect_roots: []}]", "description is required"},
		{"no steps", "name: n\ndescription: d", "steps list is required"},
		{"unknown top-level field", "name: n\ndescription: d\nstep: []", "field step not found"},
		{"unknown step", "name: n\ndescription: d\nsteps: [{expect_magic: 1}]", `unknown step "expect_magic"`},
		{"two keys", "name: n\ndescription: d\nsteps: [{expect_roots: [], expect_nominal_root: map}]", "exactly one key"},
		{"typo in entry", "name: n\ndescription: d\nsteps: [{ingest: [{parent: a, chld: b}]}]", "field chld not found"},
		{"short translation", "name: n\ndescription: d\nsteps: [{ingest: [{parent: a, child: b, translation: [1]}]}]", "want 3 numbers"},
		{"rotation and rpy", "name: n\ndescription: d\nsteps: [{ingest: [{parent: a, child: b, rotation: [0,0,0,1], rpy: [0,0,0]}]}]", "mutually exclusive"},
		{"resolve without source", "name: n\ndescription: d\nsteps: [{expect_resolve: {target: a}}]", "target and source are required"},
		{"reason without absent", "name: n\ndescription: d\nsteps: [{expect_resolve: {target: a, source: b, reason: cycle}}]", "reason requires absent"},
		{"unknown reason", "name: n\ndescription: d\nsteps: [{expect_resolve: {target: a, source: b, absent: true, reason: gone}}]", `unknown reason "gone"`},
		{"children without frame", "name: n\ndescription: d\nsteps: [{expect_children: {children: []}}]", "frame is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
