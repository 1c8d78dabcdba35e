package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tfscope/internal/resolver"
	"github.com/roach88/tfscope/internal/tf"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// NominalRoot overrides the fallback reference frame.
	NominalRoot string `yaml:"nominal_root,omitempty"`

	// Static is a CUE static frame file applied as the first batch.
	// Relative paths are resolved against the scenario file's directory.
	Static string `yaml:"static,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`
}

// Step kinds, one per YAML key.
const (
	StepIngest            = "ingest"
	StepExpectResolve     = "expect_resolve"
	StepExpectChildren    = "expect_children"
	StepExpectRoots       = "expect_roots"
	StepExpectNominalRoot = "expect_nominal_root"
)

// Step is one scenario action. Kind names the key that was set.
type Step struct {
	Kind string `yaml:"-"`

	Ingest            []Entry         `yaml:"ingest,omitempty"`
	ExpectResolve     *ExpectResolve  `yaml:"expect_resolve,omitempty"`
	ExpectChildren    *ExpectChildren `yaml:"expect_children,omitempty"`
	ExpectRoots       []string        `yaml:"expect_roots,omitempty"`
	ExpectNominalRoot string          `yaml:"expect_nominal_root,omitempty"`
}

// UnmarshalYAML requires exactly one known key per step.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: step must be a mapping", node.Line)
	}
	if len(node.Content) != 2 {
		return fmt.Errorf("line %d: step must have exactly one key", node.Line)
	}

	key, val := node.Content[0], node.Content[1]
	var err error
	switch key.Value {
	case StepIngest:
		s.Ingest = []Entry{}
		err = decodeStrict(val, &s.Ingest)
	case StepExpectResolve:
		s.ExpectResolve = &ExpectResolve{}
		err = decodeStrict(val, s.ExpectResolve)
	case StepExpectChildren:
		s.ExpectChildren = &ExpectChildren{}
		err = decodeStrict(val, s.ExpectChildren)
	case StepExpectRoots:
		s.ExpectRoots = []string{}
		err = decodeStrict(val, &s.ExpectRoots)
	case StepExpectNominalRoot:
		err = val.Decode(&s.ExpectNominalRoot)
	default:
		return fmt.Errorf("line %d: unknown step %q", key.Line, key.Value)
	}
	if err != nil {
		return fmt.Errorf("line %d: %s: %w", key.Line, key.Value, err)
	}
	s.Kind = key.Value
	return nil
}

// decodeStrict re-encodes node and decodes it with unknown fields rejected.
// yaml.Node.Decode does not inherit KnownFields from the outer decoder.
func decodeStrict(node *yaml.Node, out any) error {
	data, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}

// Entry is one ingest record. Missing fields stay missing.
type Entry struct {
	Parent      string    `yaml:"parent"`
	Child       string    `yaml:"child"`
	Translation []float64 `yaml:"translation,omitempty"`
	Rotation    []float64 `yaml:"rotation,omitempty"`
	RPY         []float64 `yaml:"rpy,omitempty"`
	Stamp       float64   `yaml:"stamp,omitempty"` // seconds
}

// Record converts e for ingest.
func (e Entry) Record() tf.Record {
	r := tf.Record{ParentID: e.Parent, ChildID: e.Child}
	if len(e.Translation) == 3 {
		r.Translation = &tf.Vector3{X: e.Translation[0], Y: e.Translation[1], Z: e.Translation[2]}
	}
	switch {
	case len(e.Rotation) == 4:
		r.Rotation = &tf.Quaternion{X: e.Rotation[0], Y: e.Rotation[1], Z: e.Rotation[2], W: e.Rotation[3]}
	case len(e.RPY) == 3:
		q := tf.FromRPY(e.RPY[0], e.RPY[1], e.RPY[2])
		r.Rotation = &q
	}
	if e.Stamp != 0 {
		r.Stamp = secondsToTime(e.Stamp)
	}
	return r
}

// ExpectResolve checks one query.
type ExpectResolve struct {
	Target      string    `yaml:"target"`
	Source      string    `yaml:"source"`
	Translation []float64 `yaml:"translation,omitempty"`
	Rotation    []float64 `yaml:"rotation,omitempty"`
	RPY         []float64 `yaml:"rpy,omitempty"`
	Absent      bool      `yaml:"absent,omitempty"`

	// Reason is the expected absence reason: unknown_frame, disconnected
	// or cycle. Only meaningful with Absent.
	Reason string `yaml:"reason,omitempty"`

	// Tolerance defaults to DefaultTolerance.
	Tolerance float64 `yaml:"tolerance,omitempty"`
}

// ExpectChildren checks the sorted children of a frame.
type ExpectChildren struct {
	Frame    string   `yaml:"frame"`
	Children []string `yaml:"children"`
}

// DefaultTolerance is used when an expectation sets none.
const DefaultTolerance = 1e-9

// Absence reasons accepted by ExpectResolve.Reason.
var absenceReasons = map[string]resolver.LookupErrorCode{
	"unknown_frame": resolver.ErrCodeUnknownFrame,
	"disconnected":  resolver.ErrCodeDisconnected,
	"cycle":         resolver.ErrCodeCycleGuard,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// A relative Static path is resolved against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Static != "" && !filepath.IsAbs(scenario.Static) {
		scenario.Static = filepath.Join(filepath.Dir(path), scenario.Static)
	}
	if scenario.Static != "" {
		if _, err := os.Stat(scenario.Static); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: static file not found: %s", scenario.Static)
		}
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML without touching the filesystem.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, s *Step) error {
	switch s.Kind {
	case StepIngest:
		for j, e := range s.Ingest {
			if err := checkLen(e.Translation, 3); err != nil {
				return fmt.Errorf("steps[%d].ingest[%d].translation: %w", i, j, err)
			}
			if err := checkLen(e.Rotation, 4); err != nil {
				return fmt.Errorf("steps[%d].ingest[%d].rotation: %w", i, j, err)
			}
			if err := checkLen(e.RPY, 3); err != nil {
				return fmt.Errorf("steps[%d].ingest[%d].rpy: %w", i, j, err)
			}
			if len(e.Rotation) > 0 && len(e.RPY) > 0 {
				return fmt.Errorf("steps[%d].ingest[%d]: rotation and rpy are mutually exclusive", i, j)
			}
		}
	case StepExpectResolve:
		r := s.ExpectResolve
		if r.Target == "" || r.Source == "" {
			return fmt.Errorf("steps[%d].expect_resolve: target and source are required", i)
		}
		if err := checkLen(r.Translation, 3); err != nil {
			return fmt.Errorf("steps[%d].expect_resolve.translation: %w", i, err)
		}
		if err := checkLen(r.Rotation, 4); err != nil {
			return fmt.Errorf("steps[%d].expect_resolve.rotation: %w", i, err)
		}
		if err := checkLen(r.RPY, 3); err != nil {
			return fmt.Errorf("steps[%d].expect_resolve.rpy: %w", i, err)
		}
		if r.Reason != "" {
			if !r.Absent {
				return fmt.Errorf("steps[%d].expect_resolve: reason requires absent: true", i)
			}
			if _, ok := absenceReasons[r.Reason]; !ok {
				return fmt.Errorf("steps[%d].expect_resolve: unknown reason %q", i, r.Reason)
			}
		}
		if r.Absent && (len(r.Translation) > 0 || len(r.Rotation) > 0 || len(r.RPY) > 0) {
			return fmt.Errorf("steps[%d].expect_resolve: absent excludes translation and rotation", i)
		}
	case StepExpectChildren:
		if s.ExpectChildren.Frame == "" {
			return fmt.Errorf("steps[%d].expect_children: frame is required", i)
		}
	case StepExpectNominalRoot:
		if s.ExpectNominalRoot == "" {
			return fmt.Errorf("steps[%d].expect_nominal_root: frame id is required", i)
		}
	case StepExpectRoots:
	default:
		return fmt.Errorf("steps[%d]: empty step", i)
	}
	return nil
}

func checkLen(xs []float64, n int) error {
	if len(xs) != 0 && len(xs) != n {
		return fmt.Errorf("want %d numbers, got %d", n, len(xs))
	}
	return nil
}
