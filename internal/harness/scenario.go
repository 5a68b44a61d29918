package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is one behaviour scenario.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Types lists extra CUE files to load on top of the built-in library
	// types. LoadScenario resolves them relative to the scenario file.
	Types []string `yaml:"types,omitempty"`

	Entities   []EntitySpec   `yaml:"entities"`
	Relations  []RelationSpec `yaml:"relations,omitempty"`
	Steps      []Step         `yaml:"steps"`
	Assertions []Assertion    `yaml:"assertions,omitempty"`
}

// EntitySpec declares an entity. Properties override the type defaults;
// Components are added on top of the type's own.
type EntitySpec struct {
	Alias      string         `yaml:"alias"`
	Type       string         `yaml:"type"`
	Properties map[string]any `yaml:"properties,omitempty"`
	Components []string       `yaml:"components,omitempty"`
}

// RelationSpec declares a relation between two declared entities.
type RelationSpec struct {
	Alias      string         `yaml:"alias"`
	Outbound   string         `yaml:"outbound"`
	Type       string         `yaml:"type"`
	InstanceID string         `yaml:"instance_id,omitempty"`
	Inbound    string         `yaml:"inbound"`
	Properties map[string]any `yaml:"properties,omitempty"`
	Components []string       `yaml:"components,omitempty"`
}

// Step is one scenario step. Exactly one field is set.
type Step struct {
	Set       *SetStep       `yaml:"set,omitempty"`
	Expect    *ExpectStep    `yaml:"expect,omitempty"`
	Behaviour *BehaviourStep `yaml:"behaviour,omitempty"`
	Component *ComponentStep `yaml:"component,omitempty"`
	Delete    string         `yaml:"delete,omitempty"`
}

// SetStep writes a property and lets it propagate.
type SetStep struct {
	Target   string `yaml:"target"`
	Property string `yaml:"property"`
	Value    any    `yaml:"value"`
}

// ExpectStep checks a property's current value. Numbers compare within
// Tolerance.
type ExpectStep struct {
	Target    string  `yaml:"target"`
	Property  string  `yaml:"property"`
	Value     any     `yaml:"value"`
	Tolerance float64 `yaml:"tolerance,omitempty"`
}

// Behaviour operations.
const (
	OpAdd        = "add"
	OpRemove     = "remove"
	OpConnect    = "connect"
	OpDisconnect = "disconnect"
	OpReconnect  = "reconnect"
)

// BehaviourStep applies a behaviour operation to an instance. Error, when
// set, is the error code the operation must fail with.
type BehaviourStep struct {
	Target string `yaml:"target"`
	Type   string `yaml:"type"`
	Op     string `yaml:"op"`
	Error  string `yaml:"error,omitempty"`
}

// ComponentStep adds a component to or removes one from an instance.
type ComponentStep struct {
	Target string `yaml:"target"`
	Type   string `yaml:"type"`
	Op     string `yaml:"op"`
}

// Assertion types.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceCount    = "trace_count"
	AssertBehavesAs     = "behaves_as"
	AssertFinalState    = "final_state"
)

// Assertion checks the trace or the final graph after all steps ran.
//
// trace_contains and trace_count match trace events on Owner, Behaviour,
// Target and Outcome; empty fields match anything. behaves_as compares the
// owner's behaviour types with Behaviours exactly. final_state compares
// Expect against the owner's final property values.
type Assertion struct {
	Type       string         `yaml:"type"`
	Owner      string         `yaml:"owner,omitempty"`
	Behaviour  string         `yaml:"behaviour,omitempty"`
	Target     string         `yaml:"target,omitempty"`
	Outcome    string         `yaml:"outcome,omitempty"`
	Count      int            `yaml:"count,omitempty"`
	Behaviours []string       `yaml:"behaviours,omitempty"`
	Expect     map[string]any `yaml:"expect,omitempty"`
}

// LoadScenario reads a scenario file, rejecting unknown fields, and
// resolves its type files relative to the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	base := filepath.Dir(path)
	for i, p := range s.Types {
		if !filepath.IsAbs(p) {
			s.Types[i] = filepath.Join(base, p)
		}
	}
	return s, nil
}

// ParseScenario decodes and validates a scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// Validate checks structure and alias references. It does not check types;
// those are resolved when the scenario runs.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.Description == "" {
		return errors.New("description is required")
	}
	if len(s.Steps) == 0 {
		return errors.New("steps list is required and must be non-empty")
	}

	entities := make(map[string]bool)
	aliases := make(map[string]bool)
	declare := func(kind string, i int, alias, ty string) error {
		if alias == "" {
			return fmt.Errorf("%s[%d]: alias is required", kind, i)
		}
		if ty == "" {
			return fmt.Errorf("%s[%d]: type is required", kind, i)
		}
		if aliases[alias] {
			return fmt.Errorf("%s[%d]: duplicate alias %q", kind, i, alias)
		}
		aliases[alias] = true
		return nil
	}
	for i, e := range s.Entities {
		if err := declare("entities", i, e.Alias, e.Type); err != nil {
			return err
		}
		entities[e.Alias] = true
	}
	for i, r := range s.Relations {
		if err := declare("relations", i, r.Alias, r.Type); err != nil {
			return err
		}
		if !entities[r.Outbound] {
			return fmt.Errorf("relations[%d]: unknown outbound entity %q", i, r.Outbound)
		}
		if !entities[r.Inbound] {
			return fmt.Errorf("relations[%d]: unknown inbound entity %q", i, r.Inbound)
		}
	}

	for i, step := range s.Steps {
		if err := step.validate(aliases); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	for i, a := range s.Assertions {
		if err := a.validate(aliases); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func (st Step) validate(aliases map[string]bool) error {
	set := 0
	for _, present := range []bool{st.Set != nil, st.Expect != nil, st.Behaviour != nil, st.Component != nil, st.Delete != ""} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("exactly one of set, expect, behaviour, component, delete is required (got %d)", set)
	}

	target := func(alias string) error {
		if !aliases[alias] {
			return fmt.Errorf("unknown target %q", alias)
		}
		return nil
	}
	switch {
	case st.Set != nil:
		if st.Set.Property == "" {
			return errors.New("set: property is required")
		}
		return target(st.Set.Target)
	case st.Expect != nil:
		if st.Expect.Property == "" {
			return errors.New("expect: property is required")
		}
		if st.Expect.Tolerance < 0 {
			return errors.New("expect: tolerance must be non-negative")
		}
		return target(st.Expect.Target)
	case st.Behaviour != nil:
		switch st.Behaviour.Op {
		case OpAdd, OpRemove, OpConnect, OpDisconnect, OpReconnect:
		default:
			return fmt.Errorf("behaviour: unknown op %q", st.Behaviour.Op)
		}
		if st.Behaviour.Type == "" {
			return errors.New("behaviour: type is required")
		}
		return target(st.Behaviour.Target)
	case st.Component != nil:
		if st.Component.Op != OpAdd && st.Component.Op != OpRemove {
			return fmt.Errorf("component: unknown op %q", st.Component.Op)
		}
		if st.Component.Type == "" {
			return errors.New("component: type is required")
		}
		return target(st.Component.Target)
	}
	return target(st.Delete)
}

func (a Assertion) validate(aliases map[string]bool) error {
	if a.Owner != "" && !aliases[a.Owner] {
		return fmt.Errorf("unknown owner %q", a.Owner)
	}
	switch a.Type {
	case AssertTraceContains:
	case AssertTraceCount:
		if a.Count < 0 {
			return errors.New("count must be non-negative for trace_count")
		}
	case AssertBehavesAs:
		if a.Owner == "" {
			return errors.New("owner is required for behaves_as")
		}
	case AssertFinalState:
		if a.Owner == "" {
			return errors.New("owner is required for final_state")
		}
		if len(a.Expect) == 0 {
			return errors.New("expect is required for final_state")
		}
	case "":
		return errors.New("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
