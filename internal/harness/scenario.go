package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gatewaykit/portage/internal/bundle"
)

// Scenario defines a conformance test scenario for the import engine.
// A scenario seeds a fresh target store, imports one bundle, and asserts
// on the resolution report, the final store state, and the audit trail.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are keyed by it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Seed lists entities present on the target before the import.
	Seed []SeedEntity `yaml:"seed,omitempty"`

	// Bundle is the bundle to import.
	Bundle bundle.Bundle `yaml:"bundle"`

	// DryRun requests evaluation without commit.
	DryRun bool `yaml:"dryRun,omitempty"`

	// Actor is the identity recorded in the audit trail.
	// Defaults to "test-admin".
	Actor string `yaml:"actor,omitempty"`

	// IDPrefix seeds the deterministic generator used for ids of
	// entities created with AlwaysCreateNew. Defaults to "new", giving
	// ids "new-0001", "new-0002", ...
	IDPrefix string `yaml:"idPrefix,omitempty"`

	// Expect holds the assertions evaluated after the import.
	Expect Expectation `yaml:"expect"`
}

// SeedEntity is one pre-existing target entity.
type SeedEntity struct {
	Entity   bundle.Item `yaml:"entity"`
	ReadOnly bool        `yaml:"readOnly,omitempty"`
}

// Expectation validates the import result.
type Expectation struct {
	// Fatal, when set, asserts that the import aborts with the given
	// engine error code (e.g. "STALE_REFERENCE"). All other fields are
	// ignored when Fatal is set.
	Fatal string `yaml:"fatal,omitempty"`

	// Committed is the expected applicability of the bundle.
	Committed bool `yaml:"committed"`

	// State is the expected terminal state ("Committed" or "RolledBack").
	State string `yaml:"state"`

	// Mappings are per-mapping expectations, subset match by srcId.
	Mappings []MappingExpect `yaml:"mappings,omitempty"`

	// Entities are final-state expectations, checked against the store
	// after the import returns.
	Entities []EntityExpect `yaml:"entities,omitempty"`

	// Audit is the expected audit trail, in order. An empty list with
	// auditEmpty set asserts that no audit rows were written.
	Audit      []AuditExpect `yaml:"audit,omitempty"`
	AuditEmpty bool          `yaml:"auditEmpty,omitempty"`
}

// MappingExpect validates one resolved mapping. Only set fields are
// checked; SrcID selects the mapping.
type MappingExpect struct {
	SrcID       string `yaml:"srcId"`
	ActionTaken string `yaml:"actionTaken,omitempty"`
	ErrorType   string `yaml:"errorType,omitempty"`
	TargetID    string `yaml:"targetId,omitempty"`
}

// EntityExpect validates one entity in the final store state.
type EntityExpect struct {
	Type string `yaml:"type"`
	ID   string `yaml:"id"`

	// Exists defaults to true; set to false to assert absence.
	Exists *bool `yaml:"exists,omitempty"`

	// Only set fields are checked.
	Name    string `yaml:"name,omitempty"`
	Scope   string `yaml:"scope,omitempty"`
	Content string `yaml:"content,omitempty"`
}

// AuditExpect validates one audit record.
type AuditExpect struct {
	Verb     string `yaml:"verb"`
	EntityID string `yaml:"entityId"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "expects:" vs "expect:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
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
	if len(s.Bundle.Mappings) == 0 {
		return fmt.Errorf("bundle.mappings is required and must be non-empty")
	}

	for i, seed := range s.Seed {
		if seed.Entity.ID == "" {
			return fmt.Errorf("seed[%d]: entity.id is required", i)
		}
		if seed.Entity.Type == "" {
			return fmt.Errorf("seed[%d]: entity.type is required", i)
		}
	}

	if s.Expect.Fatal != "" {
		return nil
	}

	switch s.Expect.State {
	case "Committed", "RolledBack":
	case "":
		return fmt.Errorf("expect.state is required")
	default:
		return fmt.Errorf("expect.state must be Committed or RolledBack, got %q", s.Expect.State)
	}

	for i, me := range s.Expect.Mappings {
		if me.SrcID == "" {
			return fmt.Errorf("expect.mappings[%d]: srcId is required", i)
		}
		if me.ActionTaken != "" && me.ErrorType != "" {
			return fmt.Errorf("expect.mappings[%d]: actionTaken and errorType are mutually exclusive", i)
		}
	}

	for i, ee := range s.Expect.Entities {
		if ee.Type == "" {
			return fmt.Errorf("expect.entities[%d]: type is required", i)
		}
		if ee.ID == "" {
			return fmt.Errorf("expect.entities[%d]: id is required", i)
		}
	}

	for i, ae := range s.Expect.Audit {
		if ae.Verb == "" {
			return fmt.Errorf("expect.audit[%d]: verb is required", i)
		}
		if ae.EntityID == "" {
			return fmt.Errorf("expect.audit[%d]: entityId is required", i)
		}
	}

	if s.AuditConflicting() {
		return fmt.Errorf("expect.audit and expect.auditEmpty are mutually exclusive")
	}

	return nil
}

// AuditConflicting reports whether the scenario asserts both an audit
// trail and its absence.
func (s *Scenario) AuditConflicting() bool {
	return s.Expect.AuditEmpty && len(s.Expect.Audit) > 0
}
