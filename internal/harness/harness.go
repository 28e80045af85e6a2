// Package harness provides a conformance testing framework for the
// bundle import engine.
//
// A scenario is a YAML document pairing a seeded target store with one
// bundle and a set of expectations. Each scenario runs against a fresh
// in-memory SQLite store with a frozen clock and a deterministic id
// generator, so the same scenario always produces a byte-identical
// report. Golden files capture that report for regression comparison.
package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/gatewaykit/portage/internal/bundle"
	"github.com/gatewaykit/portage/internal/engine"
	"github.com/gatewaykit/portage/internal/store"
	"github.com/gatewaykit/portage/internal/testutil"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success: the import behaved as the
	// expectations describe.
	Pass bool `json:"pass"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Report captures what the import actually did. Nil only when the
	// import aborted fatally.
	Report *Report `json:"report,omitempty"`

	// Fatal holds the engine error code when the import aborted.
	Fatal string `json:"fatal,omitempty"`
}

// Report is the deterministic record of one scenario's import: the
// resolution report plus the final store state and audit trail.
type Report struct {
	Scenario  string               `json:"scenario"`
	Committed bool                 `json:"committed"`
	DryRun    bool                 `json:"dryRun,omitempty"`
	State     engine.State         `json:"state"`
	Mappings  []bundle.Mapping     `json:"mappings"`
	Entities  []bundle.Item        `json:"entities"`
	Audit     []bundle.AuditRecord `json:"audit"`
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, with
// a frozen clock and sequential id generator for reproducibility.
//
// Execution flow:
//  1. Create fresh in-memory store and seed the scenario's entities
//  2. Import the bundle with deterministic helpers
//  3. Read back final state and audit trail
//  4. Evaluate expectations against the report
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()

	for i, seed := range scenario.Seed {
		if err := st.InsertEntity(ctx, seed.Entity, seed.ReadOnly); err != nil {
			return nil, fmt.Errorf("seed[%d]: %w", i, err)
		}
	}

	clock := testutil.NewFrozenClock()
	idgen := testutil.NewSequenceIDGenerator(scenario.IDPrefix)
	actor := scenario.Actor
	if actor == "" {
		actor = "test-admin"
	}

	imp := engine.New(st, st,
		engine.WithIDGenerator(idgen),
		engine.WithClock(clock.Now),
		engine.WithActor(actor),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	result := &Result{Pass: true}

	importRes, err := imp.Import(ctx, &scenario.Bundle, scenario.DryRun)
	if err != nil {
		var impErr *engine.ImportError
		if !errors.As(err, &impErr) {
			return nil, fmt.Errorf("import failed: %w", err)
		}
		result.Fatal = string(impErr.Code)
		evaluateFatal(result, scenario, impErr)
		return result, nil
	}
	if scenario.Expect.Fatal != "" {
		result.AddError((&AssertionError{
			Type:     "fatal",
			Expected: fmt.Sprintf("import aborts with %s", scenario.Expect.Fatal),
			Actual:   fmt.Sprintf("import finished in state %s", importRes.State),
		}).Error())
		return result, nil
	}

	entities, err := st.ListEntities(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to read final state: %w", err)
	}
	audit, err := st.ReadAudit(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to read audit trail: %w", err)
	}

	result.Report = &Report{
		Scenario:  scenario.Name,
		Committed: importRes.Committed,
		DryRun:    importRes.DryRun,
		State:     importRes.State,
		Mappings:  importRes.Mappings,
		Entities:  entities,
		Audit:     audit,
	}

	EvaluateExpectations(result, scenario)
	return result, nil
}

// evaluateFatal checks a fatal abort against the scenario's expectation.
func evaluateFatal(result *Result, scenario *Scenario, impErr *engine.ImportError) {
	if scenario.Expect.Fatal == "" {
		result.AddError((&AssertionError{
			Type:     "fatal",
			Expected: "import completes",
			Actual:   fmt.Sprintf("import aborted: %v", impErr),
		}).Error())
		return
	}
	if scenario.Expect.Fatal != string(impErr.Code) {
		result.AddError((&AssertionError{
			Type:     "fatal",
			Expected: fmt.Sprintf("import aborts with %s", scenario.Expect.Fatal),
			Actual:   fmt.Sprintf("import aborted with %s: %v", impErr.Code, impErr),
		}).Error())
	}
}
