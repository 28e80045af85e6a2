package harness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewaykit/portage/internal/bundle"
	"github.com/gatewaykit/portage/internal/engine"
)

func passingReport() *Report {
	return &Report{
		Scenario:  "unit",
		Committed: true,
		State:     engine.StateCommitted,
		Mappings: []bundle.Mapping{
			{
				Type:        bundle.TypeFolder,
				SrcID:       "f1",
				Action:      bundle.ActionNewOrExisting,
				TargetID:    "f1",
				ActionTaken: bundle.TakenCreatedNew,
			},
		},
		Entities: []bundle.Item{
			{ID: "f1", Type: bundle.TypeFolder, Name: "transit"},
		},
		Audit: []bundle.AuditRecord{
			{EntityID: "f1", EntityType: bundle.TypeFolder, EntityName: "transit", Verb: bundle.VerbCreated, Actor: "test-admin", At: time.Now()},
		},
	}
}

func evaluate(report *Report, expect Expectation) *Result {
	result := &Result{Pass: true, Report: report}
	scenario := &Scenario{Name: "unit", Expect: expect}
	EvaluateExpectations(result, scenario)
	return result
}

func TestEvaluateCommittedMismatch(t *testing.T) {
	result := evaluate(passingReport(), Expectation{Committed: false, State: "Committed"})

	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "committed")
}

func TestEvaluateStateMismatch(t *testing.T) {
	result := evaluate(passingReport(), Expectation{Committed: true, State: "RolledBack"})

	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "RolledBack")
}

func TestEvaluateMappingOutcome(t *testing.T) {
	result := evaluate(passingReport(), Expectation{
		Committed: true,
		State:     "Committed",
		Mappings: []MappingExpect{
			{SrcID: "f1", ActionTaken: "CreatedNew", TargetID: "f1"},
		},
	})
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestEvaluateMappingWrongOutcome(t *testing.T) {
	result := evaluate(passingReport(), Expectation{
		Committed: true,
		State:     "Committed",
		Mappings: []MappingExpect{
			{SrcID: "f1", ActionTaken: "UsedExisting"},
		},
	})
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "UsedExisting")
	assert.Contains(t, result.Errors[0], "CreatedNew")
}

func TestEvaluateMappingMissing(t *testing.T) {
	result := evaluate(passingReport(), Expectation{
		Committed: true,
		State:     "Committed",
		Mappings: []MappingExpect{
			{SrcID: "ghost", ActionTaken: "CreatedNew"},
		},
	})
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "not present")
}

func TestEvaluateEntityAbsenceExpected(t *testing.T) {
	absent := false
	result := evaluate(passingReport(), Expectation{
		Committed: true,
		State:     "Committed",
		Entities: []EntityExpect{
			{Type: "FOLDER", ID: "f1", Exists: &absent},
		},
	})
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "absent")
}

func TestEvaluateEntityFieldMismatch(t *testing.T) {
	result := evaluate(passingReport(), Expectation{
		Committed: true,
		State:     "Committed",
		Entities: []EntityExpect{
			{Type: "FOLDER", ID: "f1", Name: "billing"},
		},
	})
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], `"billing"`)
}

func TestEvaluateAuditOrder(t *testing.T) {
	result := evaluate(passingReport(), Expectation{
		Committed: true,
		State:     "Committed",
		Audit: []AuditExpect{
			{Verb: "UPDATED", EntityID: "f1"},
		},
	})
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "UPDATED")
}

func TestEvaluateAuditEmptyViolated(t *testing.T) {
	result := evaluate(passingReport(), Expectation{
		Committed:  true,
		State:      "Committed",
		AuditEmpty: true,
	})
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "no audit entries")
}

func TestAssertionErrorFormat(t *testing.T) {
	err := &AssertionError{
		Type:     "final_state",
		Expected: "FOLDER f1 present",
		Actual:   "absent",
	}
	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: final_state")
	assert.Contains(t, msg, "Expected: FOLDER f1 present")
	assert.Contains(t, msg, "Actual: absent")
}
