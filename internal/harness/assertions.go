package harness

import (
	"fmt"
	"strings"

	"github.com/gatewaykit/portage/internal/bundle"
)

// AssertionError describes one expectation failure with enough context
// to debug it without re-running the scenario.
type AssertionError struct {
	Type     string // Expectation category
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateExpectations checks the scenario's expectations against the
// result's report, accumulating failures on the result. The report must
// be non-nil.
func EvaluateExpectations(result *Result, scenario *Scenario) {
	report := result.Report

	if report.Committed != scenario.Expect.Committed {
		result.AddError((&AssertionError{
			Type:     "committed",
			Expected: fmt.Sprintf("committed=%v", scenario.Expect.Committed),
			Actual:   fmt.Sprintf("committed=%v", report.Committed),
		}).Error())
	}

	if string(report.State) != scenario.Expect.State {
		result.AddError((&AssertionError{
			Type:     "state",
			Expected: scenario.Expect.State,
			Actual:   string(report.State),
		}).Error())
	}

	for _, me := range scenario.Expect.Mappings {
		checkMapping(result, report, me)
	}
	for _, ee := range scenario.Expect.Entities {
		checkEntity(result, report, ee)
	}
	checkAudit(result, report, scenario)
}

// checkMapping validates one resolved mapping, selected by srcId.
func checkMapping(result *Result, report *Report, expect MappingExpect) {
	var found *bundle.Mapping
	for i := range report.Mappings {
		if report.Mappings[i].SrcID == expect.SrcID {
			found = &report.Mappings[i]
			break
		}
	}
	if found == nil {
		result.AddError((&AssertionError{
			Type:     "mapping",
			Expected: fmt.Sprintf("mapping for srcId %s in report", expect.SrcID),
			Actual:   "not present",
		}).Error())
		return
	}

	if expect.ActionTaken != "" && string(found.ActionTaken) != expect.ActionTaken {
		result.AddError((&AssertionError{
			Type:     "mapping",
			Expected: fmt.Sprintf("srcId %s resolves to %s", expect.SrcID, expect.ActionTaken),
			Actual:   describeOutcome(found),
		}).Error())
	}
	if expect.ErrorType != "" && string(found.ErrorType) != expect.ErrorType {
		result.AddError((&AssertionError{
			Type:     "mapping",
			Expected: fmt.Sprintf("srcId %s errors with %s", expect.SrcID, expect.ErrorType),
			Actual:   describeOutcome(found),
		}).Error())
	}
	if expect.TargetID != "" && found.TargetID != expect.TargetID {
		result.AddError((&AssertionError{
			Type:     "mapping",
			Expected: fmt.Sprintf("srcId %s maps to target %s", expect.SrcID, expect.TargetID),
			Actual:   fmt.Sprintf("target %q", found.TargetID),
		}).Error())
	}
}

// checkEntity validates the final state of one entity.
func checkEntity(result *Result, report *Report, expect EntityExpect) {
	var found *bundle.Item
	for i := range report.Entities {
		e := &report.Entities[i]
		if string(e.Type) == expect.Type && e.ID == expect.ID {
			found = e
			break
		}
	}

	wantExists := expect.Exists == nil || *expect.Exists
	if !wantExists {
		if found != nil {
			result.AddError((&AssertionError{
				Type:     "final_state",
				Expected: fmt.Sprintf("%s %s absent", expect.Type, expect.ID),
				Actual:   fmt.Sprintf("present with name %q", found.Name),
			}).Error())
		}
		return
	}
	if found == nil {
		result.AddError((&AssertionError{
			Type:     "final_state",
			Expected: fmt.Sprintf("%s %s present", expect.Type, expect.ID),
			Actual:   "absent",
		}).Error())
		return
	}

	if expect.Name != "" && found.Name != bundle.NormalizeName(expect.Name) {
		result.AddError((&AssertionError{
			Type:     "final_state",
			Expected: fmt.Sprintf("%s %s has name %q", expect.Type, expect.ID, expect.Name),
			Actual:   fmt.Sprintf("name %q", found.Name),
		}).Error())
	}
	if expect.Scope != "" && found.Scope != expect.Scope {
		result.AddError((&AssertionError{
			Type:     "final_state",
			Expected: fmt.Sprintf("%s %s has scope %s", expect.Type, expect.ID, expect.Scope),
			Actual:   fmt.Sprintf("scope %q", found.Scope),
		}).Error())
	}
	if expect.Content != "" && found.Content != expect.Content {
		result.AddError((&AssertionError{
			Type:     "final_state",
			Expected: fmt.Sprintf("%s %s has content %q", expect.Type, expect.ID, expect.Content),
			Actual:   fmt.Sprintf("content %q", found.Content),
		}).Error())
	}
}

// checkAudit validates the audit trail, in order.
func checkAudit(result *Result, report *Report, scenario *Scenario) {
	if scenario.Expect.AuditEmpty {
		if len(report.Audit) != 0 {
			result.AddError((&AssertionError{
				Type:     "audit",
				Expected: "no audit entries",
				Actual:   fmt.Sprintf("%d entries", len(report.Audit)),
			}).Error())
		}
		return
	}
	if len(scenario.Expect.Audit) == 0 {
		return
	}

	if len(report.Audit) != len(scenario.Expect.Audit) {
		result.AddError((&AssertionError{
			Type:     "audit",
			Expected: fmt.Sprintf("%d audit entries", len(scenario.Expect.Audit)),
			Actual:   fmt.Sprintf("%d entries", len(report.Audit)),
		}).Error())
		return
	}
	for i, ae := range scenario.Expect.Audit {
		rec := report.Audit[i]
		if string(rec.Verb) != ae.Verb || rec.EntityID != ae.EntityID {
			result.AddError((&AssertionError{
				Type:     "audit",
				Expected: fmt.Sprintf("entry %d is %s %s", i, ae.Verb, ae.EntityID),
				Actual:   fmt.Sprintf("entry %d is %s %s", i, rec.Verb, rec.EntityID),
			}).Error())
		}
	}
}

// describeOutcome renders a mapping's resolution for error messages.
func describeOutcome(m *bundle.Mapping) string {
	if m.ErrorType != "" {
		return fmt.Sprintf("error %s: %s", m.ErrorType, m.Properties.ErrorMessage())
	}
	if m.ActionTaken != "" {
		return fmt.Sprintf("%s (target %q)", m.ActionTaken, m.TargetID)
	}
	return "unresolved"
}
