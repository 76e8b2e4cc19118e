package dataset

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/liamcoop/schedules/schedule"
)

// Severity grades a validation issue. Errors make an entity unusable;
// warnings are reported but tolerated, matching the evaluator's behavior of
// skipping what it cannot resolve.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single validation finding against a schedule or rule.
type Issue struct {
	Severity Severity `json:"severity"`
	Entity   string   `json:"entity"` // "schedule" or "rule"
	ID       string   `json:"id"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s %s %s: %s", i.Severity, i.Entity, i.ID, i.Message)
}

// Report collects validation issues for a dataset.
type Report struct {
	Issues []Issue `json:"issues"`
}

// Errors returns the error-severity issues.
func (r *Report) Errors() []Issue {
	return r.filter(SeverityError)
}

// Warnings returns the warning-severity issues.
func (r *Report) Warnings() []Issue {
	return r.filter(SeverityWarning)
}

func (r *Report) filter(sev Severity) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == sev {
			out = append(out, issue)
		}
	}
	return out
}

// Err returns a combined error when the report contains error-severity
// issues, nil otherwise.
func (r *Report) Err() error {
	errs := r.Errors()
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, issue := range errs {
		msgs[i] = issue.String()
	}
	return fmt.Errorf("dataset validation failed: %s", strings.Join(msgs, "; "))
}

// Validate checks a dataset's structure: entity-level checks on every rule
// and schedule, uniqueness of schedule names, and cross-references from
// schedules to rules. Unknown rule references are warnings, not errors —
// evaluation skips them, but an operator probably wants to know.
func Validate(ds *schedule.Dataset) *Report {
	report := &Report{}

	known := make(map[string]bool, len(ds.Rules))
	for i := range ds.Rules {
		rule := &ds.Rules[i]
		report.Issues = append(report.Issues, ValidateRule(rule)...)
		if rule.ID != "" && known[rule.ID] {
			report.Issues = append(report.Issues, Issue{
				Severity: SeverityError, Entity: "rule", ID: rule.ID,
				Message: "duplicate rule id",
			})
		}
		known[rule.ID] = true
	}

	names := make(map[string]bool, len(ds.Schedules))
	for i := range ds.Schedules {
		sched := &ds.Schedules[i]
		report.Issues = append(report.Issues, ValidateSchedule(sched)...)

		if sched.Name != "" && names[sched.Name] {
			report.Issues = append(report.Issues, Issue{
				Severity: SeverityError, Entity: "schedule", ID: sched.ID,
				Message: fmt.Sprintf("duplicate schedule name %q", sched.Name),
			})
		}
		names[sched.Name] = true

		for _, ruleID := range sched.Rules {
			if !known[ruleID] {
				report.Issues = append(report.Issues, Issue{
					Severity: SeverityWarning, Entity: "schedule", ID: sched.ID,
					Message: fmt.Sprintf("references unknown rule %q (skipped at evaluation)", ruleID),
				})
			}
		}
	}

	return report
}

// ValidateRule checks a single rule's fields.
func ValidateRule(r *schedule.Rule) []Issue {
	var issues []Issue
	fail := func(msg string) {
		issues = append(issues, Issue{Severity: SeverityError, Entity: "rule", ID: r.ID, Message: msg})
	}

	if r.ID == "" {
		fail("id is required")
	}
	if r.Name == "" {
		fail("name is required")
	}

	if r.StartDate != "" {
		if _, err := time.Parse("2006-01-02", r.StartDate); err != nil {
			fail(fmt.Sprintf("invalid startDate %q (want YYYY-MM-DD)", r.StartDate))
		}
	}
	if r.EndDate != "" {
		if _, err := time.Parse("2006-01-02", r.EndDate); err != nil {
			fail(fmt.Sprintf("invalid endDate %q (want YYYY-MM-DD)", r.EndDate))
		}
	}

	if r.DateRRule != "" {
		if _, err := rrule.StrToROption(r.DateRRule); err != nil {
			fail(fmt.Sprintf("invalid dateRRule %q: %v", r.DateRRule, err))
		}
	}

	if r.StartTime != "" {
		if _, err := time.Parse("15:04", r.StartTime); err != nil {
			fail(fmt.Sprintf("invalid startTime %q (want HH:MM)", r.StartTime))
		}
	}
	if r.EndTime != "" {
		if _, err := time.Parse("15:04", r.EndTime); err != nil {
			fail(fmt.Sprintf("invalid endTime %q (want HH:MM)", r.EndTime))
		}
	}

	if !r.IsOpen && r.ClosedReason == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning, Entity: "rule", ID: r.ID,
			Message: "closed rule has no closedReason; callers will see an empty reason",
		})
	}

	return issues
}

// ValidateSchedule checks a single schedule's fields. Rule references are
// checked dataset-wide by Validate, not here, since a single schedule cannot
// know the full rule set.
func ValidateSchedule(s *schedule.Schedule) []Issue {
	var issues []Issue
	fail := func(msg string) {
		issues = append(issues, Issue{Severity: SeverityError, Entity: "schedule", ID: s.ID, Message: msg})
	}

	if s.ID == "" {
		fail("id is required")
	}
	if s.Name == "" {
		fail("name is required")
	}

	if s.TimeZone == "" {
		fail("timeZone is required")
	} else if _, err := time.LoadLocation(s.TimeZone); err != nil {
		fail(fmt.Sprintf("unknown timeZone %q", s.TimeZone))
	}

	return issues
}
