package dataset

import (
	"fmt"

	"github.com/liamcoop/schedules/internal/logger"
	"github.com/liamcoop/schedules/schedule"
)

// Manager owns the schedule dataset: it binds a Store to an Evaluator and
// keeps the two consistent. Reads go through the evaluator's cached snapshot;
// writes are validated, written through to the store, and invalidate the
// snapshot so the next check sees the new data. The swap is zero-downtime:
// checks running against the old snapshot finish against the old snapshot.
type Manager struct {
	store schedule.Store
	eval  *schedule.Evaluator
}

// NewManager creates a manager, loads the initial snapshot, and validates the
// loaded dataset. Validation findings are logged — warnings as warnings,
// errors as errors — but do not prevent startup: the evaluator degrades per
// entity rather than refusing the whole dataset.
func NewManager(store schedule.Store) (*Manager, error) {
	eval, err := schedule.NewEvaluator(store)
	if err != nil {
		return nil, err
	}

	m := &Manager{store: store, eval: eval}

	ds, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	report := Validate(ds)
	for _, issue := range report.Warnings() {
		logger.Warn("dataset validation warning", "entity", issue.Entity, "id", issue.ID, "message", issue.Message)
	}
	for _, issue := range report.Errors() {
		logger.Error("dataset validation error", "entity", issue.Entity, "id", issue.ID, "message", issue.Message)
	}
	logger.Info("dataset loaded", "schedules", len(ds.Schedules), "rules", len(ds.Rules), "issues", len(report.Issues))

	return m, nil
}

// Check evaluates the named schedule, optionally at a simulated instant.
func (m *Manager) Check(name, simulate string) (schedule.EvaluationResult, error) {
	return m.eval.Check(name, simulate)
}

// Dataset returns the full dataset from the store.
func (m *Manager) Dataset() (*schedule.Dataset, error) {
	return m.store.Load()
}

// GetSchedule retrieves a schedule by ID.
func (m *Manager) GetSchedule(id string) (*schedule.Schedule, error) {
	return m.store.GetSchedule(id)
}

// CreateSchedule validates and stores a new schedule.
func (m *Manager) CreateSchedule(sched *schedule.Schedule) error {
	if err := entityErr(ValidateSchedule(sched)); err != nil {
		return err
	}
	if err := m.store.AddSchedule(sched); err != nil {
		return err
	}
	m.eval.Invalidate()
	return nil
}

// UpdateSchedule validates and replaces an existing schedule.
func (m *Manager) UpdateSchedule(sched *schedule.Schedule) error {
	if err := entityErr(ValidateSchedule(sched)); err != nil {
		return err
	}
	if err := m.store.UpdateSchedule(sched); err != nil {
		return err
	}
	m.eval.Invalidate()
	return nil
}

// DeleteSchedule removes a schedule.
func (m *Manager) DeleteSchedule(id string) error {
	if err := m.store.DeleteSchedule(id); err != nil {
		return err
	}
	m.eval.Invalidate()
	return nil
}

// GetRule retrieves a rule by ID.
func (m *Manager) GetRule(id string) (*schedule.Rule, error) {
	return m.store.GetRule(id)
}

// CreateRule validates and stores a new rule.
func (m *Manager) CreateRule(rule *schedule.Rule) error {
	if err := entityErr(ValidateRule(rule)); err != nil {
		return err
	}
	if err := m.store.AddRule(rule); err != nil {
		return err
	}
	m.eval.Invalidate()
	return nil
}

// UpdateRule validates and replaces an existing rule.
func (m *Manager) UpdateRule(rule *schedule.Rule) error {
	if err := entityErr(ValidateRule(rule)); err != nil {
		return err
	}
	if err := m.store.UpdateRule(rule); err != nil {
		return err
	}
	m.eval.Invalidate()
	return nil
}

// DeleteRule removes a rule. Schedules still referencing it skip the stale
// reference at evaluation time.
func (m *Manager) DeleteRule(id string) error {
	if err := m.store.DeleteRule(id); err != nil {
		return err
	}
	m.eval.Invalidate()
	return nil
}

// entityErr converts entity-level issues into a rejection error. Warnings do
// not block a write.
func entityErr(issues []Issue) error {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return fmt.Errorf("validation failed: %s", issue.Message)
		}
	}
	return nil
}
