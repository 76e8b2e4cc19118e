package schedule

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresStore implements Store backed by PostgreSQL. Rule order within a
// schedule is kept in the schedule_rules join table's position column, since
// that order is the tie-break priority at evaluation time.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed Store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Load returns the full dataset: all schedules with their ordered rule
// references, and all rules.
func (s *PostgresStore) Load() (*Dataset, error) {
	ds := &Dataset{}

	rows, err := s.db.Query(`
		SELECT id, name, time_zone, emergency_close
		FROM schedules
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedules: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sched Schedule
		if err := rows.Scan(&sched.ID, &sched.Name, &sched.TimeZone, &sched.EmergencyClose); err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		ds.Schedules = append(ds.Schedules, sched)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedules: %w", err)
	}

	for i := range ds.Schedules {
		refs, err := s.ruleRefs(ds.Schedules[i].ID)
		if err != nil {
			return nil, err
		}
		ds.Schedules[i].Rules = refs
	}

	ruleRows, err := s.db.Query(`
		SELECT id, name, start_date, end_date, date_rrule, start_time, end_time, is_open, closed_reason
		FROM rules
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	defer ruleRows.Close()

	for ruleRows.Next() {
		var rule Rule
		if err := ruleRows.Scan(
			&rule.ID, &rule.Name,
			&rule.StartDate, &rule.EndDate, &rule.DateRRule,
			&rule.StartTime, &rule.EndTime,
			&rule.IsOpen, &rule.ClosedReason,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		ds.Rules = append(ds.Rules, rule)
	}
	if err := ruleRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}

	return ds, nil
}

// ruleRefs returns a schedule's rule IDs in priority order.
func (s *PostgresStore) ruleRefs(scheduleID string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT rule_id
		FROM schedule_rules
		WHERE schedule_id = $1
		ORDER BY position
	`, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rule references: %w", err)
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan rule reference: %w", err)
		}
		refs = append(refs, id)
	}
	return refs, rows.Err()
}

// GetSchedule retrieves a schedule by ID, including its ordered rule references.
func (s *PostgresStore) GetSchedule(id string) (*Schedule, error) {
	var sched Schedule
	err := s.db.QueryRow(`
		SELECT id, name, time_zone, emergency_close
		FROM schedules
		WHERE id = $1
	`, id).Scan(&sched.ID, &sched.Name, &sched.TimeZone, &sched.EmergencyClose)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrScheduleNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}

	sched.Rules, err = s.ruleRefs(id)
	if err != nil {
		return nil, err
	}

	return &sched, nil
}

// AddSchedule inserts a new schedule and its rule references.
func (s *PostgresStore) AddSchedule(sched *Schedule) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO schedules (id, name, time_zone, emergency_close, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`, sched.ID, sched.Name, sched.TimeZone, sched.EmergencyClose)
	if err != nil {
		return fmt.Errorf("failed to insert schedule: %w", err)
	}

	if err := insertRuleRefs(tx, sched.ID, sched.Rules); err != nil {
		return err
	}

	return tx.Commit()
}

// UpdateSchedule replaces an existing schedule and its rule references.
func (s *PostgresStore) UpdateSchedule(sched *Schedule) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE schedules
		SET name = $2, time_zone = $3, emergency_close = $4, updated_at = NOW()
		WHERE id = $1
	`, sched.ID, sched.Name, sched.TimeZone, sched.EmergencyClose)
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %q", ErrScheduleNotFound, sched.ID)
	}

	if _, err := tx.Exec(`DELETE FROM schedule_rules WHERE schedule_id = $1`, sched.ID); err != nil {
		return fmt.Errorf("failed to clear rule references: %w", err)
	}
	if err := insertRuleRefs(tx, sched.ID, sched.Rules); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteSchedule removes a schedule; its rule references cascade.
func (s *PostgresStore) DeleteSchedule(id string) error {
	res, err := s.db.Exec(`DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %q", ErrScheduleNotFound, id)
	}
	return nil
}

// GetRule retrieves a rule by ID.
func (s *PostgresStore) GetRule(id string) (*Rule, error) {
	var rule Rule
	err := s.db.QueryRow(`
		SELECT id, name, start_date, end_date, date_rrule, start_time, end_time, is_open, closed_reason
		FROM rules
		WHERE id = $1
	`, id).Scan(
		&rule.ID, &rule.Name,
		&rule.StartDate, &rule.EndDate, &rule.DateRRule,
		&rule.StartTime, &rule.EndTime,
		&rule.IsOpen, &rule.ClosedReason,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrRuleNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}

	return &rule, nil
}

// AddRule inserts a new rule.
func (s *PostgresStore) AddRule(rule *Rule) error {
	_, err := s.db.Exec(`
		INSERT INTO rules (id, name, start_date, end_date, date_rrule, start_time, end_time, is_open, closed_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`, rule.ID, rule.Name,
		rule.StartDate, rule.EndDate, rule.DateRRule,
		rule.StartTime, rule.EndTime,
		rule.IsOpen, rule.ClosedReason)
	if err != nil {
		return fmt.Errorf("failed to insert rule: %w", err)
	}
	return nil
}

// UpdateRule replaces an existing rule.
func (s *PostgresStore) UpdateRule(rule *Rule) error {
	res, err := s.db.Exec(`
		UPDATE rules
		SET name = $2, start_date = $3, end_date = $4, date_rrule = $5,
		    start_time = $6, end_time = $7, is_open = $8, closed_reason = $9,
		    updated_at = NOW()
		WHERE id = $1
	`, rule.ID, rule.Name,
		rule.StartDate, rule.EndDate, rule.DateRRule,
		rule.StartTime, rule.EndTime,
		rule.IsOpen, rule.ClosedReason)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %q", ErrRuleNotFound, rule.ID)
	}
	return nil
}

// DeleteRule removes a rule. schedule_rules rows naming the ID are left in
// place (dangling references are tolerated; evaluation skips IDs that no
// longer resolve).
func (s *PostgresStore) DeleteRule(id string) error {
	res, err := s.db.Exec(`DELETE FROM rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %q", ErrRuleNotFound, id)
	}
	return nil
}

// insertRuleRefs writes a schedule's rule references with their positions.
func insertRuleRefs(tx *sql.Tx, scheduleID string, ruleIDs []string) error {
	for pos, ruleID := range ruleIDs {
		_, err := tx.Exec(`
			INSERT INTO schedule_rules (schedule_id, rule_id, position)
			VALUES ($1, $2, $3)
		`, scheduleID, ruleID, pos)
		if err != nil {
			return fmt.Errorf("failed to insert rule reference: %w", err)
		}
	}
	return nil
}
