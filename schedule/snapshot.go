package schedule

import (
	"fmt"
	"time"
)

// Snapshot is the immutable, indexed form of a Dataset: schedules keyed by
// name, rules keyed by ID, and each schedule's timezone resolved once.
// A snapshot is built once per load and shared read-only across evaluations,
// so concurrent evaluations need no locking.
type Snapshot struct {
	schedules map[string]*Schedule
	rules     map[string]*Rule
	locations map[string]*time.Location // schedule ID -> resolved zone
	zoneErrs  map[string]error          // schedule ID -> LoadLocation failure
}

// BuildSnapshot indexes a dataset for evaluation. Building never fails:
// schedules with unresolvable timezones are kept and their zone error is
// surfaced when that schedule is evaluated, so one bad entry cannot take the
// whole dataset down.
func BuildSnapshot(ds *Dataset) *Snapshot {
	snap := &Snapshot{
		schedules: make(map[string]*Schedule, len(ds.Schedules)),
		rules:     make(map[string]*Rule, len(ds.Rules)),
		locations: make(map[string]*time.Location, len(ds.Schedules)),
		zoneErrs:  make(map[string]error),
	}

	for i := range ds.Rules {
		rule := ds.Rules[i]
		snap.rules[rule.ID] = &rule
	}

	for i := range ds.Schedules {
		sched := ds.Schedules[i]
		snap.schedules[sched.Name] = &sched

		loc, err := time.LoadLocation(sched.TimeZone)
		if err != nil {
			snap.zoneErrs[sched.ID] = fmt.Errorf("%w: %q", ErrUnknownTimeZone, sched.TimeZone)
			continue
		}
		snap.locations[sched.ID] = loc
	}

	return snap
}

// Schedule returns the schedule with the given name.
func (s *Snapshot) Schedule(name string) (*Schedule, bool) {
	sched, ok := s.schedules[name]
	return sched, ok
}

// Rule returns the rule with the given ID.
func (s *Snapshot) Rule(id string) (*Rule, bool) {
	rule, ok := s.rules[id]
	return rule, ok
}

// Location returns the resolved timezone for a schedule in this snapshot.
func (s *Snapshot) Location(sched *Schedule) (*time.Location, error) {
	if err, bad := s.zoneErrs[sched.ID]; bad {
		return nil, err
	}
	loc, ok := s.locations[sched.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimeZone, sched.TimeZone)
	}
	return loc, nil
}

// Check evaluates the named schedule at the given instant.
func (s *Snapshot) Check(name string, instant time.Time) (EvaluationResult, error) {
	sched, ok := s.Schedule(name)
	if !ok {
		return EvaluationResult{}, fmt.Errorf("%w: %q", ErrScheduleNotFound, name)
	}

	// Emergency close needs no timezone; check it before zone resolution so
	// a broken timezone cannot mask the override.
	if sched.EmergencyClose {
		return EvaluationResult{IsOpen: false, ClosedReason: ReasonEmergency}, nil
	}

	loc, err := s.Location(sched)
	if err != nil {
		return EvaluationResult{}, err
	}

	return Evaluate(sched, s.rules, loc, instant), nil
}
