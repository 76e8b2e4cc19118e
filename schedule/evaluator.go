package schedule

import (
	"fmt"
	"time"
)

// Evaluator answers open/closed checks by name against the dataset held in a
// Store. The indexed snapshot is cached so repeated checks do not reload or
// re-index the dataset; mutations go through the store and invalidate the
// cache, which rebuilds lazily on the next check.
type Evaluator struct {
	store Store
	cache SnapshotCache
}

// NewEvaluator creates an evaluator and loads the initial snapshot, so a
// broken store surfaces at startup rather than on the first request.
func NewEvaluator(store Store) (*Evaluator, error) {
	ev := &Evaluator{
		store: store,
		cache: NewInMemorySnapshotCache(DefaultCacheConfig()),
	}

	if _, err := ev.Snapshot(); err != nil {
		return nil, fmt.Errorf("failed to load schedule data: %w", err)
	}

	return ev, nil
}

// Snapshot returns the current indexed snapshot, rebuilding from the store on
// a cache miss.
func (ev *Evaluator) Snapshot() (*Snapshot, error) {
	if snap := ev.cache.Get(); snap != nil {
		return snap, nil
	}

	ds, err := ev.store.Load()
	if err != nil {
		return nil, err
	}

	snap := BuildSnapshot(ds)
	ev.cache.Set(snap)
	return snap, nil
}

// Invalidate drops the cached snapshot. Call after any store mutation.
func (ev *Evaluator) Invalidate() {
	ev.cache.Invalidate()
}

// CheckAt evaluates the named schedule at the given instant.
func (ev *Evaluator) CheckAt(name string, instant time.Time) (EvaluationResult, error) {
	snap, err := ev.Snapshot()
	if err != nil {
		return EvaluationResult{}, err
	}
	return snap.Check(name, instant)
}

// Check evaluates the named schedule. A non-empty simulate substitutes for
// the current instant: an ISO 8601 date/time, interpreted in the schedule's
// timezone when it carries no offset of its own.
func (ev *Evaluator) Check(name, simulate string) (EvaluationResult, error) {
	snap, err := ev.Snapshot()
	if err != nil {
		return EvaluationResult{}, err
	}

	sched, ok := snap.Schedule(name)
	if !ok {
		return EvaluationResult{}, fmt.Errorf("%w: %q", ErrScheduleNotFound, name)
	}

	if sched.EmergencyClose {
		return EvaluationResult{IsOpen: false, ClosedReason: ReasonEmergency}, nil
	}

	loc, err := snap.Location(sched)
	if err != nil {
		return EvaluationResult{}, err
	}

	instant := time.Now()
	if simulate != "" {
		instant, err = parseSimulate(simulate, loc)
		if err != nil {
			return EvaluationResult{}, err
		}
	}

	return Evaluate(sched, snap.rules, loc, instant), nil
}

// ValidSimulate reports whether s is a syntactically valid simulate value.
// It does not pick a zone for naive timestamps; use it only where the
// schedule's zone is not yet known.
func ValidSimulate(s string) bool {
	_, err := parseSimulate(s, time.UTC)
	return err == nil
}

// parseSimulate parses an ISO 8601 date/time. Timestamps without a UTC
// offset are interpreted in loc.
func parseSimulate(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04", dateLayout} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidSimulate, s)
}
