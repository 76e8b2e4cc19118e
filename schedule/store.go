package schedule

import (
	"fmt"
	"sort"
	"sync"
)

// Store manages schedule and rule persistence. Load returns the whole dataset
// for snapshot building; the remaining methods back the management API.
type Store interface {
	// Load returns the full dataset.
	Load() (*Dataset, error)

	// Schedule operations.
	GetSchedule(id string) (*Schedule, error)
	AddSchedule(sched *Schedule) error
	UpdateSchedule(sched *Schedule) error
	DeleteSchedule(id string) error

	// Rule operations.
	GetRule(id string) (*Rule, error)
	AddRule(rule *Rule) error
	UpdateRule(rule *Rule) error
	DeleteRule(id string) error
}

// InMemoryStore implements Store using in-memory maps. Thread-safe with an
// RWMutex. Suitable for tests and for running the server without a database.
type InMemoryStore struct {
	schedules map[string]*Schedule
	rules     map[string]*Rule
	mu        sync.RWMutex
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		schedules: make(map[string]*Schedule),
		rules:     make(map[string]*Rule),
	}
}

// NewInMemoryStoreFromDataset creates an in-memory store seeded with ds.
func NewInMemoryStoreFromDataset(ds *Dataset) (*InMemoryStore, error) {
	s := NewInMemoryStore()
	for i := range ds.Rules {
		if err := s.AddRule(&ds.Rules[i]); err != nil {
			return nil, err
		}
	}
	for i := range ds.Schedules {
		if err := s.AddSchedule(&ds.Schedules[i]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Load returns a copy of the dataset with schedules and rules sorted by name
// for stable output.
func (s *InMemoryStore) Load() (*Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds := &Dataset{
		Schedules: make([]Schedule, 0, len(s.schedules)),
		Rules:     make([]Rule, 0, len(s.rules)),
	}
	for _, sched := range s.schedules {
		ds.Schedules = append(ds.Schedules, *sched)
	}
	for _, rule := range s.rules {
		ds.Rules = append(ds.Rules, *rule)
	}

	sort.Slice(ds.Schedules, func(i, j int) bool { return ds.Schedules[i].Name < ds.Schedules[j].Name })
	sort.Slice(ds.Rules, func(i, j int) bool { return ds.Rules[i].Name < ds.Rules[j].Name })

	return ds, nil
}

// GetSchedule retrieves a schedule by ID.
func (s *InMemoryStore) GetSchedule(id string) (*Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sched, exists := s.schedules[id]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrScheduleNotFound, id)
	}
	cp := *sched
	return &cp, nil
}

// AddSchedule adds a new schedule. Schedule IDs must be unique.
func (s *InMemoryStore) AddSchedule(sched *Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.schedules[sched.ID]; exists {
		return fmt.Errorf("schedule with ID %s already exists", sched.ID)
	}

	cp := *sched
	s.schedules[sched.ID] = &cp
	return nil
}

// UpdateSchedule replaces an existing schedule.
func (s *InMemoryStore) UpdateSchedule(sched *Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.schedules[sched.ID]; !exists {
		return fmt.Errorf("%w: %q", ErrScheduleNotFound, sched.ID)
	}

	cp := *sched
	s.schedules[sched.ID] = &cp
	return nil
}

// DeleteSchedule removes a schedule.
func (s *InMemoryStore) DeleteSchedule(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.schedules[id]; !exists {
		return fmt.Errorf("%w: %q", ErrScheduleNotFound, id)
	}

	delete(s.schedules, id)
	return nil
}

// GetRule retrieves a rule by ID.
func (s *InMemoryStore) GetRule(id string) (*Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, exists := s.rules[id]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrRuleNotFound, id)
	}
	cp := *rule
	return &cp, nil
}

// AddRule adds a new rule. Rule IDs must be unique.
func (s *InMemoryStore) AddRule(rule *Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[rule.ID]; exists {
		return fmt.Errorf("rule with ID %s already exists", rule.ID)
	}

	cp := *rule
	s.rules[rule.ID] = &cp
	return nil
}

// UpdateRule replaces an existing rule.
func (s *InMemoryStore) UpdateRule(rule *Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[rule.ID]; !exists {
		return fmt.Errorf("%w: %q", ErrRuleNotFound, rule.ID)
	}

	cp := *rule
	s.rules[rule.ID] = &cp
	return nil
}

// DeleteRule removes a rule. Schedules referencing the deleted ID keep the
// reference; evaluation skips IDs that no longer resolve.
func (s *InMemoryStore) DeleteRule(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[id]; !exists {
		return fmt.Errorf("%w: %q", ErrRuleNotFound, id)
	}

	delete(s.rules, id)
	return nil
}
