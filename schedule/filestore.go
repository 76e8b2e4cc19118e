package schedule

import (
	"encoding/json"
	"fmt"
	"os"
)

// FileStore implements Store over a JSON document on disk — the same
// normalized shape an operator would author by hand: top-level "schedules"
// and "rules" arrays, with schedules referencing rules by ID. The file is
// read on every Load; mutations are rejected with ErrReadOnly, since the file
// is owned by whoever edits it.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed store for the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads and decodes the dataset document.
func (s *FileStore) Load() (*Dataset, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule data file: %w", err)
	}

	var ds Dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse schedule data file %s: %w", s.path, err)
	}

	return &ds, nil
}

// GetSchedule retrieves a schedule by ID.
func (s *FileStore) GetSchedule(id string) (*Schedule, error) {
	ds, err := s.Load()
	if err != nil {
		return nil, err
	}
	for i := range ds.Schedules {
		if ds.Schedules[i].ID == id {
			return &ds.Schedules[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrScheduleNotFound, id)
}

// GetRule retrieves a rule by ID.
func (s *FileStore) GetRule(id string) (*Rule, error) {
	ds, err := s.Load()
	if err != nil {
		return nil, err
	}
	for i := range ds.Rules {
		if ds.Rules[i].ID == id {
			return &ds.Rules[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrRuleNotFound, id)
}

// AddSchedule is not supported for file-backed data.
func (s *FileStore) AddSchedule(*Schedule) error { return ErrReadOnly }

// UpdateSchedule is not supported for file-backed data.
func (s *FileStore) UpdateSchedule(*Schedule) error { return ErrReadOnly }

// DeleteSchedule is not supported for file-backed data.
func (s *FileStore) DeleteSchedule(string) error { return ErrReadOnly }

// AddRule is not supported for file-backed data.
func (s *FileStore) AddRule(*Rule) error { return ErrReadOnly }

// UpdateRule is not supported for file-backed data.
func (s *FileStore) UpdateRule(*Rule) error { return ErrReadOnly }

// DeleteRule is not supported for file-backed data.
func (s *FileStore) DeleteRule(string) error { return ErrReadOnly }
