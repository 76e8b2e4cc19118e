package schedule

import (
	"errors"
	"testing"
	"time"
)

func TestBuildSnapshotIndexes(t *testing.T) {
	snap := BuildSnapshot(supportDataset())

	sched, ok := snap.Schedule("Support")
	if !ok {
		t.Fatal("schedule should be indexed by name")
	}
	if sched.ID != "sched-support" {
		t.Errorf("Schedule ID = %s, want sched-support", sched.ID)
	}

	if _, ok := snap.Schedule("sched-support"); ok {
		t.Error("lookup is by name, not by id")
	}

	rule, ok := snap.Rule("rule-hours")
	if !ok {
		t.Fatal("rule should be indexed by id")
	}
	if rule.Name != "Business hours" {
		t.Errorf("Rule Name = %s, want Business hours", rule.Name)
	}
}

func TestBuildSnapshotResolvesLocations(t *testing.T) {
	ds := &Dataset{
		Schedules: []Schedule{
			{ID: "s1", Name: "NY", TimeZone: "America/New_York"},
			{ID: "s2", Name: "Bad", TimeZone: "Not/AZone"},
		},
	}

	snap := BuildSnapshot(ds)

	ny, _ := snap.Schedule("NY")
	loc, err := snap.Location(ny)
	if err != nil {
		t.Fatalf("Location() failed for valid zone: %v", err)
	}
	if loc.String() != "America/New_York" {
		t.Errorf("Location = %s, want America/New_York", loc)
	}

	bad, _ := snap.Schedule("Bad")
	if _, err := snap.Location(bad); !errors.Is(err, ErrUnknownTimeZone) {
		t.Errorf("Location() for bad zone: err = %v, want ErrUnknownTimeZone", err)
	}
}

func TestSnapshotCheck(t *testing.T) {
	snap := BuildSnapshot(supportDataset())

	result, err := snap.Check("Support", time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}
	if !result.IsOpen {
		t.Error("Support should be open at 10:00 UTC")
	}

	if _, err := snap.Check("Nope", time.Now()); !errors.Is(err, ErrScheduleNotFound) {
		t.Errorf("Check of unknown schedule: err = %v, want ErrScheduleNotFound", err)
	}
}

func TestSnapshotCheckBadZoneFailsEvaluation(t *testing.T) {
	ds := &Dataset{
		Schedules: []Schedule{{ID: "s1", Name: "Bad", TimeZone: "Not/AZone", Rules: []string{"r1"}}},
		Rules:     []Rule{{ID: "r1", IsOpen: true}},
	}
	snap := BuildSnapshot(ds)

	if _, err := snap.Check("Bad", time.Now()); !errors.Is(err, ErrUnknownTimeZone) {
		t.Errorf("err = %v, want ErrUnknownTimeZone", err)
	}
}
