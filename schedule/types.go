package schedule

import "errors"

// Rule is a single applicability condition with an open/closed outcome.
// Date fields use the "2006-01-02" layout, time fields "15:04"; DateRRule is
// an RFC 5545 RRULE string. A rule with none of the date/time constraints set
// matches every instant.
type Rule struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	StartDate    string `json:"startDate,omitempty"`
	EndDate      string `json:"endDate,omitempty"`
	DateRRule    string `json:"dateRRule,omitempty"`
	StartTime    string `json:"startTime,omitempty"`
	EndTime      string `json:"endTime,omitempty"`
	IsOpen       bool   `json:"isOpen"`
	ClosedReason string `json:"closedReason,omitempty"`
}

// Schedule is a named, timezone-scoped ordered composition of rules.
// Rules holds rule IDs, not embedded rules; the order determines tie-break
// priority among matches of the same polarity.
type Schedule struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	TimeZone       string   `json:"timeZone"`
	EmergencyClose bool     `json:"emergencyClose"`
	Rules          []string `json:"rules"`
}

// Dataset is the persisted document shape: schedules referencing rules by ID.
type Dataset struct {
	Schedules []Schedule `json:"schedules"`
	Rules     []Rule     `json:"rules"`
}

// EvaluationResult is the outcome of checking one schedule at one instant.
type EvaluationResult struct {
	IsOpen       bool   `json:"isOpen"`
	ClosedReason string `json:"closedReason"`
}

// Reserved closed reasons. A rule-supplied reason is used verbatim.
const (
	ReasonEmergency = "emergency"
	ReasonClosed    = "closed"
)

var (
	// ErrScheduleNotFound is returned when the named schedule is not in the
	// loaded dataset.
	ErrScheduleNotFound = errors.New("schedule not found")

	// ErrRuleNotFound is returned by stores when a rule ID does not exist.
	ErrRuleNotFound = errors.New("rule not found")

	// ErrInvalidSimulate is returned when a simulated instant cannot be
	// parsed as an ISO 8601 date/time.
	ErrInvalidSimulate = errors.New("invalid simulate timestamp")

	// ErrUnknownTimeZone is returned when a schedule's timezone cannot be
	// resolved against the IANA database.
	ErrUnknownTimeZone = errors.New("unknown time zone")

	// ErrReadOnly is returned by stores that cannot accept mutations.
	ErrReadOnly = errors.New("store is read-only")
)
