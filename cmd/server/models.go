package main

// API request and response models.

// CheckScheduleRequest is the POST body for a schedule check. Simulate
// substitutes an ISO 8601 instant for "now".
type CheckScheduleRequest struct {
	Name     string `json:"name" example:"Support"`
	Simulate string `json:"simulate,omitempty" example:"2024-03-04T10:00:00Z"`
}

// CheckScheduleResponse mirrors schedule.EvaluationResult.
type CheckScheduleResponse struct {
	IsOpen       bool   `json:"isOpen" example:"false"`
	ClosedReason string `json:"closedReason" example:"holiday"`
}

// ScheduleRequest is the body for creating or updating a schedule. Rules
// holds rule IDs in priority order.
type ScheduleRequest struct {
	Name           string   `json:"name" example:"Support"`
	TimeZone       string   `json:"timeZone" example:"America/New_York"`
	EmergencyClose bool     `json:"emergencyClose" example:"false"`
	Rules          []string `json:"rules"`
}

// RuleRequest is the body for creating or updating a rule.
type RuleRequest struct {
	Name         string `json:"name" example:"Weekday business hours"`
	StartDate    string `json:"startDate,omitempty" example:"2024-01-01"`
	EndDate      string `json:"endDate,omitempty" example:"2024-12-31"`
	DateRRule    string `json:"dateRRule,omitempty" example:"FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR"`
	StartTime    string `json:"startTime,omitempty" example:"09:00"`
	EndTime      string `json:"endTime,omitempty" example:"17:00"`
	IsOpen       bool   `json:"isOpen" example:"true"`
	ClosedReason string `json:"closedReason,omitempty" example:"holiday"`
}

// ErrorResponse is the error body for all non-2xx responses.
type ErrorResponse struct {
	Error   string `json:"error" example:"name is required"`
	Details string `json:"details,omitempty"`
}

// HealthResponse is the health check body.
type HealthResponse struct {
	Status string `json:"status" example:"healthy"`
}

// MetricsResponse exposes the logger's error counters.
type MetricsResponse struct {
	TotalErrors    int64 `json:"totalErrors"`
	TotalWarnings  int64 `json:"totalWarnings"`
	Total5xxErrors int64 `json:"total5xxErrors"`
	Total4xxErrors int64 `json:"total4xxErrors"`
	Total400Errors int64 `json:"total400Errors"`
	Total404Errors int64 `json:"total404Errors"`
}
