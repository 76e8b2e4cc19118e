package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/liamcoop/schedules/dataset"
	"github.com/liamcoop/schedules/schedule"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	store, err := schedule.NewInMemoryStoreFromDataset(&schedule.Dataset{
		Schedules: []schedule.Schedule{
			{ID: "sched-support", Name: "Support", TimeZone: "UTC", Rules: []string{"rule-hours", "rule-holiday"}},
			{ID: "sched-closed", Name: "Emergency", TimeZone: "UTC", EmergencyClose: true},
		},
		Rules: []schedule.Rule{
			{ID: "rule-hours", Name: "Business hours", StartTime: "09:00", EndTime: "17:00", IsOpen: true},
			{ID: "rule-holiday", Name: "Christmas", DateRRule: "FREQ=YEARLY;BYMONTH=12;BYMONTHDAY=25", IsOpen: false, ClosedReason: "holiday"},
		},
	})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	manager, err := dataset.NewManager(store)
	if err != nil {
		t.Fatalf("NewManager() failed: %v", err)
	}

	return NewServer(manager)
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeCheck(t *testing.T, rec *httptest.ResponseRecorder) CheckScheduleResponse {
	t.Helper()
	var resp CheckScheduleResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestCheckScheduleGet(t *testing.T) {
	srv := newTestServer(t)

	testCases := []struct {
		name       string
		url        string
		wantStatus int
		wantOpen   bool
		wantReason string
	}{
		{"open during business hours", "/api/v1/check-schedule?name=Support&simulate=2024-03-04T10:00:00Z", http.StatusOK, true, ""},
		{"closed after hours", "/api/v1/check-schedule?name=Support&simulate=2024-03-04T18:00:00Z", http.StatusOK, false, "closed"},
		{"closed on holiday", "/api/v1/check-schedule?name=Support&simulate=2024-12-25T10:00:00Z", http.StatusOK, false, "holiday"},
		{"emergency closed", "/api/v1/check-schedule?name=Emergency&simulate=2024-03-04T10:00:00Z", http.StatusOK, false, "emergency"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodGet, tc.url, nil)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (body: %s)", rec.Code, tc.wantStatus, rec.Body)
			}
			resp := decodeCheck(t, rec)
			if resp.IsOpen != tc.wantOpen || resp.ClosedReason != tc.wantReason {
				t.Errorf("response = %+v, want {IsOpen:%v ClosedReason:%q}", resp, tc.wantOpen, tc.wantReason)
			}
		})
	}
}

func TestCheckScheduleErrors(t *testing.T) {
	srv := newTestServer(t)

	// Missing name: validation failure before any evaluation.
	rec := doJSON(t, srv, http.MethodGet, "/api/v1/check-schedule", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing name: status = %d, want 400", rec.Code)
	}

	// Unknown schedule: lookup failure, distinct from validation.
	rec = doJSON(t, srv, http.MethodGet, "/api/v1/check-schedule?name=Billing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown schedule: status = %d, want 404", rec.Code)
	}

	// Bad simulate: validation failure.
	rec = doJSON(t, srv, http.MethodGet, "/api/v1/check-schedule?name=Support&simulate=tomorrow", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad simulate: status = %d, want 400", rec.Code)
	}

	// Missing name and bad simulate together: both named in the failure.
	rec = doJSON(t, srv, http.MethodGet, "/api/v1/check-schedule?simulate=tomorrow", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing name + bad simulate: status = %d, want 400", rec.Code)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if !strings.Contains(errResp.Error, "name") || !strings.Contains(errResp.Error, "simulate") {
		t.Errorf("error = %q, want both failures named", errResp.Error)
	}
}

func TestCheckSchedulePost(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/check-schedule", CheckScheduleRequest{
		Name:     "Support",
		Simulate: "2024-03-04T10:00:00Z",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body)
	}
	if resp := decodeCheck(t, rec); !resp.IsOpen {
		t.Errorf("response = %+v, want open", resp)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/check-schedule", CheckScheduleRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty body: status = %d, want 400", rec.Code)
	}
}

func TestManagementCRUD(t *testing.T) {
	srv := newTestServer(t)

	// Create a closing rule.
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/rules", RuleRequest{
		Name:         "Maintenance window",
		IsOpen:       false,
		ClosedReason: "maintenance",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create rule: status = %d (body: %s)", rec.Code, rec.Body)
	}
	var rule schedule.Rule
	if err := json.NewDecoder(rec.Body).Decode(&rule); err != nil {
		t.Fatalf("decode rule: %v", err)
	}
	if rule.ID == "" {
		t.Fatal("created rule should have a server-minted id")
	}

	// Create a schedule that closes on that rule.
	rec = doJSON(t, srv, http.MethodPost, "/api/v1/schedules", ScheduleRequest{
		Name:     "Maintenance",
		TimeZone: "UTC",
		Rules:    []string{rule.ID},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create schedule: status = %d (body: %s)", rec.Code, rec.Body)
	}
	var sched schedule.Schedule
	if err := json.NewDecoder(rec.Body).Decode(&sched); err != nil {
		t.Fatalf("decode schedule: %v", err)
	}

	// The new schedule is immediately checkable.
	rec = doJSON(t, srv, http.MethodGet, "/api/v1/check-schedule?name=Maintenance&simulate=2024-03-04T10:00:00Z", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("check new schedule: status = %d", rec.Code)
	}
	if resp := decodeCheck(t, rec); resp.IsOpen || resp.ClosedReason != "maintenance" {
		t.Errorf("check = %+v, want closed/maintenance", resp)
	}

	// Read it back.
	rec = doJSON(t, srv, http.MethodGet, "/api/v1/schedules/"+sched.ID, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get schedule: status = %d", rec.Code)
	}

	// Delete the rule; the schedule degrades to default closed.
	rec = doJSON(t, srv, http.MethodDelete, "/api/v1/rules/"+rule.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete rule: status = %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/api/v1/check-schedule?name=Maintenance&simulate=2024-03-04T10:00:00Z", nil)
	if resp := decodeCheck(t, rec); resp.ClosedReason != "closed" {
		t.Errorf("after rule deletion: %+v, want default closed", resp)
	}

	// Delete the schedule.
	rec = doJSON(t, srv, http.MethodDelete, "/api/v1/schedules/"+sched.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete schedule: status = %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/api/v1/check-schedule?name=Maintenance", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("check deleted schedule: status = %d, want 404", rec.Code)
	}
}

func TestManagementValidation(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/schedules", ScheduleRequest{
		Name:     "Bad",
		TimeZone: "Mars/Olympus",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad timezone: status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/rules", RuleRequest{
		Name:      "Bad",
		DateRRule: "FREQ=NOPE",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad rrule: status = %d, want 400", rec.Code)
	}
}

func TestGetData(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/data", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var ds schedule.Dataset
	if err := json.NewDecoder(rec.Body).Decode(&ds); err != nil {
		t.Fatalf("decode dataset: %v", err)
	}
	if len(ds.Schedules) != 2 || len(ds.Rules) != 2 {
		t.Errorf("dataset = %d schedules / %d rules, want 2/2", len(ds.Schedules), len(ds.Rules))
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	srv := newTestServer(t)

	// Provoke a 404 so the counters move.
	doJSON(t, srv, http.MethodGet, "/api/v1/check-schedule?name=Billing", nil)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var m MetricsResponse
	if err := json.NewDecoder(rec.Body).Decode(&m); err != nil {
		t.Fatalf("decode metrics: %v", err)
	}
	if m.Total404Errors == 0 {
		t.Error("404 counter should have been incremented")
	}
}

func TestReadOnlyFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedules.json")
	doc := []byte(`{
		"schedules": [{"id": "s1", "name": "Support", "timeZone": "UTC", "rules": ["r1"]}],
		"rules": [{"id": "r1", "name": "Hours", "startTime": "09:00", "endTime": "17:00", "isOpen": true}]
	}`)
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	manager, err := dataset.NewManager(schedule.NewFileStore(path))
	if err != nil {
		t.Fatalf("NewManager() failed: %v", err)
	}
	srv := NewServer(manager)

	// Checks work.
	rec := doJSON(t, srv, http.MethodGet, "/api/v1/check-schedule?name=Support&simulate=2024-03-04T10:00:00Z", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("check: status = %d", rec.Code)
	}

	// Mutations are forbidden.
	rec = doJSON(t, srv, http.MethodPost, "/api/v1/rules", RuleRequest{Name: "New", IsOpen: true})
	if rec.Code != http.StatusForbidden {
		t.Errorf("create on read-only store: status = %d, want 403", rec.Code)
	}
}
