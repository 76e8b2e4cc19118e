package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/liamcoop/schedules/internal/logger"
	"github.com/liamcoop/schedules/schedule"
)

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := s.manager.Dataset(); err != nil {
		respondError(w, http.StatusServiceUnavailable, "unhealthy", err)
		return
	}

	respondJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

// Metrics handler: error/warning counters from the logger
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, MetricsResponse{
		TotalErrors:    logger.TotalErrors.Load(),
		TotalWarnings:  logger.TotalWarnings.Load(),
		Total5xxErrors: logger.Total5xxErrors.Load(),
		Total4xxErrors: logger.Total4xxErrors.Load(),
		Total400Errors: logger.Total400Errors.Load(),
		Total404Errors: logger.Total404Errors.Load(),
	})
}

// Check handlers: GET uses query parameters, POST a JSON body. Both resolve
// to the same evaluation.
func (s *Server) handleCheckGet(w http.ResponseWriter, r *http.Request) {
	s.checkSchedule(w, r.URL.Query().Get("name"), r.URL.Query().Get("simulate"))
}

func (s *Server) handleCheckPost(w http.ResponseWriter, r *http.Request) {
	var req CheckScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	s.checkSchedule(w, req.Name, req.Simulate)
}

func (s *Server) checkSchedule(w http.ResponseWriter, name, simulate string) {
	if name == "" {
		// Without a name there is no schedule zone to parse simulate in, so
		// the simulate check here is syntactic only.
		msg := "name is required"
		if simulate != "" && !schedule.ValidSimulate(simulate) {
			msg += "; invalid simulate parameter"
		}
		respondError(w, http.StatusBadRequest, msg, nil)
		return
	}

	result, err := s.manager.Check(name, simulate)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, result)
	case errors.Is(err, schedule.ErrScheduleNotFound):
		respondError(w, http.StatusNotFound, "schedule not found", err)
	case errors.Is(err, schedule.ErrInvalidSimulate):
		respondError(w, http.StatusBadRequest, "invalid simulate parameter", err)
	default:
		respondError(w, http.StatusInternalServerError, "evaluation failed", err)
	}
}

// Full dataset handler, consumed by the management list views.
func (s *Server) handleGetData(w http.ResponseWriter, r *http.Request) {
	ds, err := s.manager.Dataset()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load data", err)
		return
	}
	respondJSON(w, http.StatusOK, ds)
}

// Create schedule handler
func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	sched := &schedule.Schedule{
		ID:             uuid.NewString(),
		Name:           req.Name,
		TimeZone:       req.TimeZone,
		EmergencyClose: req.EmergencyClose,
		Rules:          req.Rules,
	}

	if err := s.manager.CreateSchedule(sched); err != nil {
		respondStoreError(w, err, "failed to create schedule")
		return
	}

	respondJSON(w, http.StatusCreated, sched)
}

// Get schedule handler
func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	sched, err := s.manager.GetSchedule(chi.URLParam(r, "scheduleId"))
	if err != nil {
		respondError(w, http.StatusNotFound, "schedule not found", err)
		return
	}
	respondJSON(w, http.StatusOK, sched)
}

// Update schedule handler
func (s *Server) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	sched := &schedule.Schedule{
		ID:             chi.URLParam(r, "scheduleId"),
		Name:           req.Name,
		TimeZone:       req.TimeZone,
		EmergencyClose: req.EmergencyClose,
		Rules:          req.Rules,
	}

	if err := s.manager.UpdateSchedule(sched); err != nil {
		respondStoreError(w, err, "failed to update schedule")
		return
	}

	respondJSON(w, http.StatusOK, sched)
}

// Delete schedule handler
func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.DeleteSchedule(chi.URLParam(r, "scheduleId")); err != nil {
		respondStoreError(w, err, "failed to delete schedule")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Create rule handler
func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var req RuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	rule := ruleFromRequest(uuid.NewString(), &req)
	if err := s.manager.CreateRule(rule); err != nil {
		respondStoreError(w, err, "failed to create rule")
		return
	}

	respondJSON(w, http.StatusCreated, rule)
}

// Get rule handler
func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	rule, err := s.manager.GetRule(chi.URLParam(r, "ruleId"))
	if err != nil {
		respondError(w, http.StatusNotFound, "rule not found", err)
		return
	}
	respondJSON(w, http.StatusOK, rule)
}

// Update rule handler
func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	var req RuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	rule := ruleFromRequest(chi.URLParam(r, "ruleId"), &req)
	if err := s.manager.UpdateRule(rule); err != nil {
		respondStoreError(w, err, "failed to update rule")
		return
	}

	respondJSON(w, http.StatusOK, rule)
}

// Delete rule handler
func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.DeleteRule(chi.URLParam(r, "ruleId")); err != nil {
		respondStoreError(w, err, "failed to delete rule")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func ruleFromRequest(id string, req *RuleRequest) *schedule.Rule {
	return &schedule.Rule{
		ID:           id,
		Name:         req.Name,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		DateRRule:    req.DateRRule,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		IsOpen:       req.IsOpen,
		ClosedReason: req.ClosedReason,
	}
}

// respondStoreError maps manager/store failures to status codes.
func respondStoreError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, schedule.ErrScheduleNotFound), errors.Is(err, schedule.ErrRuleNotFound):
		respondError(w, http.StatusNotFound, message, err)
	case errors.Is(err, schedule.ErrReadOnly):
		respondError(w, http.StatusForbidden, "schedule data is read-only", err)
	default:
		respondError(w, http.StatusBadRequest, message, err)
	}
}

// Helper functions
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	switch {
	case status >= 500:
		logger.ErrorHttp5xx()
		logger.Error(message, "status", status, "error", err)
	case status >= 400:
		logger.WarnHttp4xx(status)
	}

	response := ErrorResponse{Error: message}
	if err != nil {
		response.Details = err.Error()
	}
	respondJSON(w, status, response)
}
