package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"schedule-orchestrator/internal/api/dto"
	"schedule-orchestrator/internal/domain"
	"schedule-orchestrator/internal/ports"
	"schedule-orchestrator/internal/services"
)

// Wire error codes for failed optimizations.
const (
	codeValidation  = "validation_error"
	codeNoCustomers = "no_customers_found"
	codeEngineError = "engine_error"
	codeUnreachable = "engine_unreachable"
	codeInternal    = "internal_error"
)

// ScheduleHandler is the gateway around the orchestrator: it applies
// request defaults, invokes the use case, and maps outcomes onto the
// response envelope.
type ScheduleHandler struct {
	Orchestrator *services.Orchestrator
	Location     *time.Location
	Now          func() time.Time
}

// Optimize handles POST /schedule/optimize: always re-optimizes,
// protecting a returning user's near-term days.
func (h *ScheduleHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	ws, start := applyDefaults(req)
	result, err := h.Orchestrator.SmartOptimize(r.Context(), req.UserID, ws, start)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, h.envelope(result))
}

// Get handles GET /schedule?user_id=: serves the cached schedule while
// fresh and only falls back to the engine when it is stale or absent.
func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		writeError(w, r, http.StatusBadRequest, "user_id is required")
		return
	}

	ws, start := applyDefaults(dto.OptimizeRequest{UserID: userID})
	result, err := h.Orchestrator.GetSchedule(r.Context(), userID, ws, start)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, h.envelope(result))
}

// ClearCache handles DELETE /schedule/cache?user_id=: a manual hard
// refresh, forcing the next call to consult the engine.
func (h *ScheduleHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.Header().Set("Allow", http.MethodDelete)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		writeError(w, r, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := h.Orchestrator.ClearCache(r.Context(), userID); err != nil {
		log.Printf("clear cache failed: user_id=%s err=%v", userID, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]string{"status": "cleared"})
}

func (h *ScheduleHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (dto.OptimizeRequest, bool) {
	var req dto.OptimizeRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return req, false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return req, false
	}

	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		writeError(w, r, http.StatusBadRequest, "user_id is required")
		return req, false
	}

	return req, true
}

// applyDefaults fills the documented fallbacks: 8h Mon-Fri / 4h Sat work
// schedule and the fixed start location.
func applyDefaults(req dto.OptimizeRequest) (domain.WorkSchedule, domain.StartLocation) {
	ws := domain.DefaultWorkSchedule()
	if req.WorkSchedule != nil {
		ws = *req.WorkSchedule
	}

	start := domain.DefaultStartLocation()
	if req.CleanerLocation != nil {
		start = *req.CleanerLocation
	}

	return ws, start
}

func (h *ScheduleHandler) envelope(result *services.Result) dto.OptimizeResponse {
	schedule := result.Schedule

	var today *domain.DaySchedule
	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	loc := h.Location
	if loc == nil {
		loc = time.Local
	}
	if day, ok := schedule.DayFor(now.In(loc).Format(domain.ISODate)); ok {
		today = &day
	}

	protected := result.ProtectedDates
	if protected == nil {
		protected = []string{}
	}

	message := "Your weekly schedule is ready. Every day has been optimized from scratch."
	if !result.IsFirstTime {
		message = "Your schedule has been re-optimized. Today and tomorrow stay exactly as planned."
	}

	return dto.OptimizeResponse{
		Success:        true,
		Message:        message,
		IsFirstTime:    result.IsFirstTime,
		ProtectedDates: protected,
		Data: &dto.OptimizeData{
			FullSchedule:          schedule.Days,
			TodaysSchedule:        today,
			Metrics:               services.ExtractMetrics(schedule),
			Summary:               schedule.Summary,
			TimeSavings:           schedule.TimeSavings,
			UnscheduledCustomers:  schedule.UnscheduledCustomers,
			CustomersFromDatabase: schedule.CustomersFromDatabase,
		},
	}
}

// writeFailure maps the orchestrator's typed failures onto the wire
// envelope: "fix your data" conditions vs "try again shortly" ones.
func (h *ScheduleHandler) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := codeInternal
	msg := "internal server error"

	switch {
	case errors.Is(err, services.ErrInvalidWorkSchedule):
		status = http.StatusBadRequest
		code = codeValidation
		msg = "Work schedule is invalid: each day's hours must be between 0 and 24."
	case errors.Is(err, ports.ErrNoCustomers):
		status = http.StatusNotFound
		code = codeNoCustomers
		msg = "No customers found. Add customers before optimizing your schedule."
	case errors.Is(err, ports.ErrUnreachable):
		status = http.StatusServiceUnavailable
		code = codeUnreachable
		msg = "The optimization service could not be reached. Please try again shortly."
	case errors.Is(err, ports.ErrMalformed):
		// Surfaced like an engine fault but logged distinctly for diagnosis.
		log.Printf("malformed engine response: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
		status = http.StatusBadGateway
		code = codeEngineError
		msg = "The optimization service returned an unexpected result. Please try again shortly."
	case errors.Is(err, ports.ErrEngineFault):
		status = http.StatusBadGateway
		code = codeEngineError
		msg = "The optimization service hit an internal error. Please try again shortly."
	default:
		log.Printf("smart optimize failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
	}

	writeJSON(w, r, status, dto.OptimizeErrorResponse{
		Success:          false,
		Error:            msg,
		Code:             code,
		OptimizationType: "failed",
	})
}
