package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"travel-ai-planner/internal/domain"
	"travel-ai-planner/internal/domain/model"
	"travel-ai-planner/internal/infra/logging"
	"travel-ai-planner/internal/infra/metrics"
	red "travel-ai-planner/internal/infra/redis"
)

// A struct to define the expected JSON request body for submitting a plan.
type submitPlanRequest struct {
	Destination string `json:"destination"`
	StartDate   string `json:"start_date"` // YYYY-MM-DD
	EndDate     string `json:"end_date"`   // YYYY-MM-DD
	Adults      int    `json:"adults"`
	Children    int    `json:"children"`
	Budget      int64  `json:"budget,omitempty"`
	Currency    string `json:"currency,omitempty"`
	TravelStyle string `json:"travel_style,omitempty"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Identity comes from the fronting gateway; sessions are out of
	// scope here.
	userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if userID == "" {
		userID = "anonymous"
	}
	ctx = logging.WithUserID(ctx, userID)

	if s.limiter != nil && s.limitPerHour > 0 {
		err := s.limiter.Allow(ctx, red.SubmissionKey(userID), s.limitPerHour, time.Hour)
		switch {
		case errors.Is(err, domain.ErrRateLimited):
			metrics.IncSubmissionRejected("rate_limited")
			http.Error(w, "Too many plan submissions, try again later", http.StatusTooManyRequests)
			return
		case err != nil:
			logging.With(ctx, s.log).Error().Err(err).Msg("rate limiter unavailable, allowing request")
		}
	}

	var body submitPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req, err := body.toModel()
	if err != nil {
		metrics.IncSubmissionRejected("invalid")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	receipt, err := s.planUC.SubmitGeneration(ctx, userID, req)
	if err != nil {
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			metrics.IncSubmissionRejected("invalid")
			http.Error(w, verr.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrQueueFull):
			http.Error(w, "Generation queue is full, try again later", http.StatusServiceUnavailable)
		default:
			logging.With(ctx, s.log).Error().Err(err).Msg("plan submission failed")
			http.Error(w, "Failed to submit plan", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusAccepted, receipt)
}

func (s *Server) handlePollStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	view, err := s.planUC.PollStatus(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "Job not found", http.StatusNotFound)
			return
		}
		s.log.Error().Err(err).Str("job_id", jobID).Msg("status poll failed")
		http.Error(w, "Failed to get job status", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	plan, err := s.planUC.GetPlan(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "Plan not found", http.StatusNotFound)
			return
		}
		s.log.Error().Err(err).Str("job_id", jobID).Msg("plan fetch failed")
		http.Error(w, "Failed to get plan", http.StatusInternalServerError)
		return
	}

	response := struct {
		PlanID      string           `json:"plan_id"`
		Status      string           `json:"status"`
		Destination string           `json:"destination"`
		StartDate   string           `json:"start_date"`
		EndDate     string           `json:"end_date"`
		Itinerary   *model.Itinerary `json:"itinerary,omitempty"`
		Error       string           `json:"error,omitempty"`
	}{
		PlanID:      plan.ID,
		Status:      string(plan.Status),
		Destination: plan.Request.Destination,
		StartDate:   plan.Request.StartDate.Format("2006-01-02"),
		EndDate:     plan.Request.EndDate.Format("2006-01-02"),
		Itinerary:   plan.Itinerary,
		Error:       plan.ErrorMessage,
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	breaker := s.stats.BreakerStats()
	status := "ok"
	code := http.StatusOK
	if breaker.State == "OPEN" {
		status = "degraded"
	}
	writeJSON(w, code, map[string]any{
		"status":        status,
		"breaker_state": breaker.State,
		"queue_depth":   s.queue.Depth(),
	})
}

func (s *Server) handleBreakerStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.BreakerStats())
}

func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.CacheStats())
}

func (s *Server) handleQueueStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"depth": s.queue.Depth()})
}

func (b submitPlanRequest) toModel() (model.GenerationRequest, error) {
	start, err := time.Parse("2006-01-02", b.StartDate)
	if err != nil {
		return model.GenerationRequest{}, &domain.ValidationError{Field: "start_date", Reason: "expected YYYY-MM-DD"}
	}
	end, err := time.Parse("2006-01-02", b.EndDate)
	if err != nil {
		return model.GenerationRequest{}, &domain.ValidationError{Field: "end_date", Reason: "expected YYYY-MM-DD"}
	}
	return model.GenerationRequest{
		Destination: b.Destination,
		StartDate:   start,
		EndDate:     end,
		Adults:      b.Adults,
		Children:    b.Children,
		Budget:      b.Budget,
		Currency:    b.Currency,
		TravelStyle: b.TravelStyle,
	}, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
