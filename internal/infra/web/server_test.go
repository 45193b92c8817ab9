package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"travel-ai-planner/internal/domain"
	"travel-ai-planner/internal/domain/model"
	"travel-ai-planner/internal/infra/cache"
	"travel-ai-planner/internal/infra/resilience"
	"travel-ai-planner/internal/usecase"
)

type stubPlanUC struct {
	SubmitFunc  func(ctx context.Context, userID string, req model.GenerationRequest) (*usecase.SubmissionReceipt, error)
	PollFunc    func(ctx context.Context, jobID string) (*usecase.JobStatusView, error)
	GetPlanFunc func(ctx context.Context, jobID string) (*model.TravelPlan, error)
}

func (s *stubPlanUC) SubmitGeneration(ctx context.Context, userID string, req model.GenerationRequest) (*usecase.SubmissionReceipt, error) {
	return s.SubmitFunc(ctx, userID, req)
}

func (s *stubPlanUC) PollStatus(ctx context.Context, jobID string) (*usecase.JobStatusView, error) {
	return s.PollFunc(ctx, jobID)
}

func (s *stubPlanUC) GetPlan(ctx context.Context, jobID string) (*model.TravelPlan, error) {
	return s.GetPlanFunc(ctx, jobID)
}

type stubStats struct {
	breaker resilience.BreakerStats
}

func (s stubStats) BreakerStats() resilience.BreakerStats { return s.breaker }
func (s stubStats) CacheStats() cache.CacheStats          { return cache.CacheStats{} }

type stubQueue struct{ depth int }

func (s stubQueue) Depth() int { return s.depth }

type stubLimiter struct{ err error }

func (s stubLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) error {
	return s.err
}

func newTestServer(uc *stubPlanUC, stats PipelineStats) *Server {
	logger := zerolog.Nop()
	auth := NewAuthManager("test-secret", false, time.Minute)
	return NewServer(uc, stats, stubQueue{depth: 1}, nil, 0, auth, "admin-secret", &logger)
}

func submitBody(t *testing.T) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"destination": "Paris",
		"start_date":  "2026-06-01",
		"end_date":    "2026-06-05",
		"adults":      2,
	})
	if err != nil {
		t.Fatal(err)
	}
	return bytes.NewReader(b)
}

func TestHandleSubmit(t *testing.T) {
	t.Run("accepted submission returns 202 with receipt", func(t *testing.T) {
		uc := &stubPlanUC{
			SubmitFunc: func(ctx context.Context, userID string, req model.GenerationRequest) (*usecase.SubmissionReceipt, error) {
				if userID != "user-42" {
					t.Errorf("userID = %s", userID)
				}
				if req.Destination != "Paris" {
					t.Errorf("destination = %s", req.Destination)
				}
				return &usecase.SubmissionReceipt{PlanID: "p1", JobID: "j1", EstimatedCompletionAt: time.Now().Add(5 * time.Minute)}, nil
			},
		}
		srv := newTestServer(uc, stubStats{})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/plans", submitBody(t))
		req.Header.Set("X-User-ID", "user-42")
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusAccepted {
			t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
		}
		var receipt usecase.SubmissionReceipt
		if err := json.Unmarshal(rec.Body.Bytes(), &receipt); err != nil {
			t.Fatalf("decode receipt: %v", err)
		}
		if receipt.JobID != "j1" || receipt.PlanID != "p1" {
			t.Errorf("receipt = %+v", receipt)
		}
	})

	t.Run("validation failure returns 400", func(t *testing.T) {
		uc := &stubPlanUC{
			SubmitFunc: func(ctx context.Context, userID string, req model.GenerationRequest) (*usecase.SubmissionReceipt, error) {
				return nil, &domain.ValidationError{Field: "adults", Reason: "at least one adult required"}
			},
		}
		srv := newTestServer(uc, stubStats{})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/plans", submitBody(t))
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("malformed date returns 400 before the use case", func(t *testing.T) {
		uc := &stubPlanUC{
			SubmitFunc: func(ctx context.Context, userID string, req model.GenerationRequest) (*usecase.SubmissionReceipt, error) {
				t.Error("use case should not be reached")
				return nil, nil
			},
		}
		srv := newTestServer(uc, stubStats{})

		body := bytes.NewReader([]byte(`{"destination":"Paris","start_date":"06/01/2026","end_date":"2026-06-05","adults":2}`))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/plans", body)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("rate-limited user gets 429 before the use case", func(t *testing.T) {
		uc := &stubPlanUC{
			SubmitFunc: func(ctx context.Context, userID string, req model.GenerationRequest) (*usecase.SubmissionReceipt, error) {
				t.Error("use case should not be reached")
				return nil, nil
			},
		}
		logger := zerolog.Nop()
		auth := NewAuthManager("test-secret", false, time.Minute)
		srv := NewServer(uc, stubStats{}, stubQueue{}, stubLimiter{err: domain.ErrRateLimited}, 10, auth, "admin-secret", &logger)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/plans", submitBody(t))
		req.Header.Set("X-User-ID", "busy-user")
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("status = %d, want 429", rec.Code)
		}
	})

	t.Run("limiter backend failure lets the request through", func(t *testing.T) {
		uc := &stubPlanUC{
			SubmitFunc: func(ctx context.Context, userID string, req model.GenerationRequest) (*usecase.SubmissionReceipt, error) {
				return &usecase.SubmissionReceipt{PlanID: "p1", JobID: "j1"}, nil
			},
		}
		logger := zerolog.Nop()
		auth := NewAuthManager("test-secret", false, time.Minute)
		srv := NewServer(uc, stubStats{}, stubQueue{}, stubLimiter{err: errors.New("redis down")}, 10, auth, "admin-secret", &logger)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/plans", submitBody(t))
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusAccepted {
			t.Fatalf("status = %d, want 202 when the limiter backend is down", rec.Code)
		}
	})

	t.Run("full queue returns 503", func(t *testing.T) {
		uc := &stubPlanUC{
			SubmitFunc: func(ctx context.Context, userID string, req model.GenerationRequest) (*usecase.SubmissionReceipt, error) {
				return nil, domain.ErrQueueFull
			},
		}
		srv := newTestServer(uc, stubStats{})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/plans", submitBody(t))
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
	})
}

func TestHandlePollStatus(t *testing.T) {
	t.Run("known job returns the view", func(t *testing.T) {
		uc := &stubPlanUC{
			PollFunc: func(ctx context.Context, jobID string) (*usecase.JobStatusView, error) {
				return &usecase.JobStatusView{JobID: jobID, Status: "processing", Progress: 30}, nil
			},
		}
		srv := newTestServer(uc, stubStats{})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/j1", nil)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var view usecase.JobStatusView
		if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
			t.Fatal(err)
		}
		if view.JobID != "j1" || view.Progress != 30 {
			t.Errorf("view = %+v", view)
		}
	})

	t.Run("unknown job returns 404", func(t *testing.T) {
		uc := &stubPlanUC{
			PollFunc: func(ctx context.Context, jobID string) (*usecase.JobStatusView, error) {
				return nil, domain.ErrNotFound
			},
		}
		srv := newTestServer(uc, stubStats{})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/nope", nil)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})
}

func TestHandleGetPlan(t *testing.T) {
	uc := &stubPlanUC{
		GetPlanFunc: func(ctx context.Context, jobID string) (*model.TravelPlan, error) {
			return &model.TravelPlan{
				ID:     "p1",
				JobID:  jobID,
				Status: model.PlanStatusCompleted,
				Request: model.GenerationRequest{
					Destination: "paris",
					StartDate:   time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
					EndDate:     time.Date(2026, 6, 5, 0, 0, 0, 0, time.UTC),
					Adults:      2,
				},
				Itinerary: &model.Itinerary{Summary: "a trip", Days: []model.ItineraryDay{{Day: 1}}},
			}, nil
		},
	}
	srv := newTestServer(uc, stubStats{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/j1/plan", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		PlanID    string           `json:"plan_id"`
		Status    string           `json:"status"`
		Itinerary *model.Itinerary `json:"itinerary"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.PlanID != "p1" || resp.Status != "completed" || resp.Itinerary == nil {
		t.Errorf("response = %+v", resp)
	}
}

func TestHealthReflectsBreakerState(t *testing.T) {
	srv := newTestServer(&stubPlanUC{}, stubStats{breaker: resilience.BreakerStats{State: "OPEN"}})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "degraded" {
		t.Errorf("status = %v, want degraded while breaker open", body["status"])
	}
}

func TestOpsEndpoints(t *testing.T) {
	srv := newTestServer(&stubPlanUC{}, stubStats{})
	router := srv.Router()

	t.Run("unauthenticated access is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/ops/breaker", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("wrong admin secret cannot mint a token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/ops/token", nil)
		req.Header.Set("X-Admin-Secret", "wrong")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("minted token grants access", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/ops/token", nil)
		req.Header.Set("X-Admin-Secret", "admin-secret")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("mint status = %d, want 200", rec.Code)
		}
		var tok map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &tok); err != nil {
			t.Fatal(err)
		}

		req = httptest.NewRequest(http.MethodGet, "/api/v1/ops/queue", nil)
		req.Header.Set("Authorization", "Bearer "+tok["token"])
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("ops status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
	})
}
