package web

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"travel-ai-planner/internal/infra/cache"
	"travel-ai-planner/internal/infra/logging"
	"travel-ai-planner/internal/infra/resilience"
	"travel-ai-planner/internal/usecase"
)

// PipelineStats is the read-only monitoring surface of the generation
// pipeline.
type PipelineStats interface {
	BreakerStats() resilience.BreakerStats
	CacheStats() cache.CacheStats
}

// QueueInfo exposes what the health endpoint needs from the job queue.
type QueueInfo interface {
	Depth() int
}

// SubmissionLimiter throttles plan submissions per user. Allow returns
// domain.ErrRateLimited when the caller's budget is spent.
type SubmissionLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) error
}

type Server struct {
	planUC       usecase.PlanUseCase
	stats        PipelineStats
	queue        QueueInfo
	limiter      SubmissionLimiter // nil disables submission throttling
	limitPerHour int
	auth         *AuthManager
	adminSecret  string
	log          *zerolog.Logger
}

func NewServer(
	planUC usecase.PlanUseCase,
	stats PipelineStats,
	queue QueueInfo,
	limiter SubmissionLimiter,
	limitPerHour int,
	auth *AuthManager,
	adminSecret string,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		planUC:       planUC,
		stats:        stats,
		queue:        queue,
		limiter:      limiter,
		limitPerHour: limitPerHour,
		auth:         auth,
		adminSecret:  adminSecret,
		log:          &l,
	}
}

// Router builds the full route tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(traceContext)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/plans", s.handleSubmit)
		r.Get("/jobs/{jobID}", s.handlePollStatus)
		r.Get("/jobs/{jobID}/plan", s.handleGetPlan)

		r.Post("/ops/token", s.handleMintToken)
		r.Route("/ops", func(r chi.Router) {
			r.Use(s.requireOps)
			r.Get("/breaker", s.handleBreakerStats)
			r.Get("/cache", s.handleCacheStats)
			r.Get("/queue", s.handleQueueStats)
		})
	})

	return r
}

// traceContext lifts chi's request ID into the logging context so every
// downstream log line carries the trace_id.
func traceContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			r = r.WithContext(logging.WithTraceID(r.Context(), reqID))
		}
		next.ServeHTTP(w, r)
	})
}

// requireOps guards the monitoring endpoints with a short-lived JWT.
func (s *Server) requireOps(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.auth == nil {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleMintToken exchanges the configured admin secret for a session
// token usable against the /ops endpoints.
func (s *Server) handleMintToken(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil || s.adminSecret == "" {
		s.log.Error().Msg("ops admin secret is not configured")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	secret := r.Header.Get("X-Admin-Secret")
	if subtle.ConstantTimeCompare([]byte(secret), []byte(s.adminSecret)) != 1 {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	tok, err := s.auth.Mint(w)
	if err != nil {
		http.Error(w, "Failed to mint token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": tok})
}
