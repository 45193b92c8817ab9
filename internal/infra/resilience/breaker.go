package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"travel-ai-planner/internal/domain"
	"travel-ai-planner/internal/infra/metrics"
)

type BreakerState string

const (
	StateClosed   BreakerState = "CLOSED"
	StateOpen     BreakerState = "OPEN"
	StateHalfOpen BreakerState = "HALF_OPEN"
)

// BreakerStats is a point-in-time snapshot for the ops endpoints.
type BreakerStats struct {
	State           BreakerState `json:"state"`
	FailureCount    int          `json:"failure_count"`
	SuccessCount    int          `json:"success_count"`
	TotalRequests   int64        `json:"total_requests"`
	LastFailureTime time.Time    `json:"last_failure_time,omitempty"`
	LastSuccessTime time.Time    `json:"last_success_time,omitempty"`
	NextAttemptTime time.Time    `json:"next_attempt_time,omitempty"`
}

type BreakerConfig struct {
	Name             string
	FailureThreshold int           // consecutive failures before opening
	RecoveryTimeout  time.Duration // how long to stay open
	CallTimeout      time.Duration // per-attempt hard timeout
}

// CircuitBreaker guards one external dependency. One instance exists
// per generator endpoint; callers go through Execute and never touch
// the state directly.
type CircuitBreaker struct {
	cfg BreakerConfig
	log *zerolog.Logger

	mu            sync.Mutex
	state         BreakerState
	failureCount  int
	successCount  int
	totalRequests int64
	lastFailure   time.Time
	lastSuccess   time.Time
	nextAttempt   time.Time
	trialInFlight bool

	now func() time.Time
}

func NewCircuitBreaker(cfg BreakerConfig, logger *zerolog.Logger) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = 30 * time.Second
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 60 * time.Second
	}
	if cfg.Name == "" {
		cfg.Name = "generator"
	}
	l := logger.With().Str("component", "CircuitBreaker").Str("breaker", cfg.Name).Logger()
	cb := &CircuitBreaker{
		cfg:   cfg,
		log:   &l,
		state: StateClosed,
		now:   time.Now,
	}
	metrics.SetBreakerState(cfg.Name, string(StateClosed))
	return cb
}

// Execute runs fn behind the breaker. Every call increments the total
// request counter, including calls rejected while open. Each attempt is
// raced against the configured call timeout; a timeout counts as an
// ordinary failure for state purposes.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := cb.beforeCall(); err != nil {
		return err
	}

	err := cb.callWithTimeout(ctx, fn)
	cb.afterCall(err)
	return err
}

func (cb *CircuitBreaker) beforeCall() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.totalRequests++

	switch cb.state {
	case StateOpen:
		if cb.now().Before(cb.nextAttempt) {
			metrics.IncBreakerShortCircuit(cb.cfg.Name)
			return domain.ErrCircuitOpen
		}
		cb.transition(StateHalfOpen)
		cb.trialInFlight = true
	case StateHalfOpen:
		// Exactly one trial call probes the dependency.
		if cb.trialInFlight {
			metrics.IncBreakerShortCircuit(cb.cfg.Name)
			return domain.ErrCircuitOpen
		}
		cb.trialInFlight = true
	}
	return nil
}

func (cb *CircuitBreaker) callWithTimeout(ctx context.Context, fn func(ctx context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, cb.cfg.CallTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(cctx) }()

	select {
	case err := <-done:
		return err
	case <-cctx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return domain.ErrGeneratorTimeout
	}
}

func (cb *CircuitBreaker) afterCall(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()
	wasTrial := cb.trialInFlight
	cb.trialInFlight = false

	if err != nil {
		cb.failureCount++
		cb.lastFailure = now
		if cb.state == StateHalfOpen && wasTrial {
			cb.nextAttempt = now.Add(cb.cfg.RecoveryTimeout)
			cb.transition(StateOpen)
			return
		}
		if cb.state == StateClosed && cb.failureCount >= cb.cfg.FailureThreshold {
			cb.nextAttempt = now.Add(cb.cfg.RecoveryTimeout)
			cb.transition(StateOpen)
		}
		return
	}

	cb.successCount++
	cb.lastSuccess = now
	cb.failureCount = 0
	if cb.state == StateHalfOpen {
		cb.transition(StateClosed)
	}
}

// transition assumes cb.mu is held.
func (cb *CircuitBreaker) transition(to BreakerState) {
	if cb.state == to {
		return
	}
	from := cb.state
	cb.state = to
	metrics.SetBreakerState(cb.cfg.Name, string(to))
	if to == StateOpen {
		metrics.IncBreakerTrip(cb.cfg.Name)
	}
	cb.log.Warn().
		Str("from", string(from)).
		Str("to", string(to)).
		Int("failure_count", cb.failureCount).
		Msg("circuit breaker state change")
}

// Stats returns a consistent snapshot of the breaker state.
func (cb *CircuitBreaker) Stats() BreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return BreakerStats{
		State:           cb.state,
		FailureCount:    cb.failureCount,
		SuccessCount:    cb.successCount,
		TotalRequests:   cb.totalRequests,
		LastFailureTime: cb.lastFailure,
		LastSuccessTime: cb.lastSuccess,
		NextAttemptTime: cb.nextAttempt,
	}
}

// State returns the current state without the rest of the snapshot.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
