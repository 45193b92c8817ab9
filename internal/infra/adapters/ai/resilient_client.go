package ai

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"travel-ai-planner/internal/domain"
	"travel-ai-planner/internal/domain/model"
	"travel-ai-planner/internal/domain/ports/adapter"
	"travel-ai-planner/internal/infra/cache"
	"travel-ai-planner/internal/infra/metrics"
	"travel-ai-planner/internal/infra/resilience"
)

type ResilientConfig struct {
	MaxRetries           int           // extra attempts after the first
	RetryInitialInterval time.Duration // delay before the first retry, doubles each retry
	CallTimeout          time.Duration // hard timeout per attempt
}

// ResilientClient composes the response cache, the circuit breaker and
// bounded exponential retry around one generator. It is the only thing
// the job queue calls: every outcome, including failure, comes back as
// a structured GenerationResult.
type ResilientClient struct {
	gen     adapter.ItineraryGenerator
	breaker *resilience.CircuitBreaker
	cache   *cache.ResponseCache
	cfg     ResilientConfig
	log     *zerolog.Logger
}

func NewResilientClient(
	gen adapter.ItineraryGenerator,
	breaker *resilience.CircuitBreaker,
	respCache *cache.ResponseCache,
	cfg ResilientConfig,
	logger *zerolog.Logger,
) *ResilientClient {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryInitialInterval <= 0 {
		cfg.RetryInitialInterval = time.Second
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 60 * time.Second
	}
	l := logger.With().Str("component", "ResilientClient").Str("provider", gen.Name()).Logger()
	return &ResilientClient{gen: gen, breaker: breaker, cache: respCache, cfg: cfg, log: &l}
}

// Generate runs one generation through cache, breaker and retry. A
// cache hit returns immediately with zero processing time and no
// breaker or generator involvement.
func (c *ResilientClient) Generate(ctx context.Context, req *model.GenerationRequest) *adapter.GenerationResult {
	cacheable := req.Cacheable()
	fp := req.Fingerprint()

	if cacheable {
		if entry, ok := c.cache.Get(fp); ok {
			c.log.Debug().Str("fingerprint", fp).Msg("cache hit")
			return &adapter.GenerationResult{
				Success:        true,
				Itinerary:      entry.Itinerary,
				Usage:          entry.Usage,
				ProcessingTime: 0,
				FromCache:      true,
			}
		}
	}

	start := time.Now()
	var it *model.Itinerary
	var usage adapter.Usage

	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		var innerErr error
		it, usage, innerErr = c.callWithRetry(ctx, req)
		return innerErr
	})
	elapsed := time.Since(start)

	if err != nil {
		metrics.ObserveGeneration(c.gen.Name(), 0, 0, 0, int(elapsed/time.Millisecond), false)
		c.log.Error().Err(err).Dur("elapsed", elapsed).Msg("generation failed")
		return &adapter.GenerationResult{
			Success:        false,
			Err:            err,
			ProcessingTime: elapsed,
		}
	}

	metrics.ObserveGeneration(c.gen.Name(),
		usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens,
		int(elapsed/time.Millisecond), true)

	if cacheable {
		c.cache.Set(fp, &cache.Entry{Itinerary: it, Usage: usage, StoredAt: time.Now()})
	}

	return &adapter.GenerationResult{
		Success:        true,
		Itinerary:      it,
		Usage:          usage,
		ProcessingTime: elapsed,
	}
}

// callWithRetry performs the bounded-retry call: up to MaxRetries extra
// attempts, delays doubling from RetryInitialInterval with no jitter.
// Only structurally retryable errors are retried; anything else aborts
// immediately.
func (c *ResilientClient) callWithRetry(ctx context.Context, req *model.GenerationRequest) (*model.Itinerary, adapter.Usage, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.RetryInitialInterval
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = 5 * time.Minute
	b.MaxElapsedTime = 0

	type outcome struct {
		it    *model.Itinerary
		usage adapter.Usage
	}

	attempt := 0
	out, err := backoff.RetryWithData(func() (outcome, error) {
		if attempt > 0 {
			metrics.IncGeneratorRetry(c.gen.Name())
			c.log.Warn().Int("attempt", attempt).Msg("retrying generator call")
		}
		attempt++

		actx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
		defer cancel()

		it, usage, err := c.gen.Generate(actx, req)
		if err != nil {
			// A timed-out attempt is retryable; a canceled parent is not.
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				err = domain.ErrGeneratorTimeout
			}
			if !domain.IsRetryable(err) {
				return outcome{}, backoff.Permanent(err)
			}
			return outcome{}, err
		}
		return outcome{it: it, usage: usage}, nil
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.cfg.MaxRetries)), ctx))

	if err != nil {
		return nil, adapter.Usage{}, err
	}
	return out.it, out.usage, nil
}

// BreakerStats exposes the breaker snapshot for the ops endpoints.
func (c *ResilientClient) BreakerStats() resilience.BreakerStats { return c.breaker.Stats() }

// CacheStats exposes the response cache snapshot for the ops endpoints.
func (c *ResilientClient) CacheStats() cache.CacheStats { return c.cache.Stats() }
