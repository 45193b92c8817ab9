package ai

import (
	"context"

	"golang.org/x/time/rate"

	"travel-ai-planner/internal/domain/model"
	"travel-ai-planner/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.ItineraryGenerator = (*limitedGenerator)(nil)

type limitedGenerator struct {
	inner   adapter.ItineraryGenerator
	sem     chan struct{}
	limiter *rate.Limiter
}

// NewLimitedGenerator bounds concurrent in-flight calls to the provider
// and smooths the call rate. A zero maxConcurrent or nil limiter
// disables the respective bound.
func NewLimitedGenerator(inner adapter.ItineraryGenerator, maxConcurrent int, limiter *rate.Limiter) adapter.ItineraryGenerator {
	if maxConcurrent <= 0 && limiter == nil {
		return inner
	}
	var sem chan struct{}
	if maxConcurrent > 0 {
		sem = make(chan struct{}, maxConcurrent)
	}
	return &limitedGenerator{inner: inner, sem: sem, limiter: limiter}
}

func (l *limitedGenerator) Name() string { return l.inner.Name() }

func (l *limitedGenerator) Generate(ctx context.Context, req *model.GenerationRequest) (*model.Itinerary, adapter.Usage, error) {
	if l.limiter != nil {
		if err := l.limiter.Wait(ctx); err != nil {
			return nil, adapter.Usage{}, err
		}
	}
	if l.sem != nil {
		select {
		case l.sem <- struct{}{}:
			defer func() { <-l.sem }()
		case <-ctx.Done():
			return nil, adapter.Usage{}, ctx.Err()
		}
	}
	return l.inner.Generate(ctx, req)
}
