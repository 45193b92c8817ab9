package adapter

import (
	"context"
	"time"

	"travel-ai-planner/internal/domain/model"
)

// Usage for a single generator call, as reported by the provider.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// GenerationResult is the structured outcome of one generation. The
// resilient client always hands one of these to the job queue; errors
// never propagate past that boundary.
type GenerationResult struct {
	Success        bool
	Itinerary      *model.Itinerary
	Err            error
	Usage          Usage
	ProcessingTime time.Duration // 0 on a cache hit
	FromCache      bool
}

// ItineraryGenerator is the port for the external AI generator. Raw
// provider adapters implement it; the resilient client wraps one and
// implements it again for the queue.
type ItineraryGenerator interface {
	// Name identifies the provider for logs and metrics.
	Name() string

	// Generate produces an itinerary for the request. Errors returned by
	// raw adapters carry the typed taxonomy from the domain package so
	// that retryability is structural.
	Generate(ctx context.Context, req *model.GenerationRequest) (*model.Itinerary, Usage, error)
}
