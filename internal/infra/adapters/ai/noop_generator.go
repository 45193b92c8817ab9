package ai

import (
	"context"
	"fmt"
	"time"

	"travel-ai-planner/internal/domain/model"
	"travel-ai-planner/internal/domain/ports/adapter"
)

var _ adapter.ItineraryGenerator = (*NoopGenerator)(nil)

// NoopGenerator returns a canned itinerary for local/dev runs so the
// pipeline can be exercised without a real provider key.
type NoopGenerator struct {
	Delay time.Duration
}

func NewNoopGenerator() *NoopGenerator {
	return &NoopGenerator{Delay: 100 * time.Millisecond}
}

func (g *NoopGenerator) Name() string { return "noop" }

func (g *NoopGenerator) Generate(ctx context.Context, req *model.GenerationRequest) (*model.Itinerary, adapter.Usage, error) {
	select {
	case <-time.After(g.Delay):
	case <-ctx.Done():
		return nil, adapter.Usage{}, ctx.Err()
	}

	days := make([]model.ItineraryDay, 0, req.TripDays())
	for d := 1; d <= req.TripDays(); d++ {
		days = append(days, model.ItineraryDay{
			Day:   d,
			Title: fmt.Sprintf("Day %d in %s", d, req.Destination),
			Activities: []model.Activity{
				{Time: "morning", Name: "City walk", Description: "Placeholder activity"},
				{Time: "evening", Name: "Dinner", Description: "Placeholder activity"},
			},
		})
	}
	return &model.Itinerary{
		Summary:  fmt.Sprintf("A %d-day trip to %s", req.TripDays(), req.Destination),
		Days:     days,
		Currency: req.Currency,
	}, adapter.Usage{}, nil
}
