package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"travel-ai-planner/internal/domain/ports/repository"
)

// StaleJobWatchdog periodically fails plan rows stuck in processing.
// The in-memory job table is not persisted: if the process restarts
// mid-generation the row would otherwise stay "processing" forever
// while the progress estimator keeps reporting a time-based guess.
type StaleJobWatchdog struct {
	interval   time.Duration
	staleAfter time.Duration
	plans      repository.PlanRepository
	log        *zerolog.Logger
}

func NewStaleJobWatchdog(interval, staleAfter time.Duration, plans repository.PlanRepository, logger *zerolog.Logger) *StaleJobWatchdog {
	wdLog := logger.With().Str("component", "StaleJobWatchdog").Logger()
	return &StaleJobWatchdog{
		interval:   interval,
		staleAfter: staleAfter,
		plans:      plans,
		log:        &wdLog,
	}
}

func (w *StaleJobWatchdog) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Dur("stale_after", w.staleAfter).Msg("Starting stale job watchdog")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping stale job watchdog")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.plans.FailStaleProcessing(ctx, w.staleAfter)
			if err != nil {
				w.log.Error().Err(err).Msg("watchdog sweep error")
			}
			if n > 0 {
				w.log.Warn().Int("count", n).Msg("stale processing plans failed")
			}
		}
	}
}
