package model

import (
	"math"
	"time"
)

// DefaultEstimationWindow is how long a generation is assumed to take
// when estimating progress from the persisted plan row.
const DefaultEstimationWindow = 5 * time.Minute

// EstimateProgress derives a displayed percentage from timestamps alone,
// independent of the in-memory job table, so a status query stays
// answerable after the job table has been cleared or the process
// restarted.
//
// While processing it never reports 100: completion is only claimed once
// the persisted row says so. Past the estimation window it caps at 95.
func EstimateProgress(createdAt time.Time, window time.Duration, status PlanStatus, now time.Time) int {
	switch status {
	case PlanStatusCompleted:
		return 100
	case PlanStatusFailed:
		return 0
	}
	if window <= 0 {
		window = DefaultEstimationWindow
	}
	elapsed := now.Sub(createdAt)
	if elapsed >= window {
		return 95
	}
	pct := int(math.Round(float64(elapsed) / float64(window) * 100))
	if pct < 10 {
		return 10
	}
	if pct > 95 {
		return 95
	}
	return pct
}
