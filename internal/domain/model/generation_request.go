package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"travel-ai-planner/internal/domain"
)

// Cacheability thresholds. Highly idiosyncratic low-volume requests are
// not worth caching; their reuse probability is near zero.
const (
	MinCacheableBudget   = 100
	MaxCacheableAdults   = 10
	MaxCacheableChildren = 8
	MinCacheableTripDays = 2
)

// GenerationRequest holds the normalized parameters of one itinerary
// generation. Immutable once constructed for a given job.
type GenerationRequest struct {
	Destination string    `json:"destination"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Adults      int       `json:"adults"`
	Children    int       `json:"children"`
	Budget      int64     `json:"budget,omitempty"` // 0 means unset
	Currency    string    `json:"currency,omitempty"`
	TravelStyle string    `json:"travel_style,omitempty"`
}

// Normalize trims and lowercases free-form fields and truncates dates to
// whole days so that equivalent requests fingerprint identically.
func (r GenerationRequest) Normalize() GenerationRequest {
	r.Destination = strings.ToLower(strings.TrimSpace(r.Destination))
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	r.TravelStyle = strings.ToLower(strings.TrimSpace(r.TravelStyle))
	r.StartDate = r.StartDate.UTC().Truncate(24 * time.Hour)
	r.EndDate = r.EndDate.UTC().Truncate(24 * time.Hour)
	return r
}

// Fingerprint returns a deterministic hash of the normalized fields,
// used as the response cache key.
func (r GenerationRequest) Fingerprint() string {
	n := r.Normalize()
	key := fmt.Sprintf("%s|%s|%s|%d|%d|%d|%s|%s",
		n.Destination,
		n.StartDate.Format("2006-01-02"),
		n.EndDate.Format("2006-01-02"),
		n.Adults, n.Children, n.Budget, n.Currency, n.TravelStyle,
	)
	return fmt.Sprintf("%016x", xxhash.Sum64String(key))
}

// TripDays is the inclusive length of the trip in days.
func (r GenerationRequest) TripDays() int {
	if r.EndDate.Before(r.StartDate) {
		return 0
	}
	return int(r.EndDate.Sub(r.StartDate)/(24*time.Hour)) + 1
}

// Cacheable reports whether a successful result for this request should
// be stored and reused.
func (r GenerationRequest) Cacheable() bool {
	if r.Budget != 0 && r.Budget < MinCacheableBudget {
		return false
	}
	if r.Adults > MaxCacheableAdults {
		return false
	}
	if r.Children > MaxCacheableChildren {
		return false
	}
	return r.TripDays() >= MinCacheableTripDays
}

// Validate rejects malformed requests before they reach the queue.
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Destination) == "" {
		return &domain.ValidationError{Field: "destination", Reason: "must not be empty"}
	}
	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		return &domain.ValidationError{Field: "dates", Reason: "start and end dates are required"}
	}
	if r.EndDate.Before(r.StartDate) {
		return &domain.ValidationError{Field: "dates", Reason: "end date before start date"}
	}
	if r.Adults < 1 {
		return &domain.ValidationError{Field: "adults", Reason: "at least one adult required"}
	}
	if r.Children < 0 {
		return &domain.ValidationError{Field: "children", Reason: "must not be negative"}
	}
	if r.Budget < 0 {
		return &domain.ValidationError{Field: "budget", Reason: "must not be negative"}
	}
	if r.Budget > 0 && strings.TrimSpace(r.Currency) == "" {
		return &domain.ValidationError{Field: "currency", Reason: "required when budget is set"}
	}
	return nil
}
