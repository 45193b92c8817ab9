package model

// Itinerary is the generated plan content, parsed from the generator's
// JSON output.
type Itinerary struct {
	Summary       string         `json:"summary"`
	Days          []ItineraryDay `json:"days"`
	EstimatedCost int64          `json:"estimated_cost,omitempty"`
	Currency      string         `json:"currency,omitempty"`
}

type ItineraryDay struct {
	Day        int        `json:"day"` // 1-based
	Title      string     `json:"title,omitempty"`
	Activities []Activity `json:"activities"`
}

type Activity struct {
	Time        string `json:"time,omitempty"` // e.g. "morning", "14:00"
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Cost        int64  `json:"cost,omitempty"`
}
