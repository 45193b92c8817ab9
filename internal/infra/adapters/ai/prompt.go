package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"travel-ai-planner/internal/domain/model"
)

const systemPrompt = "You are a travel planning assistant. Respond with a single JSON object " +
	"matching the requested schema. Do not include any prose outside the JSON."

// buildItineraryPrompt renders the generation request into the user
// prompt sent to the provider.
func buildItineraryPrompt(req *model.GenerationRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a day-by-day travel itinerary for %s, from %s to %s (%d days), for %d adults",
		req.Destination,
		req.StartDate.Format("2006-01-02"),
		req.EndDate.Format("2006-01-02"),
		req.TripDays(),
		req.Adults,
	)
	if req.Children > 0 {
		fmt.Fprintf(&b, " and %d children", req.Children)
	}
	b.WriteString(".")
	if req.Budget > 0 {
		fmt.Fprintf(&b, " Total budget: %d %s.", req.Budget, req.Currency)
	}
	if req.TravelStyle != "" {
		fmt.Fprintf(&b, " Travel style: %s.", req.TravelStyle)
	}
	b.WriteString(` Respond with JSON: {"summary": string, "days": [{"day": int, "title": string, ` +
		`"activities": [{"time": string, "name": string, "description": string, "cost": int}]}], ` +
		`"estimated_cost": int, "currency": string}`)
	return b.String()
}

// parseItinerary decodes the provider output, tolerating markdown code
// fences around the JSON body.
func parseItinerary(raw string) (*model.Itinerary, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	var it model.Itinerary
	if err := json.Unmarshal([]byte(s), &it); err != nil {
		return nil, fmt.Errorf("parse itinerary: %w", err)
	}
	if len(it.Days) == 0 {
		return nil, errors.New("parse itinerary: no days in response")
	}
	return &it, nil
}
