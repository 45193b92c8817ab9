package model

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func parisRequest() GenerationRequest {
	return GenerationRequest{
		Destination: "Paris",
		StartDate:   date(2026, 6, 1),
		EndDate:     date(2026, 6, 5),
		Adults:      2,
		Children:    0,
		Budget:      1500,
		Currency:    "EUR",
	}
}

func TestFingerprint(t *testing.T) {
	t.Run("equivalent requests share a fingerprint", func(t *testing.T) {
		a := parisRequest()
		b := parisRequest()
		b.Destination = "  PARIS " // normalization should erase the difference
		b.Currency = "eur"
		if a.Fingerprint() != b.Fingerprint() {
			t.Errorf("expected equal fingerprints, got %s vs %s", a.Fingerprint(), b.Fingerprint())
		}
	})

	t.Run("different parameters change the fingerprint", func(t *testing.T) {
		a := parisRequest()
		b := parisRequest()
		b.Adults = 3
		if a.Fingerprint() == b.Fingerprint() {
			t.Error("expected different fingerprints for different adult counts")
		}
		c := parisRequest()
		c.Destination = "Rome"
		if a.Fingerprint() == c.Fingerprint() {
			t.Error("expected different fingerprints for different destinations")
		}
	})
}

func TestTripDays(t *testing.T) {
	req := parisRequest()
	if got := req.TripDays(); got != 5 {
		t.Errorf("expected 5 trip days, got %d", got)
	}
	req.EndDate = req.StartDate
	if got := req.TripDays(); got != 1 {
		t.Errorf("expected 1 trip day for same-day trip, got %d", got)
	}
	req.EndDate = req.StartDate.Add(-24 * time.Hour)
	if got := req.TripDays(); got != 0 {
		t.Errorf("expected 0 trip days for inverted range, got %d", got)
	}
}

func TestCacheable(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*GenerationRequest)
		want   bool
	}{
		{"typical request", func(r *GenerationRequest) {}, true},
		{"budget unset", func(r *GenerationRequest) { r.Budget = 0 }, true},
		{"budget below threshold", func(r *GenerationRequest) { r.Budget = 99 }, false},
		{"budget at threshold", func(r *GenerationRequest) { r.Budget = 100 }, true},
		{"too many adults", func(r *GenerationRequest) { r.Adults = 11 }, false},
		{"max adults", func(r *GenerationRequest) { r.Adults = 10 }, true},
		{"too many children", func(r *GenerationRequest) { r.Children = 9 }, false},
		{"single-day trip", func(r *GenerationRequest) { r.EndDate = r.StartDate }, false},
		{"two-day trip", func(r *GenerationRequest) { r.EndDate = r.StartDate.Add(24 * time.Hour) }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := parisRequest()
			tc.mutate(&req)
			if got := req.Cacheable(); got != tc.want {
				t.Errorf("Cacheable() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid request passes", func(t *testing.T) {
		req := parisRequest()
		if err := req.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	cases := []struct {
		name   string
		mutate func(*GenerationRequest)
	}{
		{"empty destination", func(r *GenerationRequest) { r.Destination = "  " }},
		{"end before start", func(r *GenerationRequest) { r.EndDate = r.StartDate.Add(-48 * time.Hour) }},
		{"zero adults", func(r *GenerationRequest) { r.Adults = 0 }},
		{"negative children", func(r *GenerationRequest) { r.Children = -1 }},
		{"negative budget", func(r *GenerationRequest) { r.Budget = -5 }},
		{"budget without currency", func(r *GenerationRequest) { r.Currency = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := parisRequest()
			tc.mutate(&req)
			if err := req.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestJobStatusTransitions(t *testing.T) {
	allowed := map[JobStatus][]JobStatus{
		JobStatusPending:    {JobStatusProcessing, JobStatusFailed},
		JobStatusProcessing: {JobStatusCompleted, JobStatusFailed},
		JobStatusCompleted:  {},
		JobStatusFailed:     {},
	}
	all := []JobStatus{JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed}

	for from, oks := range allowed {
		okSet := make(map[JobStatus]bool)
		for _, s := range oks {
			okSet[s] = true
		}
		for _, to := range all {
			if got := from.CanTransition(to); got != okSet[to] {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", from, to, got, okSet[to])
			}
		}
	}
}

func TestEstimateProgress(t *testing.T) {
	t0 := time.Now()
	window := 5 * time.Minute

	t.Run("completed is always 100", func(t *testing.T) {
		if got := EstimateProgress(t0, window, PlanStatusCompleted, t0.Add(time.Second)); got != 100 {
			t.Errorf("got %d, want 100", got)
		}
	})

	t.Run("failed is always 0", func(t *testing.T) {
		if got := EstimateProgress(t0, window, PlanStatusFailed, t0.Add(10*time.Minute)); got != 0 {
			t.Errorf("got %d, want 0", got)
		}
	})

	t.Run("half elapsed reports about half", func(t *testing.T) {
		got := EstimateProgress(t0, window, PlanStatusProcessing, t0.Add(150*time.Second))
		if got < 48 || got > 52 {
			t.Errorf("got %d, want ~50", got)
		}
	})

	t.Run("fractional percentages round to nearest", func(t *testing.T) {
		// 155s of 300s is 51.67%.
		if got := EstimateProgress(t0, window, PlanStatusProcessing, t0.Add(155*time.Second)); got != 52 {
			t.Errorf("got %d, want 52", got)
		}
		// 154s of 300s is 51.33%.
		if got := EstimateProgress(t0, window, PlanStatusProcessing, t0.Add(154*time.Second)); got != 51 {
			t.Errorf("got %d, want 51", got)
		}
	})

	t.Run("past the window caps at 95", func(t *testing.T) {
		if got := EstimateProgress(t0, window, PlanStatusProcessing, t0.Add(400*time.Second)); got != 95 {
			t.Errorf("got %d, want 95", got)
		}
	})

	t.Run("never reports below 10 while processing", func(t *testing.T) {
		if got := EstimateProgress(t0, window, PlanStatusProcessing, t0.Add(time.Second)); got != 10 {
			t.Errorf("got %d, want 10", got)
		}
	})
}
