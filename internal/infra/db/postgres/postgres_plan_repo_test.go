//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"travel-ai-planner/internal/domain"
	"travel-ai-planner/internal/domain/model"
)

func seededPlan(id, jobID string) *model.TravelPlan {
	return &model.TravelPlan{
		ID:     id,
		JobID:  jobID,
		UserID: "user-1",
		Request: model.GenerationRequest{
			Destination: "lisbon",
			StartDate:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			EndDate:     time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC),
			Adults:      2,
			Children:    1,
			Budget:      2000,
			Currency:    "EUR",
			TravelStyle: "relaxed",
		},
		Status: model.PlanStatusDraft,
	}
}

func TestPlanRepo_CreateAndFetch(t *testing.T) {
	cleanup(t)
	repo := NewPlanRepo(testPool)
	ctx := context.Background()

	if err := repo.Create(ctx, seededPlan("p1", "j1")); err != nil {
		t.Fatalf("create: %v", err)
	}

	t.Run("duplicate id is rejected", func(t *testing.T) {
		err := repo.Create(ctx, seededPlan("p1", "j2"))
		if !errors.Is(err, domain.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("fetch request round-trips parameters", func(t *testing.T) {
		req, err := repo.FetchRequest(ctx, "p1")
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if req.Destination != "lisbon" || req.Adults != 2 || req.Budget != 2000 {
			t.Errorf("request = %+v", req)
		}
	})

	t.Run("missing plan returns ErrNotFound", func(t *testing.T) {
		if _, err := repo.FetchRequest(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestPlanRepo_ItineraryLifecycle(t *testing.T) {
	cleanup(t)
	repo := NewPlanRepo(testPool)
	ctx := context.Background()

	if err := repo.Create(ctx, seededPlan("p1", "j1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.UpdateStatus(ctx, "p1", model.PlanStatusProcessing); err != nil {
		t.Fatalf("update status: %v", err)
	}

	it := &model.Itinerary{
		Summary: "five days in lisbon",
		Days: []model.ItineraryDay{
			{Day: 1, Activities: []model.Activity{{Name: "alfama walk"}}},
		},
	}
	if err := repo.SaveItinerary(ctx, "p1", it); err != nil {
		t.Fatalf("save itinerary: %v", err)
	}
	if err := repo.UpdateStatus(ctx, "p1", model.PlanStatusCompleted); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	plan, err := repo.FindByJobID(ctx, "j1")
	if err != nil {
		t.Fatalf("find by job: %v", err)
	}
	if plan.Status != model.PlanStatusCompleted {
		t.Errorf("status = %s, want completed", plan.Status)
	}
	if plan.Itinerary == nil || plan.Itinerary.Summary != "five days in lisbon" {
		t.Errorf("itinerary = %+v", plan.Itinerary)
	}
}

func TestPlanRepo_RecordFailure(t *testing.T) {
	cleanup(t)
	repo := NewPlanRepo(testPool)
	ctx := context.Background()

	if err := repo.Create(ctx, seededPlan("p1", "j1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.RecordFailure(ctx, "p1", "plan generation timed out"); err != nil {
		t.Fatalf("record failure: %v", err)
	}

	plan, err := repo.FindByJobID(ctx, "j1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if plan.Status != model.PlanStatusFailed || plan.ErrorMessage != "plan generation timed out" {
		t.Errorf("plan = %s / %q", plan.Status, plan.ErrorMessage)
	}

	if err := repo.RecordFailure(ctx, "missing", "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPlanRepo_FailStaleProcessing(t *testing.T) {
	cleanup(t)
	repo := NewPlanRepo(testPool)
	ctx := context.Background()

	if err := repo.Create(ctx, seededPlan("stale", "j-stale")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, seededPlan("fresh", "j-fresh")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.UpdateStatus(ctx, "stale", model.PlanStatusProcessing); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpdateStatus(ctx, "fresh", model.PlanStatusProcessing); err != nil {
		t.Fatal(err)
	}

	// Age the stale row past the cutoff.
	if _, err := testPool.Exec(ctx,
		`UPDATE travel_plans SET updated_at = now() - interval '2 hours' WHERE id = 'stale'`); err != nil {
		t.Fatal(err)
	}

	n, err := repo.FailStaleProcessing(ctx, time.Hour)
	if err != nil {
		t.Fatalf("fail stale: %v", err)
	}
	if n != 1 {
		t.Errorf("touched %d rows, want 1", n)
	}

	stale, _ := repo.FindByJobID(ctx, "j-stale")
	fresh, _ := repo.FindByJobID(ctx, "j-fresh")
	if stale.Status != model.PlanStatusFailed {
		t.Errorf("stale status = %s, want failed", stale.Status)
	}
	if fresh.Status != model.PlanStatusProcessing {
		t.Errorf("fresh status = %s, want processing untouched", fresh.Status)
	}
}
