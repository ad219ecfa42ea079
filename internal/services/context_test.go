package services_test

import (
	"context"
	"testing"

	"animehub/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithCycle(ctx, "ingest")
	ctx = services.WithStage(ctx, "fetching")

	if rid, ok := services.RunIDFromContext(ctx); !ok || rid != "run-123" {
		t.Fatalf("unexpected run id: %v %v", rid, ok)
	}
	if cycle, ok := services.CycleFromContext(ctx); !ok || cycle != "ingest" {
		t.Fatalf("unexpected cycle: %v %v", cycle, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "fetching" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	ctx = services.WithRunID(ctx, "")
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
}
