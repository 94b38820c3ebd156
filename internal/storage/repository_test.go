package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"kpiboard/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "archive.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestLatestBuild_Empty(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.LatestBuild(context.Background()); !errors.Is(err, ErrNoBuilds) {
		t.Fatalf("expected ErrNoBuilds, got %v", err)
	}
}

func TestSaveSummaryRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Date(2026, time.October, 14, 9, 30, 0, 0, time.UTC)

	summary := core.Aggregate(
		[]core.Record{
			{core.FieldMonth: "January", core.FieldProductionLoss: 12.6, core.FieldSoldComponents: 5},
			{core.FieldMonth: "October", core.FieldProductionLoss: 4, core.FieldSoldComponents: 1},
		},
		[]core.Record{
			{core.FieldMonth: "October", core.FieldDevelopmentLoss: 3, core.FieldDevelopmentGates: 2},
		},
		now,
	)

	id, err := repo.SaveSummary(ctx, summary)
	if err != nil {
		t.Fatalf("SaveSummary: %v", err)
	}

	got, err := repo.LatestBuild(ctx)
	if err != nil {
		t.Fatalf("LatestBuild: %v", err)
	}
	if got.ID != id {
		t.Fatalf("expected build %d, got %d", id, got.ID)
	}
	if got.Summary.Total != summary.Total || got.Summary.CurrentMonth != summary.CurrentMonth {
		t.Fatalf("totals mismatch: got %+v want %+v", got.Summary, summary)
	}
	if got.Summary.CurrentMonthName != "October" || !got.Summary.GeneratedAt.Equal(now) {
		t.Fatalf("unexpected header fields: %+v", got.Summary)
	}
	if len(got.Summary.Months) != 2 || got.Summary.Months[0].Month != "January" || got.Summary.Months[1].Month != "October" {
		t.Fatalf("unexpected months: %+v", got.Summary.Months)
	}
	if got.Summary.Months[0].ProductionLoss != 13 {
		t.Fatalf("expected rounded production loss 13, got %d", got.Summary.Months[0].ProductionLoss)
	}
}

func TestLatestBuildPicksNewest(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := core.EmptySummary(time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC))
	second := core.EmptySummary(time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC))
	if _, err := repo.SaveSummary(ctx, first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	if _, err := repo.SaveSummary(ctx, second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	got, err := repo.LatestBuild(ctx)
	if err != nil {
		t.Fatalf("LatestBuild: %v", err)
	}
	if got.Summary.CurrentMonthName != "October" || len(got.Summary.Months) != 0 {
		t.Fatalf("expected the October empty build, got %+v", got.Summary)
	}

	n, err := repo.CountBuilds(ctx)
	if err != nil || n != 2 {
		t.Fatalf("expected 2 builds, got %d (err=%v)", n, err)
	}
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	if err := RunMigrations(path); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second run: %v", err)
	}

	v, dirty, err := SchemaVersion(path)
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != 1 || dirty {
		t.Fatalf("expected clean version 1, got %d dirty=%v", v, dirty)
	}
}
