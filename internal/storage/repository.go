package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"kpiboard/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNoBuilds is returned by LatestBuild on an empty archive.
var ErrNoBuilds = errors.New("no builds archived")

// ArchivedBuild is one stored summary.
type ArchivedBuild struct {
	ID      int64
	Summary core.Summary
}

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveSummary stores the summary and its buckets in one transaction and
// returns the new build id.
func (r *SQLiteRepository) SaveSummary(ctx context.Context, s core.Summary) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	id, err := q.CreateBuild(ctx, CreateBuildParams{
		GeneratedAt:             s.GeneratedAt.UTC().Format(time.RFC3339),
		CurrentMonth:            s.CurrentMonthName,
		TotalProductionLoss:     s.Total.ProductionLoss,
		TotalSoldComponents:     s.Total.SoldComponents,
		TotalDevelopmentLoss:    s.Total.DevelopmentLoss,
		TotalDevelopmentGates:   s.Total.DevelopmentGates,
		CurrentProductionLoss:   s.CurrentMonth.ProductionLoss,
		CurrentSoldComponents:   s.CurrentMonth.SoldComponents,
		CurrentDevelopmentLoss:  s.CurrentMonth.DevelopmentLoss,
		CurrentDevelopmentGates: s.CurrentMonth.DevelopmentGates,
	})
	if err != nil {
		return 0, fmt.Errorf("create build: %w", err)
	}

	for i, b := range s.Months {
		if err := q.CreateBuildMonth(ctx, BuildMonth{
			BuildID:          id,
			Position:         int64(i),
			Month:            b.Month,
			ProductionLoss:   b.ProductionLoss,
			SoldComponents:   b.SoldComponents,
			DevelopmentLoss:  b.DevelopmentLoss,
			DevelopmentGates: b.DevelopmentGates,
		}); err != nil {
			return 0, fmt.Errorf("create build month %s: %w", b.Month, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit build: %w", err)
	}

	slog.InfoContext(ctx, "Build archived to SQLite",
		"build_id", id,
		"months", len(s.Months),
		"generated_at", s.LastUpdated())

	return id, nil
}

// LatestBuild loads the most recently archived summary.
func (r *SQLiteRepository) LatestBuild(ctx context.Context) (ArchivedBuild, error) {
	b, err := r.queries.GetLatestBuild(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return ArchivedBuild{}, ErrNoBuilds
	}
	if err != nil {
		return ArchivedBuild{}, fmt.Errorf("get latest build: %w", err)
	}

	generatedAt, err := time.Parse(time.RFC3339, b.GeneratedAt)
	if err != nil {
		return ArchivedBuild{}, fmt.Errorf("parse generated_at %q: %w", b.GeneratedAt, err)
	}

	rows, err := r.queries.ListBuildMonths(ctx, b.ID)
	if err != nil {
		return ArchivedBuild{}, fmt.Errorf("list build months: %w", err)
	}

	months := make([]core.MonthlyBucket, 0, len(rows))
	for _, m := range rows {
		months = append(months, core.MonthlyBucket{
			Month:            m.Month,
			ProductionLoss:   m.ProductionLoss,
			SoldComponents:   m.SoldComponents,
			DevelopmentLoss:  m.DevelopmentLoss,
			DevelopmentGates: m.DevelopmentGates,
			LastUpdated:      generatedAt,
		})
	}

	return ArchivedBuild{
		ID: b.ID,
		Summary: core.Summary{
			Months: months,
			Total: core.Totals{
				ProductionLoss:   b.TotalProductionLoss,
				SoldComponents:   b.TotalSoldComponents,
				DevelopmentLoss:  b.TotalDevelopmentLoss,
				DevelopmentGates: b.TotalDevelopmentGates,
			},
			CurrentMonth: core.Totals{
				ProductionLoss:   b.CurrentProductionLoss,
				SoldComponents:   b.CurrentSoldComponents,
				DevelopmentLoss:  b.CurrentDevelopmentLoss,
				DevelopmentGates: b.CurrentDevelopmentGates,
			},
			CurrentMonthName: b.CurrentMonth,
			GeneratedAt:      generatedAt,
		},
	}, nil
}

// CountBuilds returns the number of archived builds.
func (r *SQLiteRepository) CountBuilds(ctx context.Context) (int64, error) {
	n, err := r.queries.CountBuilds(ctx)
	if err != nil {
		return 0, fmt.Errorf("count builds: %w", err)
	}
	return n, nil
}
