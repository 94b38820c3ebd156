package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Build struct {
	ID                      int64
	GeneratedAt             string
	CurrentMonth            string
	TotalProductionLoss     int64
	TotalSoldComponents     int64
	TotalDevelopmentLoss    int64
	TotalDevelopmentGates   int64
	CurrentProductionLoss   int64
	CurrentSoldComponents   int64
	CurrentDevelopmentLoss  int64
	CurrentDevelopmentGates int64
}

type BuildMonth struct {
	BuildID          int64
	Position         int64
	Month            string
	ProductionLoss   int64
	SoldComponents   int64
	DevelopmentLoss  int64
	DevelopmentGates int64
}

const createBuild = `
INSERT INTO builds (
    generated_at, current_month,
    total_production_loss, total_sold_components, total_development_loss, total_development_gates,
    current_production_loss, current_sold_components, current_development_loss, current_development_gates
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id
`

type CreateBuildParams struct {
	GeneratedAt             string
	CurrentMonth            string
	TotalProductionLoss     int64
	TotalSoldComponents     int64
	TotalDevelopmentLoss    int64
	TotalDevelopmentGates   int64
	CurrentProductionLoss   int64
	CurrentSoldComponents   int64
	CurrentDevelopmentLoss  int64
	CurrentDevelopmentGates int64
}

func (q *Queries) CreateBuild(ctx context.Context, arg CreateBuildParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createBuild,
		arg.GeneratedAt,
		arg.CurrentMonth,
		arg.TotalProductionLoss,
		arg.TotalSoldComponents,
		arg.TotalDevelopmentLoss,
		arg.TotalDevelopmentGates,
		arg.CurrentProductionLoss,
		arg.CurrentSoldComponents,
		arg.CurrentDevelopmentLoss,
		arg.CurrentDevelopmentGates,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const createBuildMonth = `
INSERT INTO build_months (
    build_id, position, month, production_loss, sold_components, development_loss, development_gates
) VALUES (?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateBuildMonth(ctx context.Context, arg BuildMonth) error {
	_, err := q.db.ExecContext(ctx, createBuildMonth,
		arg.BuildID,
		arg.Position,
		arg.Month,
		arg.ProductionLoss,
		arg.SoldComponents,
		arg.DevelopmentLoss,
		arg.DevelopmentGates,
	)
	return err
}

const getLatestBuild = `
SELECT id, generated_at, current_month,
    total_production_loss, total_sold_components, total_development_loss, total_development_gates,
    current_production_loss, current_sold_components, current_development_loss, current_development_gates
FROM builds
ORDER BY id DESC
LIMIT 1
`

func (q *Queries) GetLatestBuild(ctx context.Context) (Build, error) {
	row := q.db.QueryRowContext(ctx, getLatestBuild)
	var i Build
	err := row.Scan(
		&i.ID,
		&i.GeneratedAt,
		&i.CurrentMonth,
		&i.TotalProductionLoss,
		&i.TotalSoldComponents,
		&i.TotalDevelopmentLoss,
		&i.TotalDevelopmentGates,
		&i.CurrentProductionLoss,
		&i.CurrentSoldComponents,
		&i.CurrentDevelopmentLoss,
		&i.CurrentDevelopmentGates,
	)
	return i, err
}

const listBuildMonths = `
SELECT build_id, position, month, production_loss, sold_components, development_loss, development_gates
FROM build_months
WHERE build_id = ?
ORDER BY position
`

func (q *Queries) ListBuildMonths(ctx context.Context, buildID int64) ([]BuildMonth, error) {
	rows, err := q.db.QueryContext(ctx, listBuildMonths, buildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BuildMonth
	for rows.Next() {
		var i BuildMonth
		if err := rows.Scan(
			&i.BuildID,
			&i.Position,
			&i.Month,
			&i.ProductionLoss,
			&i.SoldComponents,
			&i.DevelopmentLoss,
			&i.DevelopmentGates,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countBuilds = `SELECT COUNT(*) FROM builds`

func (q *Queries) CountBuilds(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countBuilds)
	var count int64
	err := row.Scan(&count)
	return count, err
}
