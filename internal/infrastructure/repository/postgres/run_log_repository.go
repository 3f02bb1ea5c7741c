package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/unisportai/unisport-sync/internal/domain/etlrun"
	qb "github.com/unisportai/unisport-sync/internal/platform/querybuilder"
)

type RunLogRepository struct {
	db *sqlx.DB
}

func NewRunLogRepository(db *sqlx.DB) *RunLogRepository {
	return &RunLogRepository{db: db}
}

type runInsertModel struct {
	Component  string    `db:"component"`
	RanAt      time.Time `db:"ran_at"`
	ReportJSON string    `db:"report"`
}

func (r *RunLogRepository) Insert(ctx context.Context, run etlrun.Run) error {
	model := runInsertModel{
		Component:  run.Component,
		RanAt:      run.RanAt,
		ReportJSON: run.ReportJSON,
	}
	query, args, err := qb.InsertModel("etl_runs", model, "")
	if err != nil {
		return fmt.Errorf("build insert run query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}
