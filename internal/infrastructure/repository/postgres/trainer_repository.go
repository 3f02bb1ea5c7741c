package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/unisportai/unisport-sync/internal/domain/trainer"
	qb "github.com/unisportai/unisport-sync/internal/platform/querybuilder"
)

type TrainerRepository struct {
	db *sqlx.DB
}

func NewTrainerRepository(db *sqlx.DB) *TrainerRepository {
	return &TrainerRepository{db: db}
}

type trainerInsertModel struct {
	Name   string `db:"name"`
	Rating int    `db:"rating"`
}

type courseTrainerInsertModel struct {
	CourseNumber string `db:"course_number"`
	TrainerName  string `db:"trainer_name"`
}

// UpsertBatch creates missing trainers. The rating column is maintained
// by users, so an existing row is left untouched.
func (r *TrainerRepository) UpsertBatch(ctx context.Context, trainers []trainer.Trainer) error {
	if len(trainers) == 0 {
		return nil
	}

	models := make([]trainerInsertModel, 0, len(trainers))
	for _, item := range trainers {
		models = append(models, trainerInsertModel{Name: item.Name, Rating: item.Rating})
	}

	query, args, err := qb.InsertModels("trainers", models, "ON CONFLICT (name) DO NOTHING")
	if err != nil {
		return fmt.Errorf("build upsert trainers query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert trainers: %w", err)
	}
	return nil
}

// ReplaceCourseLinks swaps the course's trainer links in one transaction
// so readers never observe a half-replaced set.
func (r *TrainerRepository) ReplaceCourseLinks(ctx context.Context, courseNumber string, trainerNames []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx replace course trainers: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	deleteQuery, deleteArgs, err := qb.DeleteFrom("course_trainers").
		Where(qb.Eq("course_number", courseNumber)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build clear course trainers query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		return fmt.Errorf("clear course trainers: %w", err)
	}

	if len(trainerNames) > 0 {
		models := make([]courseTrainerInsertModel, 0, len(trainerNames))
		for _, name := range trainerNames {
			models = append(models, courseTrainerInsertModel{
				CourseNumber: courseNumber,
				TrainerName:  name,
			})
		}
		insertQuery, insertArgs, err := qb.InsertModels("course_trainers", models, "")
		if err != nil {
			return fmt.Errorf("build insert course trainers query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
			return fmt.Errorf("insert course trainers: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace course trainers: %w", err)
	}
	return nil
}
