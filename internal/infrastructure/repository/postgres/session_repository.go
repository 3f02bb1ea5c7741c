package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/unisportai/unisport-sync/internal/domain/session"
	qb "github.com/unisportai/unisport-sync/internal/platform/querybuilder"
)

type SessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

type sessionInsertModel struct {
	CourseNumber string     `db:"course_number"`
	StartTime    time.Time  `db:"start_time"`
	EndTime      *time.Time `db:"end_time"`
	LocationName *string    `db:"location_name"`
	Canceled     bool       `db:"canceled"`
}

type sessionCanceledRow struct {
	CourseNumber string    `db:"course_number"`
	StartTime    time.Time `db:"start_time"`
	Canceled     bool      `db:"canceled"`
}

func (r *SessionRepository) UpsertBatch(ctx context.Context, sessions []session.Session) error {
	if len(sessions) == 0 {
		return nil
	}

	for _, item := range sessions {
		model := sessionInsertModel{
			CourseNumber: item.CourseNumber,
			StartTime:    item.StartTime,
			EndTime:      item.EndTime,
			LocationName: item.LocationName,
			Canceled:     item.Canceled,
		}
		query, args, err := qb.InsertModel("course_sessions", model, `ON CONFLICT (course_number, start_time)
DO UPDATE SET
    end_time = EXCLUDED.end_time,
    location_name = EXCLUDED.location_name,
    canceled = EXCLUDED.canceled,
    updated_at = NOW()`)
		if err != nil {
			return fmt.Errorf("build upsert session query: %w", err)
		}
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert session %s: %w", item.Key(), err)
		}
	}
	return nil
}

func (r *SessionRepository) ListCanceledByCourses(ctx context.Context, courseNumbers []string) (map[string]bool, error) {
	out := make(map[string]bool)
	if len(courseNumbers) == 0 {
		return out, nil
	}

	values := make([]any, 0, len(courseNumbers))
	for _, number := range courseNumbers {
		values = append(values, number)
	}

	query, args, err := qb.Select("course_number", "start_time", "canceled").
		From("course_sessions").
		Where(qb.In("course_number", values)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list canceled flags query: %w", err)
	}

	var rows []sessionCanceledRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list canceled flags: %w", err)
	}

	for _, row := range rows {
		out[session.Key(row.CourseNumber, row.StartTime)] = row.Canceled
	}
	return out, nil
}
