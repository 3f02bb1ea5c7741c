package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/unisportai/unisport-sync/internal/domain/course"
	qb "github.com/unisportai/unisport-sync/internal/platform/querybuilder"
)

type CourseRepository struct {
	db *sqlx.DB
}

func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

type courseInsertModel struct {
	CourseNumber  string  `db:"course_number"`
	OfferLink     string  `db:"offer_link"`
	Details       *string `db:"details"`
	ScheduleHref  *string `db:"schedule_href"`
	Price         *string `db:"price"`
	BookingStatus *string `db:"booking_status"`
}

func (r *CourseRepository) UpsertBatch(ctx context.Context, courses []course.Course) error {
	if len(courses) == 0 {
		return nil
	}

	for _, item := range courses {
		model := courseInsertModel{
			CourseNumber:  item.CourseNumber,
			OfferLink:     item.OfferLink,
			Details:       item.Details,
			ScheduleHref:  item.ScheduleHref,
			Price:         item.Price,
			BookingStatus: item.BookingStatus,
		}
		query, args, err := qb.InsertModel("courses", model, `ON CONFLICT (course_number)
DO UPDATE SET
    offer_link = EXCLUDED.offer_link,
    details = EXCLUDED.details,
    schedule_href = EXCLUDED.schedule_href,
    price = EXCLUDED.price,
    booking_status = EXCLUDED.booking_status,
    updated_at = NOW()`)
		if err != nil {
			return fmt.Errorf("build upsert course query: %w", err)
		}
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert course %q: %w", item.CourseNumber, err)
		}
	}
	return nil
}
