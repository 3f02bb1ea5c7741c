package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/unisportai/unisport-sync/internal/domain/location"
	qb "github.com/unisportai/unisport-sync/internal/platform/querybuilder"
)

type LocationRepository struct {
	db *sqlx.DB
}

func NewLocationRepository(db *sqlx.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

type locationInsertModel struct {
	Name       string         `db:"name"`
	Latitude   *float64       `db:"latitude"`
	Longitude  *float64       `db:"longitude"`
	DetailLink *string        `db:"detail_link"`
	InternalID *string        `db:"internal_id"`
	Sports     pq.StringArray `db:"sports"`
}

func (r *LocationRepository) UpsertBatch(ctx context.Context, locations []location.Location) error {
	if len(locations) == 0 {
		return nil
	}

	for _, item := range locations {
		model := locationInsertModel{
			Name:       item.Name,
			Latitude:   item.Latitude,
			Longitude:  item.Longitude,
			DetailLink: item.DetailLink,
			InternalID: item.InternalID,
			Sports:     pq.StringArray(item.Sports),
		}
		query, args, err := qb.InsertModel("locations", model, `ON CONFLICT (name)
DO UPDATE SET
    latitude = EXCLUDED.latitude,
    longitude = EXCLUDED.longitude,
    detail_link = EXCLUDED.detail_link,
    internal_id = EXCLUDED.internal_id,
    sports = EXCLUDED.sports,
    updated_at = NOW()`)
		if err != nil {
			return fmt.Errorf("build upsert location query: %w", err)
		}
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert location %q: %w", item.Name, err)
		}
	}
	return nil
}

func (r *LocationRepository) ListNames(ctx context.Context) ([]string, error) {
	query, args, err := qb.Select("name").From("locations").OrderBy("name").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list location names query: %w", err)
	}

	var names []string
	if err := r.db.SelectContext(ctx, &names, query, args...); err != nil {
		return nil, fmt.Errorf("list location names: %w", err)
	}
	return names, nil
}
