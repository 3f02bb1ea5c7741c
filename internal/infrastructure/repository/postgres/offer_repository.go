package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/unisportai/unisport-sync/internal/domain/offer"
	qb "github.com/unisportai/unisport-sync/internal/platform/querybuilder"
)

type OfferRepository struct {
	db *sqlx.DB
}

func NewOfferRepository(db *sqlx.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

type offerInsertModel struct {
	Name        string  `db:"name"`
	DetailLink  string  `db:"detail_link"`
	ImageURL    *string `db:"image_url"`
	Description *string `db:"description"`
}

func (r *OfferRepository) UpsertBatch(ctx context.Context, offers []offer.Offer) error {
	if len(offers) == 0 {
		return nil
	}

	for _, item := range offers {
		model := offerInsertModel{
			Name:        item.Name,
			DetailLink:  item.DetailLink,
			ImageURL:    item.ImageURL,
			Description: item.Description,
		}
		query, args, err := qb.InsertModel("offers", model, `ON CONFLICT (detail_link)
DO UPDATE SET
    name = EXCLUDED.name,
    image_url = EXCLUDED.image_url,
    description = EXCLUDED.description,
    updated_at = NOW()`)
		if err != nil {
			return fmt.Errorf("build upsert offer query: %w", err)
		}
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert offer %q: %w", item.DetailLink, err)
		}
	}
	return nil
}
