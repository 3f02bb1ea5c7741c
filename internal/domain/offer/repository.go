package offer

import "context"

// Repository exposes offer persistence keyed by detail link.
type Repository interface {
	UpsertBatch(ctx context.Context, offers []Offer) error
}
