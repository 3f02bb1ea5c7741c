package course

import "context"

// Repository exposes course persistence keyed by course number.
type Repository interface {
	UpsertBatch(ctx context.Context, courses []Course) error
}
