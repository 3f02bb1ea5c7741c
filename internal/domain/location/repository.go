package location

import "context"

// Repository exposes location persistence keyed by name.
type Repository interface {
	UpsertBatch(ctx context.Context, locations []Location) error
	ListNames(ctx context.Context) ([]string, error)
}
