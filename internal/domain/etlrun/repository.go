package etlrun

import "context"

// Repository records run audit rows.
type Repository interface {
	Insert(ctx context.Context, run Run) error
}
