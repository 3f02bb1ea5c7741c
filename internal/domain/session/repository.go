package session

import "context"

// Repository exposes session persistence keyed by course number and start.
// ListCanceledByCourses returns existing canceled flags keyed by Key.
type Repository interface {
	UpsertBatch(ctx context.Context, sessions []Session) error
	ListCanceledByCourses(ctx context.Context, courseNumbers []string) (map[string]bool, error)
}
