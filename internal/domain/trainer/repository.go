package trainer

import "context"

// Repository exposes trainer persistence keyed by name.
type Repository interface {
	UpsertBatch(ctx context.Context, trainers []Trainer) error
	ReplaceCourseLinks(ctx context.Context, courseNumber string, trainerNames []string) error
}
