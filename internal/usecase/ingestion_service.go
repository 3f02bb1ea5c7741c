package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/unisportai/unisport-sync/internal/domain/course"
	"github.com/unisportai/unisport-sync/internal/domain/etlrun"
	"github.com/unisportai/unisport-sync/internal/domain/location"
	"github.com/unisportai/unisport-sync/internal/domain/offer"
	"github.com/unisportai/unisport-sync/internal/domain/session"
	"github.com/unisportai/unisport-sync/internal/domain/trainer"
	"github.com/unisportai/unisport-sync/internal/platform/logging"
)

// IngestionService validates scraped entities and writes them through the
// repositories with the pipeline's idempotency rules.
type IngestionService struct {
	locationRepo location.Repository
	offerRepo    offer.Repository
	courseRepo   course.Repository
	sessionRepo  session.Repository
	trainerRepo  trainer.Repository
	runRepo      etlrun.Repository
	logger       *logging.Logger
	now          func() time.Time
}

func NewIngestionService(
	locationRepo location.Repository,
	offerRepo offer.Repository,
	courseRepo course.Repository,
	sessionRepo session.Repository,
	trainerRepo trainer.Repository,
	runRepo etlrun.Repository,
	logger *logging.Logger,
) *IngestionService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &IngestionService{
		locationRepo: locationRepo,
		offerRepo:    offerRepo,
		courseRepo:   courseRepo,
		sessionRepo:  sessionRepo,
		trainerRepo:  trainerRepo,
		runRepo:      runRepo,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *IngestionService) UpsertLocations(ctx context.Context, locations []location.Location) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.UpsertLocations")
	defer span.End()

	if len(locations) == 0 {
		return nil
	}
	for idx := range locations {
		locations[idx].Name = strings.TrimSpace(locations[idx].Name)
		if locations[idx].Name == "" {
			return fmt.Errorf("%w: location name is required", ErrInvalidInput)
		}
	}

	if err := s.locationRepo.UpsertBatch(ctx, locations); err != nil {
		return fmt.Errorf("upsert locations: %w", err)
	}
	return nil
}

func (s *IngestionService) UpsertOffers(ctx context.Context, offers []offer.Offer) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.UpsertOffers")
	defer span.End()

	if len(offers) == 0 {
		return nil
	}
	for idx := range offers {
		offers[idx].Name = strings.TrimSpace(offers[idx].Name)
		offers[idx].DetailLink = strings.TrimSpace(offers[idx].DetailLink)
		if offers[idx].DetailLink == "" {
			return fmt.Errorf("%w: offer detail link is required", ErrInvalidInput)
		}
	}

	if err := s.offerRepo.UpsertBatch(ctx, offers); err != nil {
		return fmt.Errorf("upsert offers: %w", err)
	}
	return nil
}

func (s *IngestionService) UpsertCourses(ctx context.Context, courses []course.Course) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.UpsertCourses")
	defer span.End()

	if len(courses) == 0 {
		return nil
	}
	for idx := range courses {
		courses[idx].CourseNumber = strings.TrimSpace(courses[idx].CourseNumber)
		if courses[idx].CourseNumber == "" {
			return fmt.Errorf("%w: course number is required", ErrInvalidInput)
		}
	}

	if err := s.courseRepo.UpsertBatch(ctx, courses); err != nil {
		return fmt.Errorf("upsert courses: %w", err)
	}
	return nil
}

// UpsertSessions writes course sessions with two guarantees: an existing
// canceled flag is carried forward per (course number, start time) key,
// and a location name that is not a known location becomes NULL instead
// of a dangling reference.
func (s *IngestionService) UpsertSessions(ctx context.Context, sessions []session.Session) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.UpsertSessions")
	defer span.End()

	if len(sessions) == 0 {
		return nil
	}

	courseNumbers := make([]string, 0, len(sessions))
	seenCourses := make(map[string]struct{}, len(sessions))
	for idx := range sessions {
		sessions[idx].CourseNumber = strings.TrimSpace(sessions[idx].CourseNumber)
		if sessions[idx].CourseNumber == "" {
			return fmt.Errorf("%w: session course number is required", ErrInvalidInput)
		}
		if sessions[idx].StartTime.IsZero() {
			return fmt.Errorf("%w: session start time is required", ErrInvalidInput)
		}
		if _, ok := seenCourses[sessions[idx].CourseNumber]; !ok {
			seenCourses[sessions[idx].CourseNumber] = struct{}{}
			courseNumbers = append(courseNumbers, sessions[idx].CourseNumber)
		}
	}

	canceled, err := s.sessionRepo.ListCanceledByCourses(ctx, courseNumbers)
	if err != nil {
		return fmt.Errorf("list existing canceled flags: %w", err)
	}

	knownLocations, err := s.locationRepo.ListNames(ctx)
	if err != nil {
		return fmt.Errorf("list location names: %w", err)
	}
	knownSet := make(map[string]struct{}, len(knownLocations))
	for _, name := range knownLocations {
		knownSet[name] = struct{}{}
	}

	unknownLocations := 0
	for idx := range sessions {
		sessions[idx].Canceled = canceled[sessions[idx].Key()]

		if sessions[idx].LocationName != nil {
			name := strings.TrimSpace(*sessions[idx].LocationName)
			if name == "" {
				sessions[idx].LocationName = nil
				continue
			}
			if _, ok := knownSet[name]; !ok {
				sessions[idx].LocationName = nil
				unknownLocations++
				continue
			}
			sessions[idx].LocationName = &name
		}
	}
	if unknownLocations > 0 {
		s.logger.WarnContext(ctx, "session locations not found, stored as null",
			"count", unknownLocations,
		)
	}

	if err := s.sessionRepo.UpsertBatch(ctx, sessions); err != nil {
		return fmt.Errorf("upsert sessions: %w", err)
	}
	return nil
}

// ReplaceCourseTrainers upserts the named trainers, leaving existing
// ratings untouched, then replaces the course's trainer links wholesale.
// An empty name list still replaces: a trainer removed from the course on
// the site must lose its link row here too.
func (s *IngestionService) ReplaceCourseTrainers(ctx context.Context, courseNumber string, names []string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.ReplaceCourseTrainers")
	defer span.End()

	courseNumber = strings.TrimSpace(courseNumber)
	if courseNumber == "" {
		return fmt.Errorf("%w: course number is required", ErrInvalidInput)
	}

	if len(names) > 0 {
		trainers := make([]trainer.Trainer, 0, len(names))
		for _, name := range names {
			trainers = append(trainers, trainer.Trainer{Name: name, Rating: trainer.DefaultRating})
		}
		if err := s.trainerRepo.UpsertBatch(ctx, trainers); err != nil {
			return fmt.Errorf("upsert trainers: %w", err)
		}
	}
	if err := s.trainerRepo.ReplaceCourseLinks(ctx, courseNumber, names); err != nil {
		return fmt.Errorf("replace course trainers: %w", err)
	}
	return nil
}

// RecordRun writes the audit row for a completed run. The row is
// best-effort: a storage failure here is logged and swallowed so it never
// fails an otherwise successful run.
func (s *IngestionService) RecordRun(ctx context.Context, component string, report any) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.RecordRun")
	defer span.End()

	payload, err := sonic.Marshal(report)
	if err != nil {
		s.logger.WarnContext(ctx, "marshal run report failed", "component", component, "error", err)
		return
	}

	run := etlrun.Run{
		Component:  component,
		RanAt:      s.now().UTC(),
		ReportJSON: string(payload),
	}
	if err := s.runRepo.Insert(ctx, run); err != nil {
		s.logger.WarnContext(ctx, "record run failed", "component", component, "error", err)
	}
}

// SplitTrainerNames splits a raw instructor cell on commas, trims each
// part, drops empties, and dedupes while keeping first occurrence order.
func SplitTrainerNames(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
