package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/unisportai/unisport-sync/internal/domain/course"
	"github.com/unisportai/unisport-sync/internal/domain/offer"
	"github.com/unisportai/unisport-sync/internal/domain/session"
	"github.com/unisportai/unisport-sync/internal/platform/logging"
)

const syncComponent = "catalog_sync"

// RunReport is the full audit payload of one pipeline run.
type RunReport struct {
	StartedAt           time.Time   `json:"started_at"`
	FinishedAt          time.Time   `json:"finished_at"`
	Locations           int         `json:"locations"`
	Offers              int         `json:"offers"`
	Courses             int         `json:"courses"`
	Sessions            int         `json:"sessions"`
	CoursesWithTrainers int         `json:"courses_with_trainers"`
	FetchFailures       int         `json:"fetch_failures"`
	SkippedOffers       int         `json:"skipped_offers"`
	SkippedSchedules    int         `json:"skipped_schedules"`
	DroppedMarkers      int         `json:"dropped_markers"`
	DroppedTimes        int         `json:"dropped_times"`
	DroppedDates        int         `json:"dropped_dates"`
	Merge               MergeReport `json:"merge"`
}

// CatalogSyncService orchestrates one full run: locations first, then the
// offer catalog with its courses, sessions and trainers. Fetch failures
// skip the affected unit and are counted; storage failures abort the run.
type CatalogSyncService struct {
	provider  CatalogProvider
	merger    *LocationMerger
	ingestion *IngestionService
	logger    *logging.Logger
	now       func() time.Time
}

func NewCatalogSyncService(
	provider CatalogProvider,
	merger *LocationMerger,
	ingestion *IngestionService,
	logger *logging.Logger,
) *CatalogSyncService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &CatalogSyncService{
		provider:  provider,
		merger:    merger,
		ingestion: ingestion,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes the whole pipeline once and records the audit row. The
// returned report is valid even when an error is returned.
func (s *CatalogSyncService) Run(ctx context.Context) (RunReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CatalogSyncService.Run")
	defer span.End()

	report := RunReport{StartedAt: s.now().UTC()}

	if err := s.SyncLocations(ctx, &report); err != nil {
		report.FinishedAt = s.now().UTC()
		return report, fmt.Errorf("sync locations: %w", err)
	}
	if err := s.SyncCatalog(ctx, &report); err != nil {
		report.FinishedAt = s.now().UTC()
		return report, fmt.Errorf("sync catalog: %w", err)
	}

	report.FinishedAt = s.now().UTC()
	s.logger.InfoContext(ctx, "catalog sync finished",
		"locations", report.Locations,
		"offers", report.Offers,
		"courses", report.Courses,
		"sessions", report.Sessions,
		"fetch_failures", report.FetchFailures,
		"duration", report.FinishedAt.Sub(report.StartedAt).String(),
	)
	s.ingestion.RecordRun(ctx, syncComponent, report)
	return report, nil
}

// SyncLocations fetches the map page, merges the three location sources
// and upserts the result. A fetch failure skips the whole step.
func (s *CatalogSyncService) SyncLocations(ctx context.Context, report *RunReport) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.CatalogSyncService.SyncLocations")
	defer span.End()

	bundle, err := s.provider.FetchLocationBundle(ctx)
	if err != nil {
		report.FetchFailures++
		s.logger.WarnContext(ctx, "fetch location page failed, skipping locations", "error", err)
		return nil
	}
	report.DroppedMarkers = bundle.DroppedMarkers

	locations, merge := s.merger.Merge(ctx, bundle)
	report.Merge = merge
	report.Locations = len(locations)

	if err := s.ingestion.UpsertLocations(ctx, locations); err != nil {
		return err
	}
	return nil
}

// SyncCatalog fetches the offer index and walks every offer: metadata and
// courses from the offer page, sessions from each course's dates page,
// trainer links from the instructor cell.
func (s *CatalogSyncService) SyncCatalog(ctx context.Context, report *RunReport) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.CatalogSyncService.SyncCatalog")
	defer span.End()

	index, err := s.provider.FetchOffers(ctx)
	if err != nil {
		report.FetchFailures++
		s.logger.WarnContext(ctx, "fetch offer index failed, skipping catalog", "error", err)
		return nil
	}

	offers := make([]offer.Offer, 0, len(index))
	courses := make([]course.Course, 0, len(index))
	for _, entry := range index {
		detail, err := s.provider.FetchOfferDetail(ctx, entry.DetailLink)
		if err != nil {
			report.FetchFailures++
			report.SkippedOffers++
			s.logger.WarnContext(ctx, "fetch offer page failed, skipping offer",
				"offer", entry.Name,
				"link", entry.DetailLink,
				"error", err,
			)
			continue
		}

		offers = append(offers, offer.Offer{
			Name:        entry.Name,
			DetailLink:  entry.DetailLink,
			ImageURL:    detail.ImageURL,
			Description: detail.Description,
		})
		for _, c := range detail.Courses {
			courses = append(courses, course.Course{
				CourseNumber:   c.CourseNumber,
				OfferLink:      entry.DetailLink,
				Details:        c.Details,
				ScheduleHref:   c.ScheduleHref,
				Price:          c.Price,
				BookingStatus:  c.BookingStatus,
				InstructorText: c.InstructorText,
			})
		}
	}
	report.Offers = len(offers)
	report.Courses = len(courses)

	if err := s.ingestion.UpsertOffers(ctx, offers); err != nil {
		return err
	}
	if err := s.ingestion.UpsertCourses(ctx, courses); err != nil {
		return err
	}

	sessions := make([]session.Session, 0, len(courses)*8)
	for _, c := range courses {
		if c.ScheduleHref == nil || strings.TrimSpace(*c.ScheduleHref) == "" {
			continue
		}
		page, err := s.provider.FetchCourseDates(ctx, *c.ScheduleHref)
		if err != nil {
			report.FetchFailures++
			report.SkippedSchedules++
			s.logger.WarnContext(ctx, "fetch course dates failed, skipping schedule",
				"course_number", c.CourseNumber,
				"error", err,
			)
			continue
		}
		report.DroppedTimes += page.DroppedTimes
		report.DroppedDates += page.DroppedDates

		for _, date := range page.Dates {
			item := session.Session{
				CourseNumber: c.CourseNumber,
				StartTime:    date.StartTime,
				EndTime:      date.EndTime,
			}
			if name := strings.TrimSpace(date.LocationName); name != "" {
				item.LocationName = &name
			}
			sessions = append(sessions, item)
		}
	}
	report.Sessions = len(sessions)

	if err := s.ingestion.UpsertSessions(ctx, sessions); err != nil {
		return err
	}

	// Every scraped course gets its trainer links replaced, even when the
	// instructor cell is empty, so removed trainers lose their links.
	for _, c := range courses {
		names := SplitTrainerNames(c.InstructorText)
		if err := s.ingestion.ReplaceCourseTrainers(ctx, c.CourseNumber, names); err != nil {
			return err
		}
		if len(names) > 0 {
			report.CoursesWithTrainers++
		}
	}

	return nil
}
