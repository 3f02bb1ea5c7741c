package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
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

type stubLocationRepo struct {
	upserted  [][]location.Location
	names     []string
	upsertErr error
	namesErr  error
}

func (s *stubLocationRepo) UpsertBatch(_ context.Context, locations []location.Location) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserted = append(s.upserted, locations)
	return nil
}

func (s *stubLocationRepo) ListNames(_ context.Context) ([]string, error) {
	if s.namesErr != nil {
		return nil, s.namesErr
	}
	return s.names, nil
}

type stubOfferRepo struct {
	upserted [][]offer.Offer
}

func (s *stubOfferRepo) UpsertBatch(_ context.Context, offers []offer.Offer) error {
	s.upserted = append(s.upserted, offers)
	return nil
}

type stubCourseRepo struct {
	upserted [][]course.Course
}

func (s *stubCourseRepo) UpsertBatch(_ context.Context, courses []course.Course) error {
	s.upserted = append(s.upserted, courses)
	return nil
}

type stubSessionRepo struct {
	upserted  []session.Session
	canceled  map[string]bool
	listCalls [][]string
	upsertErr error
	listErr   error
}

func (s *stubSessionRepo) UpsertBatch(_ context.Context, sessions []session.Session) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserted = append(s.upserted, sessions...)
	return nil
}

func (s *stubSessionRepo) ListCanceledByCourses(_ context.Context, courseNumbers []string) (map[string]bool, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.listCalls = append(s.listCalls, courseNumbers)
	if s.canceled == nil {
		return map[string]bool{}, nil
	}
	return s.canceled, nil
}

type stubTrainerRepo struct {
	trainers []trainer.Trainer
	links    map[string][]string
}

func (s *stubTrainerRepo) UpsertBatch(_ context.Context, trainers []trainer.Trainer) error {
	s.trainers = append(s.trainers, trainers...)
	return nil
}

func (s *stubTrainerRepo) ReplaceCourseLinks(_ context.Context, courseNumber string, trainerNames []string) error {
	if s.links == nil {
		s.links = make(map[string][]string)
	}
	s.links[courseNumber] = trainerNames
	return nil
}

type stubRunRepo struct {
	runs []etlrun.Run
	err  error
}

func (s *stubRunRepo) Insert(_ context.Context, run etlrun.Run) error {
	if s.err != nil {
		return s.err
	}
	s.runs = append(s.runs, run)
	return nil
}

type ingestionStubs struct {
	locations *stubLocationRepo
	offers    *stubOfferRepo
	courses   *stubCourseRepo
	sessions  *stubSessionRepo
	trainers  *stubTrainerRepo
	runs      *stubRunRepo
}

func newTestIngestion() (*IngestionService, *ingestionStubs) {
	stubs := &ingestionStubs{
		locations: &stubLocationRepo{},
		offers:    &stubOfferRepo{},
		courses:   &stubCourseRepo{},
		sessions:  &stubSessionRepo{},
		trainers:  &stubTrainerRepo{},
		runs:      &stubRunRepo{},
	}
	svc := NewIngestionService(
		stubs.locations,
		stubs.offers,
		stubs.courses,
		stubs.sessions,
		stubs.trainers,
		stubs.runs,
		logging.NewNop(),
	)
	return svc, stubs
}

func TestUpsertLocationsRejectsEmptyName(t *testing.T) {
	t.Parallel()

	svc, _ := newTestIngestion()
	err := svc.UpsertLocations(context.Background(), []location.Location{{Name: "   "}})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestUpsertSessionsCarriesCanceledForward(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 2, 16, 10, 0, 0, time.UTC)
	svc, stubs := newTestIngestion()
	stubs.sessions.canceled = map[string]bool{
		session.Key("1234", start): true,
	}

	sessions := []session.Session{
		{CourseNumber: "1234", StartTime: start},
		{CourseNumber: "1234", StartTime: start.Add(7 * 24 * time.Hour)},
	}
	if err := svc.UpsertSessions(context.Background(), sessions); err != nil {
		t.Fatalf("UpsertSessions() error = %v", err)
	}

	if !stubs.sessions.upserted[0].Canceled {
		t.Fatal("existing canceled flag must be carried forward")
	}
	if stubs.sessions.upserted[1].Canceled {
		t.Fatal("new session must default to not canceled")
	}
}

func TestUpsertSessionsNullsUnknownLocation(t *testing.T) {
	t.Parallel()

	svc, stubs := newTestIngestion()
	stubs.locations.names = []string{"Halle 1"}

	known := "Halle 1"
	unknown := "Halle 99"
	blank := "   "
	sessions := []session.Session{
		{CourseNumber: "1", StartTime: time.Now(), LocationName: &known},
		{CourseNumber: "1", StartTime: time.Now().Add(time.Hour), LocationName: &unknown},
		{CourseNumber: "1", StartTime: time.Now().Add(2 * time.Hour), LocationName: &blank},
	}
	if err := svc.UpsertSessions(context.Background(), sessions); err != nil {
		t.Fatalf("UpsertSessions() error = %v", err)
	}

	rows := stubs.sessions.upserted
	if rows[0].LocationName == nil || *rows[0].LocationName != "Halle 1" {
		t.Fatal("known location must be kept")
	}
	if rows[1].LocationName != nil {
		t.Fatal("unknown location must become nil")
	}
	if rows[2].LocationName != nil {
		t.Fatal("blank location must become nil")
	}
}

func TestUpsertSessionsRequiresKeyFields(t *testing.T) {
	t.Parallel()

	svc, _ := newTestIngestion()

	err := svc.UpsertSessions(context.Background(), []session.Session{{CourseNumber: "", StartTime: time.Now()}})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput for missing course number", err)
	}
	err = svc.UpsertSessions(context.Background(), []session.Session{{CourseNumber: "1"}})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput for zero start time", err)
	}
}

func TestReplaceCourseTrainers(t *testing.T) {
	t.Parallel()

	svc, stubs := newTestIngestion()
	names := []string{"Anna Meier", "Beat Koch"}
	if err := svc.ReplaceCourseTrainers(context.Background(), "1234", names); err != nil {
		t.Fatalf("ReplaceCourseTrainers() error = %v", err)
	}

	if len(stubs.trainers.trainers) != 2 {
		t.Fatalf("trainers upserted = %d, want 2", len(stubs.trainers.trainers))
	}
	for _, item := range stubs.trainers.trainers {
		if item.Rating != trainer.DefaultRating {
			t.Fatalf("Rating = %d, want default %d", item.Rating, trainer.DefaultRating)
		}
	}
	linked := stubs.trainers.links["1234"]
	if len(linked) != 2 || linked[0] != "Anna Meier" || linked[1] != "Beat Koch" {
		t.Fatalf("links = %v", linked)
	}
}

func TestReplaceCourseTrainersEmptyNamesClearsLinks(t *testing.T) {
	t.Parallel()

	svc, stubs := newTestIngestion()
	stubs.trainers.links = map[string][]string{"1234": {"Anna Meier"}}

	if err := svc.ReplaceCourseTrainers(context.Background(), "1234", nil); err != nil {
		t.Fatalf("ReplaceCourseTrainers() error = %v", err)
	}
	if len(stubs.trainers.trainers) != 0 {
		t.Fatal("no trainers must be upserted for an empty name list")
	}
	linked, ok := stubs.trainers.links["1234"]
	if !ok {
		t.Fatal("links must still be replaced for an empty name list")
	}
	if len(linked) != 0 {
		t.Fatalf("links = %v, want none left", linked)
	}
}

func TestRecordRunWritesAuditRow(t *testing.T) {
	t.Parallel()

	svc, stubs := newTestIngestion()
	svc.RecordRun(context.Background(), "catalog_sync", RunReport{Offers: 3})

	if len(stubs.runs.runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(stubs.runs.runs))
	}
	run := stubs.runs.runs[0]
	if run.Component != "catalog_sync" {
		t.Fatalf("Component = %q", run.Component)
	}
	if run.RanAt.IsZero() {
		t.Fatal("RanAt must be set")
	}

	var decoded RunReport
	if err := sonic.Unmarshal([]byte(run.ReportJSON), &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if decoded.Offers != 3 {
		t.Fatalf("decoded Offers = %d, want 3", decoded.Offers)
	}
}

func TestRecordRunSwallowsStorageError(t *testing.T) {
	t.Parallel()

	svc, stubs := newTestIngestion()
	stubs.runs.err = errors.New("db down")

	// Must not panic and must not propagate the error.
	svc.RecordRun(context.Background(), "catalog_sync", RunReport{})
	if len(stubs.runs.runs) != 0 {
		t.Fatal("no run row expected on storage error")
	}
}

func TestUpsertCoursesTrimsAndValidates(t *testing.T) {
	t.Parallel()

	svc, stubs := newTestIngestion()
	err := svc.UpsertCourses(context.Background(), []course.Course{{CourseNumber: " 1234 "}})
	if err != nil {
		t.Fatalf("UpsertCourses() error = %v", err)
	}
	if stubs.courses.upserted[0][0].CourseNumber != "1234" {
		t.Fatal("course number must be trimmed")
	}

	err = svc.UpsertCourses(context.Background(), []course.Course{{CourseNumber: "  "}})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestUpsertOffersRequiresDetailLink(t *testing.T) {
	t.Parallel()

	svc, _ := newTestIngestion()
	err := svc.UpsertOffers(context.Background(), []offer.Offer{{Name: "Badminton"}})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if !strings.Contains(err.Error(), "detail link") {
		t.Fatalf("err = %v, want detail link message", err)
	}
}
