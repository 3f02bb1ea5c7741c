package usecase

import (
	"context"
	"time"
)

// ExternalMarker is one entry of the map page's JS marker array.
type ExternalMarker struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// ExternalMenuSports is one filter-menu entry with its sport names.
type ExternalMenuSports struct {
	Name   string
	Sports []string
}

// ExternalMenuLink is one filter-menu entry with its detail link.
type ExternalMenuLink struct {
	Name       string
	DetailLink string
	InternalID *string
}

// ExternalLocationBundle carries all three location sources extracted from
// the map page, plus the count of marker records dropped during parsing.
type ExternalLocationBundle struct {
	Markers        []ExternalMarker
	MenuSports     []ExternalMenuSports
	MenuLinks      []ExternalMenuLink
	DroppedMarkers int
}

// ExternalOffer is one entry of the offer index page.
type ExternalOffer struct {
	Name       string
	DetailLink string
}

// ExternalCourse is one row of an offer's course table. InstructorText is
// the raw trainer cell, split downstream.
type ExternalCourse struct {
	CourseNumber   string
	Details        *string
	ScheduleHref   *string
	Price          *string
	BookingStatus  *string
	InstructorText string
}

// ExternalOfferDetail is everything scraped from one offer page.
type ExternalOfferDetail struct {
	ImageURL    *string
	Description *string
	Courses     []ExternalCourse
}

// ExternalCourseDate is one parsed row of a course's dates page.
type ExternalCourseDate struct {
	StartTime    time.Time
	EndTime      *time.Time
	LocationName string
}

// ExternalCourseDatesPage carries the parsed dates of one course together
// with counts of rows dropped for unparsable time ranges or dates.
type ExternalCourseDatesPage struct {
	Dates        []ExternalCourseDate
	DroppedTimes int
	DroppedDates int
}

// CatalogProvider fetches and extracts the four page families of the
// sports-program site.
type CatalogProvider interface {
	FetchLocationBundle(ctx context.Context) (ExternalLocationBundle, error)
	FetchOffers(ctx context.Context) ([]ExternalOffer, error)
	FetchOfferDetail(ctx context.Context, detailLink string) (ExternalOfferDetail, error)
	FetchCourseDates(ctx context.Context, scheduleHref string) (ExternalCourseDatesPage, error)
}
