package course

// Course is one bookable course row from an offer's course table.
// CourseNumber is the natural key and required. InstructorText carries the
// raw trainer cell for downstream splitting and is never persisted on the
// course itself.
type Course struct {
	CourseNumber   string
	OfferLink      string
	Details        *string
	ScheduleHref   *string
	Price          *string
	BookingStatus  *string
	InstructorText string
}
