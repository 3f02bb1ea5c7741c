package trainer

const DefaultRating = 3

// Trainer is a course instructor keyed by name. Rating is maintained by
// users of the surrounding product, so a sync run may create trainers but
// never overwrite an existing rating.
type Trainer struct {
	Name   string
	Rating int
}

// CourseLink ties a trainer to a course. Links of a touched course are
// replaced wholesale each run.
type CourseLink struct {
	CourseNumber string
	TrainerName  string
}
