package session

import "time"

// Session is one concrete date of a course. The natural key is the
// (course number, start time) pair. Canceled is maintained outside the
// pipeline and must be carried forward on rewrite.
type Session struct {
	CourseNumber string
	StartTime    time.Time
	EndTime      *time.Time
	LocationName *string
	Canceled     bool
}

// Key identifies a session for the canceled carry-forward lookup.
func Key(courseNumber string, start time.Time) string {
	return courseNumber + "|" + start.UTC().Format(time.RFC3339)
}

func (s Session) Key() string {
	return Key(s.CourseNumber, s.StartTime)
}
