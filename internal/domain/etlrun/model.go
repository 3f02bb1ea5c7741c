package etlrun

import "time"

// Run is one audit record of a completed pipeline run. Append-only.
type Run struct {
	Component  string
	RanAt      time.Time
	ReportJSON string
}
