package dto

import "time"

// PassReport summarises one scheduler pass.
type PassReport struct {
	StartedAt time.Time
	Duration  time.Duration
	MeetUps   int
	Pairs     int
	Due       int
	Delivered int
	Failed    int
	Skipped   int
	Expired   int
	Conflicts int
	Errors    int
}

// Eventful reports whether the pass did anything worth an info log.
func (r PassReport) Eventful() bool {
	return r.Due > 0 || r.Expired > 0 || r.Errors > 0 || r.Conflicts > 0
}
