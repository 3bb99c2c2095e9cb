package models

import (
	"time"
)

// ItemStatus is the final state of one work item.
type ItemStatus int

const (
	StatusSucceeded   ItemStatus = iota // Acquired and transcoded
	StatusAbandoned                     // Every attempt failed
	StatusInterrupted                   // Cancelled while in flight
	StatusSkipped                       // Never taken because the run was cancelled
)

func (s ItemStatus) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusAbandoned:
		return "abandoned"
	case StatusInterrupted:
		return "interrupted"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name.
func (s ItemStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ItemOutcome records what happened to one work item.
type ItemOutcome struct {
	Item     WorkItem
	Status   ItemStatus
	Track    *EnrichedTrack // Set when Status is StatusSucceeded
	Attempts int
	Err      error
	Elapsed  time.Duration
}

// RunReport is the result of one pool run.
type RunReport struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Outcomes []ItemOutcome
}

// Count returns the number of outcomes with the given status.
func (r *RunReport) Count(status ItemStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Total returns the number of work items in the run.
func (r *RunReport) Total() int {
	return len(r.Outcomes)
}

// Elapsed returns the wall time of the run.
func (r *RunReport) Elapsed() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// Interrupted reports whether any item was cut short by cancellation.
func (r *RunReport) Interrupted() bool {
	return r.Count(StatusInterrupted) > 0 || r.Count(StatusSkipped) > 0
}
