package tasks

import (
	"fmt"
	"sync"

	"github.com/desertthunder/ytmd/internal/models"
)

// Pipeline stage enumeration
type Stage int

const (
	Acquire Stage = iota
	Transcode
	Enrich
	Finalize
)

func (s Stage) String() string {
	switch s {
	case Acquire:
		return "acquire"
	case Transcode:
		return "transcode"
	case Enrich:
		return "enrich"
	case Finalize:
		return "finalize"
	default:
		return ""
	}
}

// StageError ties a pipeline failure to the stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageError(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}

func acquireUpdate(item models.WorkItem, attempt int) SlotUpdate {
	desc := fmt.Sprintf("%s downloading", item.Label())
	if attempt > 1 {
		desc = fmt.Sprintf("%s downloading (attempt %d)", item.Label(), attempt)
	}
	return Describe(desc).WithCompleted(0)
}

func transcodeUpdate(item models.WorkItem) SlotUpdate {
	return Describe(fmt.Sprintf("%s converting", item.Label()))
}

func enrichUpdate(item models.WorkItem, title string) SlotUpdate {
	return Describe(fmt.Sprintf("[%d/%d] %s tagging", item.Ordinal, item.Total, title))
}

// byteTracker turns raw byte callbacks into slot updates: the total is sent once, as soon as
// it is known, and completed never decreases.
type byteTracker struct {
	mu        sync.Mutex
	report    func(SlotUpdate)
	totalSent bool
	completed int64
}

func newByteTracker(report func(SlotUpdate)) *byteTracker {
	return &byteTracker{report: report}
}

func (b *byteTracker) update(downloaded, total int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var u SlotUpdate
	if !b.totalSent && total > 0 {
		u = u.WithTotal(total)
		b.totalSent = true
	}
	if downloaded > b.completed {
		b.completed = downloaded
		u = u.WithCompleted(downloaded)
	}
	if u.Total != nil || u.Completed != nil {
		b.report(u)
	}
}
