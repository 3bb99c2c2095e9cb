package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// PlainReporter logs the overall counter of a run for non-interactive output.
//
// Progress is logged when it crosses a new 10% bucket or when the interval elapses with a change,
// whichever comes first.
type PlainReporter struct {
	source   SnapshotSource
	logger   *log.Logger
	interval time.Duration

	lastCount  int
	lastBucket int
}

// NewPlainReporter creates a reporter polling source every interval.
func NewPlainReporter(source SnapshotSource, logger *log.Logger, interval time.Duration) *PlainReporter {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &PlainReporter{source: source, logger: logger, interval: interval, lastBucket: -1}
}

// Run polls until ctx is done.
func (r *PlainReporter) Run(ctx context.Context) {
	poll := min(r.interval, time.Second)
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if r.Check(now.Sub(last) >= r.interval) {
				last = now
			}
		}
	}
}

// Check logs the overall counter if it moved into a new bucket, or if it changed and force is
// set. It reports whether a line was logged.
func (r *PlainReporter) Check(force bool) bool {
	snap := r.source.Snapshot()
	if snap.OverallTotal <= 0 || snap.Overall == r.lastCount {
		return false
	}

	bucket := snap.Overall * 10 / snap.OverallTotal
	if bucket == r.lastBucket && !force {
		return false
	}

	r.lastCount = snap.Overall
	r.lastBucket = bucket
	r.logger.Info("progress", "done", snap.Overall, "total", snap.OverallTotal, "percent", int(snap.Fraction()*100))
	return true
}
