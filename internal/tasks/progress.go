package tasks

import (
	"sync"
)

// IdleDescription is shown in a slot whose worker has no more work.
const IdleDescription = "idle"

// SlotUpdate is a partial update of a worker slot. Nil fields are left unchanged.
type SlotUpdate struct {
	Description *string
	Completed   *int64
	Total       *int64
}

// Describe returns an update that only sets the description.
func Describe(description string) SlotUpdate {
	return SlotUpdate{Description: &description}
}

// WithCompleted sets the completed amount.
func (u SlotUpdate) WithCompleted(n int64) SlotUpdate {
	u.Completed = &n
	return u
}

// WithTotal sets the total amount.
func (u SlotUpdate) WithTotal(n int64) SlotUpdate {
	u.Total = &n
	return u
}

// Slot is the state of one worker as seen by a display.
type Slot struct {
	Description string
	Completed   int64
	Total       int64
	HasTotal    bool
}

// Fraction returns completed/total in [0, 1], or 0 when the total is unknown.
func (s Slot) Fraction() float64 {
	if !s.HasTotal || s.Total <= 0 {
		return 0
	}
	return float64(s.Completed) / float64(s.Total)
}

// Snapshot is a consistent copy of every slot and the overall counter.
type Snapshot struct {
	Slots        []Slot
	Overall      int
	OverallTotal int
}

// Fraction returns the overall completion in [0, 1].
func (s Snapshot) Fraction() float64 {
	if s.OverallTotal <= 0 {
		return 0
	}
	return float64(s.Overall) / float64(s.OverallTotal)
}

// ProgressSink receives progress from the workers of a pool.
//
// Each worker writes only its own slot; every worker advances the shared overall counter.
type ProgressSink interface {
	UpdateSlot(worker int, u SlotUpdate)
	IdleSlot(worker int)
	AdvanceOverall(n int)
}

// NopSink discards progress.
type NopSink struct{}

func (NopSink) UpdateSlot(int, SlotUpdate) {}
func (NopSink) IdleSlot(int)               {}
func (NopSink) AdvanceOverall(int)         {}

// Aggregator implements [ProgressSink] with one slot per worker and an overall counter.
//
// Every call holds the same lock, so [Aggregator.Snapshot] never observes a partial update.
type Aggregator struct {
	mu           sync.Mutex
	slots        []Slot
	overall      int
	overallTotal int
}

// NewAggregator creates workers idle slots and an overall counter bounded by total.
func NewAggregator(workers, total int) *Aggregator {
	a := &Aggregator{slots: make([]Slot, max(workers, 0)), overallTotal: max(total, 0)}
	for i := range a.slots {
		a.slots[i] = idleSlot()
	}
	return a
}

// UpdateSlot applies a partial update. A total, once set, is never unset; completed is clamped
// to [0, total].
func (a *Aggregator) UpdateSlot(worker int, u SlotUpdate) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if worker < 0 || worker >= len(a.slots) {
		return
	}
	s := &a.slots[worker]

	if u.Description != nil {
		s.Description = *u.Description
	}
	if u.Total != nil && *u.Total > 0 {
		s.Total = *u.Total
		s.HasTotal = true
	}
	if u.Completed != nil {
		s.Completed = max(*u.Completed, 0)
	}
	if s.HasTotal && s.Completed > s.Total {
		s.Completed = s.Total
	}
}

// IdleSlot resets a slot to the idle state.
func (a *Aggregator) IdleSlot(worker int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if worker < 0 || worker >= len(a.slots) {
		return
	}
	a.slots[worker] = idleSlot()
}

// AdvanceOverall increments the overall counter by n, never past the total.
func (a *Aggregator) AdvanceOverall(n int) {
	if n <= 0 {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.overall = min(a.overall+n, a.overallTotal)
}

// Overall returns the overall counter and its total.
func (a *Aggregator) Overall() (int, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.overall, a.overallTotal
}

// Snapshot returns a copy of the current state.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	slots := make([]Slot, len(a.slots))
	copy(slots, a.slots)
	return Snapshot{Slots: slots, Overall: a.overall, OverallTotal: a.overallTotal}
}

func idleSlot() Slot {
	return Slot{Description: IdleDescription, Completed: 0, Total: 1, HasTotal: true}
}
