package tasks

import (
	"math/rand/v2"
	"sync"
	"testing"
)

func TestAggregator(t *testing.T) {
	t.Run("Slots Start Idle", func(t *testing.T) {
		snap := NewAggregator(3, 10).Snapshot()

		if len(snap.Slots) != 3 {
			t.Fatalf("expected 3 slots, got %d", len(snap.Slots))
		}
		for i, s := range snap.Slots {
			if s.Description != IdleDescription || s.Completed != 0 || s.Total != 1 {
				t.Errorf("slot %d not idle: %+v", i, s)
			}
		}
		if snap.Overall != 0 || snap.OverallTotal != 10 {
			t.Errorf("unexpected overall %d/%d", snap.Overall, snap.OverallTotal)
		}
	})

	t.Run("Partial Updates", func(t *testing.T) {
		a := NewAggregator(1, 1)
		a.UpdateSlot(0, Describe("downloading").WithTotal(1000).WithCompleted(10))
		a.UpdateSlot(0, SlotUpdate{}.WithCompleted(500))

		s := a.Snapshot().Slots[0]
		if s.Description != "downloading" {
			t.Errorf("expected description to be kept, got %q", s.Description)
		}
		if s.Completed != 500 || s.Total != 1000 {
			t.Errorf("expected 500/1000, got %d/%d", s.Completed, s.Total)
		}

		a.UpdateSlot(0, Describe("converting"))
		if s := a.Snapshot().Slots[0]; s.Completed != 500 || s.Total != 1000 || s.Description != "converting" {
			t.Errorf("unexpected slot after description update %+v", s)
		}
	})

	t.Run("Total Never Reverts", func(t *testing.T) {
		a := NewAggregator(1, 1)
		a.UpdateSlot(0, SlotUpdate{}.WithTotal(100))
		a.UpdateSlot(0, SlotUpdate{}.WithTotal(0))
		a.UpdateSlot(0, SlotUpdate{}.WithTotal(-5))

		if s := a.Snapshot().Slots[0]; !s.HasTotal || s.Total != 100 {
			t.Errorf("expected total to stay 100, got %+v", s)
		}
	})

	t.Run("Completed Clamped To Total", func(t *testing.T) {
		a := NewAggregator(1, 1)
		a.UpdateSlot(0, SlotUpdate{}.WithTotal(100).WithCompleted(250))
		if s := a.Snapshot().Slots[0]; s.Completed != 100 {
			t.Errorf("expected completed clamped to 100, got %d", s.Completed)
		}

		a.UpdateSlot(0, SlotUpdate{}.WithTotal(40))
		if s := a.Snapshot().Slots[0]; s.Completed != 40 {
			t.Errorf("expected completed clamped to a lowered total, got %d", s.Completed)
		}

		a.UpdateSlot(0, SlotUpdate{}.WithCompleted(-3))
		if s := a.Snapshot().Slots[0]; s.Completed != 0 {
			t.Errorf("expected negative completed to clamp at 0, got %d", s.Completed)
		}
	})

	t.Run("Unknown Worker Is Ignored", func(t *testing.T) {
		a := NewAggregator(1, 1)
		a.UpdateSlot(5, Describe("nope"))
		a.IdleSlot(-1)
		if s := a.Snapshot().Slots[0]; s.Description != IdleDescription {
			t.Errorf("unexpected slot %+v", s)
		}
	})

	t.Run("IdleSlot Resets", func(t *testing.T) {
		a := NewAggregator(1, 1)
		a.UpdateSlot(0, Describe("done").WithTotal(10).WithCompleted(10))
		a.IdleSlot(0)

		s := a.Snapshot().Slots[0]
		if s.Description != IdleDescription || s.Completed != 0 || s.Total != 1 {
			t.Errorf("expected idle slot, got %+v", s)
		}
		if s.Fraction() != 0 {
			t.Errorf("expected idle fraction 0, got %v", s.Fraction())
		}
	})

	t.Run("Overall Is Capped And Monotonic", func(t *testing.T) {
		a := NewAggregator(1, 3)
		a.AdvanceOverall(2)
		a.AdvanceOverall(0)
		a.AdvanceOverall(-1)
		if got, _ := a.Overall(); got != 2 {
			t.Errorf("expected 2, got %d", got)
		}

		a.AdvanceOverall(5)
		got, total := a.Overall()
		if got != 3 || total != 3 {
			t.Errorf("expected overall capped at 3/3, got %d/%d", got, total)
		}
		if f := a.Snapshot().Fraction(); f != 1 {
			t.Errorf("expected fraction 1, got %v", f)
		}
	})

	t.Run("Snapshot Is A Copy", func(t *testing.T) {
		a := NewAggregator(1, 1)
		snap := a.Snapshot()
		snap.Slots[0].Description = "mutated"

		if a.Snapshot().Slots[0].Description != IdleDescription {
			t.Error("mutating a snapshot changed the aggregator")
		}
	})

	t.Run("Concurrent Writers Never Expose Torn Slots", func(t *testing.T) {
		const workers = 6
		const total = 1000
		a := NewAggregator(workers, total)

		var writers sync.WaitGroup
		for id := range workers {
			writers.Add(1)
			go func() {
				defer writers.Done()
				for i := range 500 {
					size := int64(100 + rand.IntN(1000))
					a.UpdateSlot(id, Describe("work").WithTotal(size).WithCompleted(int64(rand.IntN(2000))))
					if i%50 == 0 {
						a.IdleSlot(id)
					}
					a.AdvanceOverall(1)
				}
			}()
		}

		stop := make(chan struct{})
		var reader sync.WaitGroup
		reader.Add(1)
		go func() {
			defer reader.Done()
			last := 0
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := a.Snapshot()
				for i, s := range snap.Slots {
					if s.HasTotal && s.Completed > s.Total {
						t.Errorf("slot %d torn: %d > %d", i, s.Completed, s.Total)
						return
					}
				}
				if snap.Overall < last || snap.Overall > total {
					t.Errorf("overall out of order: %d after %d", snap.Overall, last)
					return
				}
				last = snap.Overall
			}
		}()

		writers.Wait()
		close(stop)
		reader.Wait()

		if got, _ := a.Overall(); got != total {
			t.Errorf("expected overall %d, got %d", total, got)
		}
	})
}

func TestNopSink(t *testing.T) {
	var sink ProgressSink = NopSink{}
	sink.UpdateSlot(0, Describe("x"))
	sink.IdleSlot(0)
	sink.AdvanceOverall(1)
}

func TestByteTracker(t *testing.T) {
	a := NewAggregator(1, 1)
	var totals []int64
	tracker := newByteTracker(func(u SlotUpdate) {
		if u.Total != nil {
			totals = append(totals, *u.Total)
		}
		a.UpdateSlot(0, u)
	})

	tracker.update(100, 0)
	tracker.update(500, 10000)
	tracker.update(400, 12000)
	tracker.update(9000, 12000)

	if len(totals) != 1 || totals[0] != 10000 {
		t.Errorf("expected the total to be sent exactly once, got %v", totals)
	}
	s := a.Snapshot().Slots[0]
	if s.Completed != 9000 || s.Total != 10000 {
		t.Errorf("expected 9000/10000, got %d/%d", s.Completed, s.Total)
	}
}
