package tasks

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/ytmd/internal/models"
	"github.com/desertthunder/ytmd/internal/shared"
	tu "github.com/desertthunder/ytmd/internal/testing"
)

func newTestResolver(t *testing.T, source *fakeSource) (*Resolver, string, *sleepRecorder) {
	t.Helper()
	out := t.TempDir()
	sleeps := &sleepRecorder{}
	return NewResolver(source, out, testPolicy(sleeps), discardLogger()), out, sleeps
}

func TestResolver(t *testing.T) {
	t.Run("Collection Ordinals Are Dense", func(t *testing.T) {
		source := newFakeSource()
		source.probes["pl"] = &models.Probe{
			IsCollection: true,
			Title:        "Road Trip: 2024!",
			Entries: []models.ProbeEntry{
				{ID: "a", Title: "First"},
				{},
				{ID: "b", Title: "Second"},
				{ID: ""},
				{ID: "c", Title: "Third"},
			},
		}
		r, out, _ := newTestResolver(t, source)

		items, err := r.Resolve(context.Background(), "pl")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(items) != 3 {
			t.Fatalf("expected 3 items, got %d", len(items))
		}

		wantDir := filepath.Join(out, "Road Trip 2024")
		tu.AssertDirExists(t, wantDir)

		seen := map[int]bool{}
		for i, item := range items {
			if item.Ordinal != i+1 || item.Total != 3 {
				t.Errorf("item %d has ordinal %d/%d", i, item.Ordinal, item.Total)
			}
			if seen[item.Ordinal] {
				t.Errorf("duplicate ordinal %d", item.Ordinal)
			}
			seen[item.Ordinal] = true
			if item.Dir != wantDir {
				t.Errorf("expected dir %s, got %s", wantDir, item.Dir)
			}
			if err := item.Validate(); err != nil {
				t.Errorf("item %d invalid: %v", i, err)
			}
		}
		if items[1].Source != "https://www.youtube.com/watch?v=b" {
			t.Errorf("unexpected member source %s", items[1].Source)
		}
		if items[2].Hint != "Third" || items[2].Collection != "Road Trip: 2024!" {
			t.Errorf("unexpected hint/collection %+v", items[2])
		}
	})

	t.Run("Untitled Collection Uses Timestamp Folder", func(t *testing.T) {
		source := newFakeSource()
		source.probes["pl"] = &models.Probe{IsCollection: true, Title: "???", Entries: []models.ProbeEntry{{ID: "a"}}}
		r, out, _ := newTestResolver(t, source)
		r.now = func() time.Time { return time.Unix(1700000000, 0) }

		items, err := r.Resolve(context.Background(), "pl")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if want := filepath.Join(out, "Playlist_1700000000"); items[0].Dir != want {
			t.Errorf("expected %s, got %s", want, items[0].Dir)
		}
	})

	t.Run("Collection Without Valid Members", func(t *testing.T) {
		source := newFakeSource()
		source.probes["pl"] = &models.Probe{IsCollection: true, Title: "Gone", Entries: []models.ProbeEntry{{}, {}}}
		r, _, _ := newTestResolver(t, source)

		items, err := r.Resolve(context.Background(), "pl")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(items) != 0 {
			t.Errorf("expected no items, got %d", len(items))
		}
	})

	t.Run("Single Track Gets Its Own Folder", func(t *testing.T) {
		source := newFakeSource()
		source.probes["v"] = &models.Probe{Title: "Daft Punk - One More Time"}
		r, out, _ := newTestResolver(t, source)

		items, err := r.Resolve(context.Background(), "v")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(items) != 1 || items[0].Ordinal != 1 || items[0].Total != 1 {
			t.Fatalf("expected one 1/1 item, got %+v", items)
		}
		if want := filepath.Join(out, "Daft Punk - One More Time"); items[0].Dir != want {
			t.Errorf("expected %s, got %s", want, items[0].Dir)
		}
		if items[0].Source != "v" {
			t.Errorf("expected the reference to be kept, got %s", items[0].Source)
		}
	})

	t.Run("Untitled Single Goes To Singles", func(t *testing.T) {
		source := newFakeSource()
		source.probes["v"] = &models.Probe{}
		r, out, _ := newTestResolver(t, source)

		items, _ := r.Resolve(context.Background(), "v")
		if want := filepath.Join(out, SinglesFolder); items[0].Dir != want {
			t.Errorf("expected %s, got %s", want, items[0].Dir)
		}
	})

	t.Run("Probe Failure Degrades To A Single Item", func(t *testing.T) {
		source := newFakeSource()
		source.probeErr["bad"] = fmt.Errorf("%w: extractor error", shared.ErrProbeFailed)
		r, out, sleeps := newTestResolver(t, source)

		items, err := r.Resolve(context.Background(), "bad")
		if err != nil {
			t.Fatalf("expected fallback instead of error, got %v", err)
		}
		if len(items) != 1 || items[0].Source != "bad" || items[0].Ordinal != 1 || items[0].Total != 1 {
			t.Fatalf("unexpected fallback items %+v", items)
		}
		if want := filepath.Join(out, SinglesFolder); items[0].Dir != want {
			t.Errorf("expected %s, got %s", want, items[0].Dir)
		}
		if sleeps.count() != 2 {
			t.Errorf("expected the probe to be retried with 2 waits, got %d", sleeps.count())
		}
	})

	t.Run("ResolveAll Continues Past Failures", func(t *testing.T) {
		source := newFakeSource()
		source.probeErr["bad"] = errors.New("boom")
		source.probes["pl"] = &models.Probe{IsCollection: true, Title: "Mix", Entries: []models.ProbeEntry{{ID: "a"}, {ID: "b"}}}
		source.probes["v"] = &models.Probe{Title: "Solo"}
		r, _, _ := newTestResolver(t, source)

		items, err := r.ResolveAll(context.Background(), []string{"bad", "pl", "v"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(items) != 4 {
			t.Fatalf("expected 4 items, got %d", len(items))
		}
		if items[0].Source != "bad" || items[3].Source != "v" {
			t.Errorf("expected input order to be kept, got %s ... %s", items[0].Source, items[3].Source)
		}
	})

	t.Run("ResolveAll Stops When Cancelled", func(t *testing.T) {
		r, _, _ := newTestResolver(t, newFakeSource())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := r.ResolveAll(ctx, []string{"v"}); !errors.Is(err, shared.ErrInterrupted) {
			t.Errorf("expected ErrInterrupted, got %v", err)
		}
	})

	t.Run("Concurrent Resolutions Share A Folder", func(t *testing.T) {
		source := newFakeSource()
		source.probes["pl"] = &models.Probe{IsCollection: true, Title: "Same", Entries: []models.ProbeEntry{{ID: "a"}}}
		r, _, _ := newTestResolver(t, source)

		var wg sync.WaitGroup
		errs := make(chan error, 8)
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := r.Resolve(context.Background(), "pl"); err != nil {
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			t.Errorf("concurrent resolution failed: %v", err)
		}
	})
}

func TestValidMembers(t *testing.T) {
	got := ValidMembers([]models.ProbeEntry{{ID: "a"}, {}, {ID: "b"}})
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("unexpected members %+v", got)
	}
}
