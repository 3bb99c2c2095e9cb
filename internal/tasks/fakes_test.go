package tasks

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmd/internal/models"
	"github.com/desertthunder/ytmd/internal/services"
	"github.com/desertthunder/ytmd/internal/shared"
)

const fakeMediaSize = 20 * 1024

func discardLogger() *log.Logger {
	return log.New(io.Discard)
}

// syncBuffer serializes writes from loggers derived with With, which do not share a lock.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// bufferLogger returns a logger writing into a buffer safe to read after the run.
func bufferLogger() (*log.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	logger := log.NewWithOptions(buf, log.Options{Level: log.DebugLevel})
	return logger, buf
}

// sleepRecorder is a [shared.SleepFunc] that records waits instead of sleeping.
type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.waits)
}

func testPolicy(s *sleepRecorder) shared.Policy {
	p := shared.DefaultPolicy()
	p.Sleep = s.sleep
	p.Jitter = func() float64 { return 0 }
	return p
}

// fakeSource implements [services.MediaSource].
type fakeSource struct {
	mu       sync.Mutex
	probes   map[string]*models.Probe
	probeErr map[string]error
	meta     map[string]models.TrackMetadata
	failures map[string]int // remaining Fetch failures per reference
	size     int
	fetches  map[string]int
	progress [][2]int64 // byte callbacks sent before writing the file
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		probes:   map[string]*models.Probe{},
		probeErr: map[string]error{},
		meta:     map[string]models.TrackMetadata{},
		failures: map[string]int{},
		fetches:  map[string]int{},
		size:     fakeMediaSize,
	}
}

func (f *fakeSource) Probe(ctx context.Context, ref string) (*models.Probe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.probeErr[ref]; ok {
		return nil, err
	}
	if p, ok := f.probes[ref]; ok {
		return p, nil
	}
	return &models.Probe{Title: ref}, nil
}

func (f *fakeSource) Fetch(ctx context.Context, ref, dir string, progress services.ByteProgress) (*services.Download, error) {
	f.mu.Lock()
	f.fetches[ref]++
	fail := f.failures[ref] > 0
	if fail {
		f.failures[ref]--
	}
	meta, ok := f.meta[ref]
	size := f.size
	steps := f.progress
	f.mu.Unlock()

	if fail {
		return nil, fmt.Errorf("%w: simulated network error", shared.ErrAcquireFailed)
	}
	if !ok {
		meta = models.TrackMetadata{ID: ref, Title: "Song", Artist: "Artist"}
	}

	for _, step := range steps {
		progress(step[0], step[1])
	}

	path := filepath.Join(dir, "media.webm")
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		return nil, err
	}
	return &services.Download{Path: path, Size: int64(size), Metadata: meta}, nil
}

func (f *fakeSource) fetchCount(ref string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[ref]
}

// fakeTranscoder implements [services.Transcoder] by writing a zero-filled file.
type fakeTranscoder struct {
	missing bool
	err     error
	size    int
}

func (f *fakeTranscoder) Transcode(ctx context.Context, src, dst string) error {
	if f.missing {
		return fmt.Errorf("%w: ffmpeg", shared.ErrTranscoderMissing)
	}
	if f.err != nil {
		return f.err
	}
	size := f.size
	if size == 0 {
		size = fakeMediaSize
	}
	return os.WriteFile(dst, make([]byte, size), 0o644)
}

type tagCall struct {
	path  string
	track models.EnrichedTrack
	opts  services.TagOptions
}

// fakeTagger implements [services.Tagger] by recording calls.
type fakeTagger struct {
	mu    sync.Mutex
	calls []tagCall
	err   error
}

func (f *fakeTagger) WriteTags(path string, track models.EnrichedTrack, opts services.TagOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, tagCall{path: path, track: track, opts: opts})
	return f.err
}

func (f *fakeTagger) recorded() []tagCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]tagCall, len(f.calls))
	copy(out, f.calls)
	return out
}

type fakeLyrics struct {
	candidates []models.LyricsCandidate
	err        error
	queries    []services.LyricsQuery
}

func (f *fakeLyrics) SearchLyrics(ctx context.Context, q services.LyricsQuery) ([]models.LyricsCandidate, error) {
	f.queries = append(f.queries, q)
	return f.candidates, f.err
}

type fakeArtwork struct {
	url string
	err error
}

func (f *fakeArtwork) FindArtwork(ctx context.Context, q services.ArtworkQuery) (string, error) {
	return f.url, f.err
}

type fakeDownloader struct {
	failures int
	calls    int
	urls     []string
}

func (f *fakeDownloader) Download(ctx context.Context, url string) ([]byte, string, error) {
	f.calls++
	f.urls = append(f.urls, url)
	if f.failures > 0 {
		f.failures--
		return nil, "", fmt.Errorf("%w: timeout", shared.ErrAPIRequest)
	}
	return []byte{0xff, 0xd8, 0xff}, "image/jpeg", nil
}

type fakeProber struct {
	seconds float64
	err     error
}

func (f *fakeProber) Duration(ctx context.Context, path string) (float64, error) {
	return f.seconds, f.err
}

type fakeRecorder struct {
	mu     sync.Mutex
	tracks []models.EnrichedTrack
	err    error
}

func (f *fakeRecorder) Record(runID string, item models.WorkItem, track models.EnrichedTrack) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tracks = append(f.tracks, track)
	return f.err
}

// checkingSink wraps an [Aggregator] and verifies its invariants after every call.
type checkingSink struct {
	t   *testing.T
	agg *Aggregator

	mu          sync.Mutex
	lastOverall int
	advances    int
	hadTotal    map[int]bool
	violations  []string
}

func newCheckingSink(t *testing.T, workers, total int) *checkingSink {
	return &checkingSink{t: t, agg: NewAggregator(workers, total), hadTotal: map[int]bool{}}
}

func (c *checkingSink) UpdateSlot(worker int, u SlotUpdate) {
	c.agg.UpdateSlot(worker, u)
	c.check()
}

func (c *checkingSink) IdleSlot(worker int) {
	c.agg.IdleSlot(worker)
	c.check()
}

func (c *checkingSink) AdvanceOverall(n int) {
	c.mu.Lock()
	c.advances += n
	c.mu.Unlock()
	c.agg.AdvanceOverall(n)
	c.check()
}

// check snapshots under c.mu so successive snapshots are observed in order.
func (c *checkingSink) check() {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := c.agg.Snapshot()

	for i, s := range snap.Slots {
		if s.HasTotal && s.Completed > s.Total {
			c.violations = append(c.violations, fmt.Sprintf("slot %d completed %d > total %d", i, s.Completed, s.Total))
		}
		if c.hadTotal[i] && !s.HasTotal {
			c.violations = append(c.violations, fmt.Sprintf("slot %d lost its total", i))
		}
		c.hadTotal[i] = c.hadTotal[i] || s.HasTotal
	}
	if snap.Overall < c.lastOverall {
		c.violations = append(c.violations, fmt.Sprintf("overall decreased from %d to %d", c.lastOverall, snap.Overall))
	}
	if snap.Overall > snap.OverallTotal {
		c.violations = append(c.violations, fmt.Sprintf("overall %d exceeds total %d", snap.Overall, snap.OverallTotal))
	}
	c.lastOverall = max(c.lastOverall, snap.Overall)
}

func (c *checkingSink) assertClean() {
	c.t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, v := range c.violations {
		c.t.Error(v)
	}
}

// mp3Files lists the .mp3 files in dir by name.
func mp3Files(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.mp3"))
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	return names
}
