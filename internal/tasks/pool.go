package tasks

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmd/internal/models"
	"github.com/desertthunder/ytmd/internal/shared"
)

// Processor runs one attempt for a work item.
type Processor interface {
	Process(ctx context.Context, item models.WorkItem, attempt int, logger *log.Logger, report func(SlotUpdate)) (*models.EnrichedTrack, error)
}

// TrackRecorder persists produced tracks.
//
// Implementations include repositories.TrackCatalogAdapter. Errors are logged and ignored.
type TrackRecorder interface {
	Record(runID string, item models.WorkItem, track models.EnrichedTrack) error
}

// PoolOptions configure a [Pool].
type PoolOptions struct {
	Workers int
	Policy  shared.Policy
	RunID   string
}

// Pool runs a fixed number of symmetric workers over a [TaskQueue].
type Pool struct {
	processor Processor
	queue     *TaskQueue
	sink      ProgressSink
	recorder  TrackRecorder
	logger    *log.Logger
	opts      PoolOptions

	mu       sync.Mutex
	outcomes []models.ItemOutcome
}

// NewPool creates a pool. sink may be nil.
func NewPool(processor Processor, queue *TaskQueue, sink ProgressSink, logger *log.Logger, opts PoolOptions) *Pool {
	if sink == nil {
		sink = NopSink{}
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Policy.Attempts < 1 {
		opts.Policy = shared.DefaultPolicy()
	}
	if opts.RunID == "" {
		opts.RunID = shared.GenerateID()
	}
	return &Pool{processor: processor, queue: queue, sink: sink, logger: logger, opts: opts}
}

// SetRecorder registers a recorder for successfully produced tracks.
func (p *Pool) SetRecorder(r TrackRecorder) {
	p.recorder = r
}

// Run starts the workers and blocks until the queue is exhausted and every taken item is done.
//
// When ctx is cancelled workers stop taking items; untaken items are reported as skipped.
func (p *Pool) Run(ctx context.Context) *models.RunReport {
	report := &models.RunReport{RunID: p.opts.RunID, Started: time.Now()}

	var wg sync.WaitGroup
	for id := range p.opts.Workers {
		wg.Add(1)
		go p.worker(ctx, &wg, id)
	}
	wg.Wait()

	for _, item := range p.queue.Drain() {
		p.addOutcome(models.ItemOutcome{Item: item, Status: models.StatusSkipped, Err: shared.ErrInterrupted})
	}
	p.queue.Join()

	report.Finished = time.Now()
	report.Outcomes = p.sortedOutcomes()
	return report
}

// worker takes items until the queue is empty or ctx is done.
func (p *Pool) worker(ctx context.Context, wg *sync.WaitGroup, id int) {
	defer wg.Done()
	defer p.sink.IdleSlot(id)

	logger := p.logger.With("worker", id)
	for {
		if ctx.Err() != nil {
			return
		}

		item, ok := p.queue.TryTake()
		if !ok {
			return
		}

		outcome := p.processItem(ctx, id, item, logger.With("item", item.Label()))
		p.addOutcome(outcome)
		p.sink.AdvanceOverall(1)

		if err := p.queue.MarkDone(item); err != nil {
			logger.Error("queue bookkeeping", "error", err)
		}
	}
}

// processItem runs the pipeline under the retry policy and logs the outcome exactly once.
func (p *Pool) processItem(ctx context.Context, id int, item models.WorkItem, logger *log.Logger) models.ItemOutcome {
	start := time.Now()
	report := func(u SlotUpdate) { p.sink.UpdateSlot(id, u) }

	attempts := 0
	policy := p.opts.Policy
	policy.OnRetry = func(attempt int, wait time.Duration, err error) {
		logger.Warn("attempt failed, retrying",
			"attempt", attempt,
			"max_attempts", policy.Attempts,
			"stage", failedStage(err),
			"wait", wait.Round(time.Millisecond),
			"error", err,
		)
	}

	track, err := shared.Retry(ctx, policy, func(ctx context.Context, attempt int) (*models.EnrichedTrack, error) {
		attempts = attempt
		return p.processor.Process(ctx, item, attempt, logger, report)
	})

	outcome := models.ItemOutcome{Item: item, Attempts: attempts, Elapsed: time.Since(start)}
	switch {
	case err == nil:
		outcome.Status = models.StatusSucceeded
		outcome.Track = track
		logger.Info("completed", "path", track.Path, "attempts", attempts)
		p.record(item, track, logger)
	case errors.Is(err, shared.ErrInterrupted) || ctx.Err() != nil:
		outcome.Status = models.StatusInterrupted
		outcome.Err = err
		logger.Warn("interrupted", "stage", failedStage(err))
	default:
		outcome.Status = models.StatusAbandoned
		outcome.Err = err
		logger.Error("abandoned", "attempts", attempts, "stage", failedStage(err), "error", err)
	}
	return outcome
}

func (p *Pool) record(item models.WorkItem, track *models.EnrichedTrack, logger *log.Logger) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.Record(p.opts.RunID, item, *track); err != nil {
		logger.Debug("could not record track", "error", err)
	}
}

func (p *Pool) addOutcome(o models.ItemOutcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outcomes = append(p.outcomes, o)
}

// sortedOutcomes orders outcomes by destination directory, then ordinal.
func (p *Pool) sortedOutcomes() []models.ItemOutcome {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]models.ItemOutcome, len(p.outcomes))
	copy(out, p.outcomes)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Item.Dir != out[j].Item.Dir {
			return out[i].Item.Dir < out[j].Item.Dir
		}
		return out[i].Item.Ordinal < out[j].Item.Ordinal
	})
	return out
}

func failedStage(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage.String()
	}
	return ""
}
