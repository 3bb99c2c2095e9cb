package shared

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryHook is called after a failed attempt, before waiting for the next one.
type RetryHook func(attempt int, wait time.Duration, err error)

// Policy describes how an operation is retried.
//
// The wait after failed attempt n is Base^n seconds plus a random jitter in [0, MaxJitter).
// No wait follows the final attempt.
type Policy struct {
	Attempts  int
	Base      float64
	MaxJitter time.Duration
	Sleep     SleepFunc
	Jitter    func() float64 // Returns a value in [0, 1)
	OnRetry   RetryHook
}

// DefaultPolicy returns three attempts with a base of two seconds and up to one second of jitter.
func DefaultPolicy() Policy {
	return Policy{Attempts: 3, Base: 2, MaxJitter: time.Second}
}

// PolicyFromConfig builds a [Policy] from the download settings.
func PolicyFromConfig(cfg DownloadConfig) Policy {
	p := DefaultPolicy()
	if cfg.Attempts > 0 {
		p.Attempts = cfg.Attempts
	}
	if cfg.BackoffBase > 0 {
		p.Base = cfg.BackoffBase
	}
	if cfg.MaxJitter >= 0 {
		p.MaxJitter = time.Duration(cfg.MaxJitter * float64(time.Second))
	}
	return p
}

// Backoff returns the wait after the given failed attempt, counting from 1.
func (p Policy) Backoff(attempt int) time.Duration {
	wait := time.Duration(math.Pow(p.Base, float64(attempt)) * float64(time.Second))
	if p.MaxJitter > 0 {
		jitter := p.Jitter
		if jitter == nil {
			jitter = rand.Float64
		}
		wait += time.Duration(jitter() * float64(p.MaxJitter))
	}
	return wait
}

// Retry runs op until it succeeds or the attempt budget is spent. It returns the
// last error wrapped with [ErrAttemptsFailed], or [ErrInterrupted] when ctx is done.
func Retry[T any](ctx context.Context, p Policy, op func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	attempts := max(p.Attempts, 1)
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("%w: %w", ErrInterrupted, err)
		}

		v, err := op(ctx, attempt)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("%w: %w", ErrInterrupted, err)
		}

		wait := p.Backoff(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, wait, err)
		}
		if err := sleep(ctx, wait); err != nil {
			return zero, fmt.Errorf("%w: %w", ErrInterrupted, err)
		}
	}

	return zero, fmt.Errorf("%w after %d attempts: %w", ErrAttemptsFailed, attempts, lastErr)
}

// Sleep blocks for d or until ctx is done, returning the context error in the latter case.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
