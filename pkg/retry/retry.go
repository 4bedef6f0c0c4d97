// Package retry runs an operation until it succeeds, the retry budget is
// spent, or the context is done.
package retry

import (
	"context"
	"time"
)

var (
	defaultAttempts            = 4
	defaultStrategy            = ExponentialBackoff(50 * time.Millisecond)
	defaultShouldRetryFunction = func(err error) bool { return err != nil }
)

// Strategy returns the pause before the next attempt.
type Strategy func(attempt int) time.Duration

// Options configures a Retrier. Zero fields fall back to defaults.
type Options struct {
	// MaxAttempts counts every call of fn, the first one included.
	MaxAttempts int
	Strategy    Strategy
	ShouldRetry func(error) bool
	// OnRetry is called before sleeping between attempts.
	OnRetry func(attempt int, err error)
}

// Retrier runs fn with retries.
type Retrier[T any] interface {
	Do(ctx context.Context, fn func() (T, error)) (T, error)
}

type retrier[T any] struct {
	opts Options
}

// New returns a Retrier configured with opts.
func New[T any](opts Options) Retrier[T] {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultAttempts
	}
	if opts.Strategy == nil {
		opts.Strategy = defaultStrategy
	}
	if opts.ShouldRetry == nil {
		opts.ShouldRetry = defaultShouldRetryFunction
	}
	return &retrier[T]{opts: opts}
}

func (r *retrier[T]) Do(ctx context.Context, fn func() (T, error)) (T, error) {
	var zero, resp T
	var err error

	for attempt := 1; attempt <= r.opts.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		resp, err = fn()
		if err == nil {
			return resp, nil
		}

		if !r.opts.ShouldRetry(err) {
			return zero, err
		}

		if attempt == r.opts.MaxAttempts {
			break
		}
		if r.opts.OnRetry != nil {
			r.opts.OnRetry(attempt, err)
		}

		select {
		case <-time.After(r.opts.Strategy(attempt)):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	return zero, err
}
