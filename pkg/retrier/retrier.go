// Package retrier wraps remote calls in a bounded retry policy.
package retrier

import (
	"context"
	"time"
)

const (
	defaultDelay      = 2 * time.Second
	defaultMaxRetries = 3
)

// Retrier retries a call a bounded number of times with linearly increasing
// backoff: the wait before attempt n is n*delay. Exhausting the budget returns
// the last error to the caller.
type Retrier struct {
	delay      time.Duration
	maxRetries int
}

// Option defines a function to configure the Retrier.
type Option func(*Retrier)

// WithDelay sets the base backoff delay.
func WithDelay(d time.Duration) Option {
	return func(r *Retrier) {
		r.delay = d
	}
}

// WithMaxRetries sets the maximum number of retries after the first attempt.
func WithMaxRetries(n int) Option {
	return func(r *Retrier) {
		r.maxRetries = n
	}
}

// New creates a new Retrier with default values and optional overrides.
func New(opts ...Option) *Retrier {
	r := &Retrier{
		delay:      defaultDelay,
		maxRetries: defaultMaxRetries,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Do executes the given function with retries.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * r.delay):
			}
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}
	}

	return err
}

// DoWithData executes the given function with retries and returns a value.
func DoWithData[T any](r *Retrier, ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := r.Do(ctx, func(ctx context.Context) error {
		var e error
		result, e = fn(ctx)
		return e
	})
	return result, err
}
