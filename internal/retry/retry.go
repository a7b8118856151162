// Package retry implements the resilient request pipeline: a sequential
// retry loop with exponential backoff that aborts immediately on terminal
// failures. It is the only place in the system that decides retry-vs-abort;
// callers treat the result as succeeded or terminally failed.
package retry

import (
	"context"
	"errors"
	"time"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = time.Second
)

type policy struct {
	maxAttempts int
	baseDelay   time.Duration
	sleep       func(time.Duration)
	retryable   func(error) bool
}

// Option configures a Do call.
type Option func(*policy)

// WithMaxAttempts bounds the number of attempts (network round-trips).
func WithMaxAttempts(n int) Option {
	return func(p *policy) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithBaseDelay sets the first backoff delay. Subsequent delays double.
func WithBaseDelay(d time.Duration) Option {
	return func(p *policy) { p.baseDelay = d }
}

// WithSleep injects the delay function, so the policy can be tested
// without real timers.
func WithSleep(f func(time.Duration)) Option {
	return func(p *policy) { p.sleep = f }
}

// WithClassifier overrides how errors are judged retryable.
func WithClassifier(f func(error) bool) Option {
	return func(p *policy) { p.retryable = f }
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as terminal for the default classifier: Do surfaces
// it without further attempts. Callers receive the original error via
// errors.Is/As through Unwrap.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err carries the Permanent marker.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// Do runs op up to maxAttempts times. On a retryable failure it sleeps
// baseDelay * 2^attempt (1s, 2s, 4s, ...) and tries again; on a terminal
// failure, or once attempts are exhausted, it surfaces the last error.
// Attempts are strictly sequential, never fanned out. The backoff sleep is
// deliberately not cancellable; a caller that wants to abandon a sequence
// must let it run out.
func Do(ctx context.Context, op func(context.Context) error, opts ...Option) error {
	p := policy{
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		sleep:       time.Sleep,
		retryable:   func(err error) bool { return !IsPermanent(err) },
	}
	for _, o := range opts {
		o(&p)
	}

	var lastErr error
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !p.retryable(lastErr) {
			return lastErr
		}
		if attempt == p.maxAttempts-1 {
			break
		}
		p.sleep(p.baseDelay << attempt)
	}
	return lastErr
}
