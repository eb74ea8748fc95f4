// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retry wraps network call sites with a bounded, randomized
// exponential backoff policy.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/pdiddy/paperxai/pkg/types"
)

// Defaults applied to zero-valued Policy fields.
const (
	DefaultMaxAttempts = 3
	DefaultMinDelay    = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
)

// Policy describes how often and how long to retry a failing call.
type Policy struct {
	// MaxAttempts is the total number of attempts, the first one included.
	MaxAttempts int

	// MinDelay is the smallest wait between attempts.
	MinDelay time.Duration

	// MaxDelay caps the wait between attempts.
	MaxDelay time.Duration

	// Jitter returns a value in [0, 1). Nil uses math/rand/v2.
	Jitter func() float64

	// OnRetry, when set, is called before each wait.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// FromConfig builds a Policy from the retry section of the config.
func FromConfig(cfg types.RetryConfig) Policy {
	return Policy{
		MaxAttempts: cfg.MaxAttempts,
		MinDelay:    cfg.MinDelay,
		MaxDelay:    cfg.MaxDelay,
	}
}

func (p Policy) maxAttempts() int {
	if p.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return p.MaxAttempts
}

func (p Policy) bounds() (time.Duration, time.Duration) {
	lo, hi := p.MinDelay, p.MaxDelay
	if lo <= 0 {
		lo = DefaultMinDelay
	}
	if hi <= 0 {
		hi = DefaultMaxDelay
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// Backoff returns the wait after the given number of failed attempts
// (1-based). The ceiling doubles per attempt from 2×MinDelay and is capped at
// MaxDelay; the wait is drawn uniformly between MinDelay and that ceiling.
func (p Policy) Backoff(attempt int) time.Duration {
	lo, hi := p.bounds()
	if attempt < 1 {
		attempt = 1
	}

	ceiling := lo
	for i := 0; i < attempt && ceiling < hi; i++ {
		ceiling *= 2
	}
	if ceiling > hi {
		ceiling = hi
	}

	jitter := p.Jitter
	if jitter == nil {
		jitter = rand.Float64
	}
	return lo + time.Duration(jitter()*float64(ceiling-lo))
}

// permanentError marks an error that must not be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so that Do returns it without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// Do calls op until it succeeds, returns a permanent error, the context is
// done, or the policy's attempts are exhausted. The last error is returned
// wrapped with the attempt count.
func Do(ctx context.Context, p Policy, op func(context.Context) error) error {
	_, err := DoValue(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	var zero T
	attempts := p.maxAttempts()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if IsPermanent(err) {
			var pe *permanentError
			errors.As(err, &pe)
			return zero, pe.err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}
		lastErr = err

		if attempt == attempts {
			break
		}

		delay := p.Backoff(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}
	return zero, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}
