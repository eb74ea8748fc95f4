// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paperxai/internal/observability"
	"github.com/pdiddy/paperxai/internal/retry"
)

// Retrying wraps a Provider so every call runs under a retry policy.
// Each attempt is recorded in Metrics; retries are logged at warn level.
type Retrying struct {
	Inner   Provider
	Policy  retry.Policy
	Logger  zerolog.Logger
	Metrics *observability.Metrics
}

// NewRetrying wraps p with policy.
func NewRetrying(p Provider, policy retry.Policy, logger zerolog.Logger, metrics *observability.Metrics) *Retrying {
	return &Retrying{Inner: p, Policy: policy, Logger: logger, Metrics: metrics}
}

// Name returns the wrapped provider's name.
func (r *Retrying) Name() string { return r.Inner.Name() }

// Embed embeds text, retrying transient failures.
func (r *Retrying) Embed(ctx context.Context, text string) ([]float32, error) {
	return retry.DoValue(ctx, r.policy("embed"), func(ctx context.Context) ([]float32, error) {
		began := time.Now()
		v, err := r.Inner.Embed(ctx, text)
		r.Metrics.RecordLLMCall(r.Inner.Name(), "embed", time.Since(began), err)
		return v, err
	})
}

// Chat completes prompt, retrying transient failures.
func (r *Retrying) Chat(ctx context.Context, prompt string) (string, error) {
	return retry.DoValue(ctx, r.policy("chat"), func(ctx context.Context) (string, error) {
		began := time.Now()
		v, err := r.Inner.Chat(ctx, prompt)
		r.Metrics.RecordLLMCall(r.Inner.Name(), "chat", time.Since(began), err)
		return v, err
	})
}

func (r *Retrying) policy(op string) retry.Policy {
	p := r.Policy
	next := p.OnRetry
	p.OnRetry = func(attempt int, delay time.Duration, err error) {
		r.Metrics.RecordLLMRetry(op)
		r.Logger.Warn().
			Err(err).
			Str("provider", r.Inner.Name()).
			Str("operation", op).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Msg("retrying language model call")
		if next != nil {
			next(attempt, delay, err)
		}
	}
	return p
}
