// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	stderrors "errors"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"time"
)

// RetryConfig controls how RetryProvider backs off between attempts.
type RetryConfig struct {
	// MaxAttempts counts the first call. Values below 1 mean one attempt.
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// Jitter is the fraction of the delay randomized in both directions.
	Jitter float64
	// Retryable reports whether an error is worth another attempt.
	// Nil means IsTransient.
	Retryable func(error) bool
}

// DefaultRetryConfig returns three attempts with exponential backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2,
		Jitter:       0.1,
	}
}

var _ Provider = (*RetryProvider)(nil)

// RetryProvider retries transient failures of the wrapped provider.
type RetryProvider struct {
	next Provider
	cfg  RetryConfig
}

// WithRetry wraps p so that transient errors are retried according to cfg.
func WithRetry(p Provider, cfg RetryConfig) *RetryProvider {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 1
	}
	if cfg.Retryable == nil {
		cfg.Retryable = IsTransient
	}
	return &RetryProvider{next: p, cfg: cfg}
}

func (r *RetryProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var lastErr error
	for attempt := 0; attempt < r.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(r.backoff(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, stderrors.Join(ctx.Err(), lastErr)
			case <-timer.C:
			}
		}

		resp, err := r.next.Chat(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil || !r.cfg.Retryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

// backoff is the delay before the given attempt (1-based retry count).
func (r *RetryProvider) backoff(attempt int) time.Duration {
	d := float64(r.cfg.InitialDelay) * math.Pow(r.cfg.Multiplier, float64(attempt-1))
	if r.cfg.MaxDelay > 0 && d > float64(r.cfg.MaxDelay) {
		d = float64(r.cfg.MaxDelay)
	}
	if r.cfg.Jitter > 0 {
		d += d * r.cfg.Jitter * (2*rand.Float64() - 1)
	}
	if d < 0 {
		return 0
	}
	return time.Duration(d)
}

// IsTransient reports whether err looks like a temporary failure:
// a network error, a rate limit or a server-side status.
func IsTransient(err error) bool {
	if err == nil || stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var status *StatusError
	if stderrors.As(err, &status) {
		return status.StatusCode == http.StatusTooManyRequests || status.StatusCode >= 500
	}
	var netErr net.Error
	return stderrors.As(err, &netErr)
}
