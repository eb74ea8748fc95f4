// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/paperxai/internal/retry"
)

// throttledError signals a retryable status; it carries the response so the
// final one can be handed back to the caller.
type throttledError struct {
	resp *http.Response
}

func (e *throttledError) Error() string {
	return fmt.Sprintf("server busy: HTTP %d", e.resp.StatusCode)
}

// IsThrottled reports whether the status code asks the client to back off.
func IsThrottled(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable
}

// DoWithRetry executes an HTTP request and retries on HTTP 429 (Too Many
// Requests) and 503 (Service Unavailable), waiting according to policy
// between attempts. Transport errors are returned immediately.
//
// Throttled response bodies are drained and closed before the next attempt.
// If the context is cancelled during a backoff wait the function returns
// ctx.Err(). After exhausting attempts the last throttled response is
// returned so the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, policy retry.Policy) (*http.Response, error) {
	var last *http.Response

	resp, err := retry.DoValue(ctx, policy, func(ctx context.Context) (*http.Response, error) {
		if last != nil {
			io.Copy(io.Discard, last.Body)
			last.Body.Close()
			last = nil
		}

		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, retry.Permanent(err)
		}
		if IsThrottled(resp.StatusCode) {
			last = resp
			return nil, &throttledError{resp: resp}
		}
		return resp, nil
	})
	if err != nil {
		if last != nil && ctx.Err() == nil {
			return last, nil
		}
		if last != nil {
			last.Body.Close()
		}
		return nil, err
	}
	return resp, nil
}
