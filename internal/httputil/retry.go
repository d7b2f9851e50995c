// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/hongzhonglu/transcriptutorial/internal/ctxlog"
)

// RetryBaseDelay controls the base duration for exponential backoff.
// Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

const defaultMaxRetries = 5

// Transient reports whether an HTTP status is worth retrying: rate limiting
// and gateway or availability failures of the upstream service.
func Transient(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// DoWithRetry executes an HTTP request and retries transient failures with
// exponential backoff. The delay starts at RetryBaseDelay and doubles each
// attempt.
//
// Transport errors and the statuses accepted by Transient are retried; any
// other response is returned to the caller untouched. When maxRetries is 0
// the default (5) is used. If the context is cancelled during a backoff wait
// the function returns ctx.Err(). After exhausting retries the last response
// (or transport error) is returned so the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	log := ctxlog.FromContext(ctx)

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) || attempt >= maxRetries {
				return nil, err
			}
			log.Warn("request failed, retrying", "url", req.URL.String(), "attempt", attempt+1, "error", err)
		} else {
			if !Transient(resp.StatusCode) || attempt >= maxRetries {
				return resp, nil
			}
			// Drain and close the body before retrying.
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			log.Warn("transient status, retrying", "url", req.URL.String(), "status", resp.StatusCode, "attempt", attempt+1)
		}

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}
