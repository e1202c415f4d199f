package main

import (
	"time"

	"github.com/dayfold/dayfold/internal/types"
)

const maxRetries = 3

// withRetry re-runs fn on retryable store failures with a short backoff.
// The engine never retries internally; this is the calling boundary where
// lost optimistic-concurrency races get another chance.
func withRetry(fn func() error) error {
	var err error
	backoff := 50 * time.Millisecond
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}
		err = fn()
		if err == nil || !types.IsRetryable(err) {
			return err
		}
	}
	return err
}
