// Package jobcontext carries per-job metadata and the retry policy for
// background work spawned off a call's lifecycle, such as archiving the
// final report once the call ends.
package jobcontext

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ctxKey string

const (
	keyCallID  ctxKey = "call_id"
	keyJobType ctxKey = "job_type"
)

const (
	jobTimeout = 5 * time.Minute
	maxRetries = 3
)

// retryBaseDelay is the backoff unit between attempts
var retryBaseDelay = 5 * time.Second

// JobBegin derives a context for a call-scoped background job. The
// returned context carries the call ID and a job type label, and
// expires after the job timeout.
func JobBegin(parentCtx context.Context, callID uuid.UUID, jobType string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parentCtx, jobTimeout)
	ctx = context.WithValue(ctx, keyCallID, callID)
	ctx = context.WithValue(ctx, keyJobType, jobType)
	return ctx, cancel
}

// JobEnd executes the job function, retrying transient failures with
// exponential backoff and recovering panics into errors.
func JobEnd(ctx context.Context, jobFunc func(context.Context) error) error {
	var err error

	for attempt := 0; attempt < maxRetries; attempt++ {
		func() {
			defer func() {
				if p := recover(); p != nil {
					err = fmt.Errorf("panic recovered: %v", p)
				}
			}()

			if ctx.Err() != nil {
				err = fmt.Errorf("context cancelled before job execution: %w", ctx.Err())
				return
			}

			err = jobFunc(ctx)
		}()

		if err == nil {
			return nil
		}

		if !IsRetryableError(err) {
			return fmt.Errorf("%s job for call %s: non-retryable error: %w", JobType(ctx), CallID(ctx), err)
		}

		if attempt == maxRetries-1 {
			break
		}

		if ctx.Err() != nil {
			return fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		}

		// 2^attempt * base delay
		time.Sleep(time.Duration(1<<uint(attempt+1)) * retryBaseDelay)
	}

	return fmt.Errorf("%s job for call %s failed after %d attempts: %w", JobType(ctx), CallID(ctx), maxRetries, err)
}

// CallID returns the call the job belongs to, or uuid.Nil
func CallID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(keyCallID).(uuid.UUID)
	return id
}

// JobType returns the job type label, or "unknown"
func JobType(ctx context.Context) string {
	if t, ok := ctx.Value(keyJobType).(string); ok {
		return t
	}
	return "unknown"
}

// IsRetryableError checks if an error should trigger a retry.
// Retryable errors include: network errors, timeouts, Postgres
// serialization failures, rate limits, and upstream 5xx responses.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	// Context errors (timeout, cancelled)
	if strings.Contains(errStr, "context deadline exceeded") ||
		strings.Contains(errStr, "context canceled") {
		return true
	}

	// Network errors
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "network unreachable") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "i/o timeout") {
		return true
	}

	// Database deadlock/lock errors (Postgres)
	if strings.Contains(errStr, "deadlock") ||
		strings.Contains(errStr, "40001") || // serialization_failure
		strings.Contains(errStr, "40p01") { // deadlock_detected
		return true
	}

	// Rate limiting from the storage or generation backends
	if strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "slow down") ||
		strings.Contains(errStr, "429") {
		return true
	}

	// Server errors (5xx)
	if strings.Contains(errStr, "status 5") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "service unavailable") ||
		strings.Contains(errStr, "bad gateway") {
		return true
	}

	// Temporary failures
	if strings.Contains(errStr, "temporary failure") ||
		strings.Contains(errStr, "try again") {
		return true
	}

	return false
}
