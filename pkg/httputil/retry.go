package httputil

import (
	"context"
	"errors"
	"net"
	"net/url"
	"os"
	"time"
)

// RetryableError wraps an error to indicate it should trigger a retry.
// Wrap transient failures (request timeouts) with this type so that
// [Retry] knows to attempt the operation again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry executes fn up to attempts times with a fixed delay between
// attempts. It only retries errors wrapped with [RetryableError]; other
// errors are returned immediately. Returns the last error if all attempts
// fail, or ctx.Err() if cancelled while waiting.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := 0; i < attempts; i++ {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !isRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return lastErr
}

func isRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// IsTimeout reports whether err is a network timeout: a net.Error with
// Timeout() true, a deadline-exceeded error, or a url.Error wrapping one.
// Timeouts are the only transport failures worth retrying; connection
// refusals and DNS errors fail the same way on the next attempt.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	var ue *url.Error
	return errors.As(err, &ue) && ue.Timeout()
}
