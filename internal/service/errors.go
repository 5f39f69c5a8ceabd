package service

import "github.com/tiltedtrades/trades-api/internal/middleware"

// logPartialFailure records a best-effort side operation that failed.
// Partial failures are logged and swallowed; they never become the
// requested operation's overall failure.
func logPartialFailure(op, key string, err error) {
	middleware.LogError("%s failed for %s: %v", op, key, err)
}
