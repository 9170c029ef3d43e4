package middleware

import (
	"net/http"
	"time"
)

// Timeout bounds handler time. Provider calls carry their own client timeout,
// which should stay below this one so callers see the upstream error instead.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	message := string(errorBody("REQUEST_TIMEOUT", "request timed out"))

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, message)
	}
}
