package server

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// TimeoutMiddleware bounds the whole request, streaming included. Handlers
// see the deadline through r.Context() and stop cooperatively; requests that
// ran out of time are marked in the request log.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				AddLogField(r.Context(), "timed_out", "true")
			}
		})
	}
}
