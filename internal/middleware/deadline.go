package middleware

import (
	"context"
	"net/http"
	"time"
)

// Deadline bounds the request context by d. Unlike chi's Timeout it writes
// nothing itself; handlers map context.DeadlineExceeded to their own response.
// A non-positive d disables it.
func Deadline(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
