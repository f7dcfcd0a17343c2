package middleware

import (
	"context"
	"net/http"
	"time"
)

// Deadline bounds the request context so that queries run by the handler are
// cancelled after d. A zero d leaves the request untouched.
func Deadline(d time.Duration) Middleware {
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
