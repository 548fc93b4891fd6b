// Package requesttime pins a single "now" per request so every timestamp a request
// writes (assignment dates, history entries, notifications) agrees.
package requesttime

import (
	"net/http"
	"time"

	"territorial/pkg/requestcontext"
)

// Middleware captures the current UTC time at the start of the request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
