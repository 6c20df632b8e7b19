// Package requesttime pins one "now" per HTTP request. All writes within a
// request (issued_at, consumed_at, delegation timestamps, audit events) then
// observe the same clock reading.
package requesttime

import (
	"net/http"
	"time"

	"atrium/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request and stores
// it in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
