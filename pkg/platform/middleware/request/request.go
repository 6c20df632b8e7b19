// Package request assigns each HTTP request a correlation ID.
package request

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"atrium/pkg/requestcontext"
)

// HeaderRequestID is honored when set by an upstream proxy, otherwise a fresh
// ID is generated.
const HeaderRequestID = "X-Request-Id"

// Middleware ensures every request carries a correlation ID in context and in
// the response headers.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request correlation ID from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
