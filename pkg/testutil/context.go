package testutil

import (
	"net/http"
	"time"

	id "atrium/pkg/domain"
	"atrium/pkg/requestcontext"
)

// WithPrincipal stamps the request context the way the auth middleware would
// for an authenticated caller.
func WithPrincipal(req *http.Request, principalID id.PrincipalID, tenantID id.TenantID, role id.Role) *http.Request {
	ctx := requestcontext.WithPrincipalID(req.Context(), principalID)
	ctx = requestcontext.WithTenantID(ctx, tenantID)
	ctx = requestcontext.WithRole(ctx, role)
	return req.WithContext(ctx)
}

// WithRequestTime pins the request-scoped clock, letting tests control what
// services read via requestcontext.Now.
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}

// WithRequestID adds a request ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
