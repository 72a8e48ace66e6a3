package http

import (
	"net/http"

	"github.com/oshokin/tube-grabber/internal/utils"
)

// UserAgentInjector is an http.RoundTripper that sets the User-Agent header when a request has none.
type UserAgentInjector struct {
	// next is the underlying HTTP round tripper.
	next http.RoundTripper
	// userAgentProvider provides the User-Agent string to inject.
	userAgentProvider utils.UserAgentProvider
}

// userAgentHeader is the HTTP header name for User-Agent.
const userAgentHeader = "User-Agent"

// NewUserAgentInjector creates and returns a new instance of UserAgentInjector.
func NewUserAgentInjector(next http.RoundTripper, userAgentProvider utils.UserAgentProvider) http.RoundTripper {
	return &UserAgentInjector{
		next:              next,
		userAgentProvider: userAgentProvider,
	}
}

// RoundTrip injects the User-Agent header if it is missing and forwards the request.
// The caller's request is never modified.
func (t *UserAgentInjector) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	if req.Header.Get(userAgentHeader) != "" {
		return t.next.RoundTrip(req)
	}

	cloned := req.Clone(req.Context())
	cloned.Header.Set(userAgentHeader, t.userAgentProvider.GetUserAgent())

	return t.next.RoundTrip(cloned)
}

// NewTransport builds the transport chain used by outgoing clients:
// User-Agent injection first, then debug logging, then base.
// A nil base uses http.DefaultTransport.
func NewTransport(
	base http.RoundTripper,
	userAgentProvider utils.UserAgentProvider,
	maxLogLength uint64,
) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}

	return NewUserAgentInjector(NewLogTransport(base, maxLogLength), userAgentProvider)
}
