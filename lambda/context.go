package lambda

import (
	"context"
	"net/http"
	"strings"
)

type respondOptionsKey struct{}

// WithRespondOptions returns a copy of ctx carrying opts.
func WithRespondOptions(ctx context.Context, opts RespondOptions) context.Context {
	return context.WithValue(ctx, respondOptionsKey{}, opts)
}

// RespondOptionsFromContext returns the options stored by WithRespondOptions.
func RespondOptionsFromContext(ctx context.Context) (RespondOptions, bool) {
	opts, ok := ctx.Value(respondOptionsKey{}).(RespondOptions)

	return opts, ok
}

// ClientAddress returns the original client address of r, falling back to
// r.RemoteAddr when the request was not produced by the adapter.
func ClientAddress(r *http.Request) string {
	if opts, ok := RespondOptionsFromContext(r.Context()); ok && opts.ClientAddress != nil {
		return opts.ClientAddress(r)
	}

	return r.RemoteAddr
}

// clientAddressResolver prefers the leftmost x-forwarded-for entry over sourceIP.
func clientAddressResolver(sourceIP string) func(r *http.Request) string {
	return func(r *http.Request) string {
		forwarded := r.Header.Get(headerForwardedFor)
		if forwarded == "" {
			return sourceIP
		}

		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}

		return sourceIP
	}
}
