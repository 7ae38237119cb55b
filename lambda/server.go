package lambda

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/lambdacontext"
)

// Manifest is the build-time descriptor handed to the server factory.
type Manifest struct {
	// Raw is the routing and asset manifest produced by the framework, as JSON.
	Raw []byte
	// Prerendered is the set of paths that have a prerendered page.
	Prerendered map[string]struct{}
	// Base is the base path the application is served under.
	Base string
}

// IsPrerendered reports whether path has a prerendered page.
func (m Manifest) IsPrerendered(path string) bool {
	_, ok := m.Prerendered[path]

	return ok
}

// RespondOptions carries invocation data to Server.Respond.
type RespondOptions struct {
	// Platform is the Lambda invocation context, nil outside Lambda.
	Platform *lambdacontext.LambdaContext
	// ClientAddress resolves the address of the original client.
	ClientAddress func(r *http.Request) string
}

// Server is the application server driven by the adapter.
type Server interface {
	// Init prepares the server with the function environment. It is called once.
	Init(ctx context.Context, env map[string]string) error
	// Respond answers one request.
	Respond(ctx context.Context, r *http.Request, opts RespondOptions) (*http.Response, error)
}

// Factory constructs a server from the build manifest.
type Factory func(m Manifest) (Server, error)

// TrustPolicy decides whether x-forwarded-host overrides the request host.
type TrustPolicy int

const (
	// TrustForwardedHost honors x-forwarded-host. The upstream router is
	// assumed to have validated or stripped the header.
	TrustForwardedHost TrustPolicy = iota
	// IgnoreForwardedHost keeps the host the event was addressed to.
	IgnoreForwardedHost
)

// String returns the policy name.
func (p TrustPolicy) String() string {
	if p == IgnoreForwardedHost {
		return "ignore-forwarded-host"
	}

	return "trust-forwarded-host"
}
