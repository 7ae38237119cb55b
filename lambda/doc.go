// Package lambda runs an application server behind AWS Lambda.
//
// The generated entry of a packaged build calls Start with a Factory for the
// server and the manifest of the build. Every invocation event (API Gateway v2
// or Function URL payload) becomes an *http.Request, the server's reply becomes
// the Lambda reply, and no error or panic escapes to the platform: failures are
// answered with a 500 whose detail is exposed only in debug builds.
//
// The server is constructed and initialized once per warm execution
// environment, on first use. Concurrent first invocations share one
// initialization, and a failed initialization is retried by the next
// invocation.
//
// The x-forwarded-host header is trusted by default because Lambda is expected
// to sit behind a router that owns that header. Deployments reachable without
// such a router must set TrustPolicy to IgnoreForwardedHost, or the
// BATTLESHIPER_TRUST_FORWARDED_HOST environment variable to false.
package lambda
