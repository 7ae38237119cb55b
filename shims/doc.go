// Package shims prepares the Lambda process before the application server
// starts. The generated entry imports it for its side effects only, and
// the publisher reuses the content types it registers.
//
// The provided.al2023 runtime image ships neither a timezone database nor a
// complete mime.types file, so both are embedded here.
package shims
