// Package version exposes build metadata for the adapter.
//
// Variables Version, Commit, and BuildTime are injected at build time via
// Go ldflags and default to sensible values for local builds. The version is
// recorded in every build description and identifies the adapter to AWS.
package version
