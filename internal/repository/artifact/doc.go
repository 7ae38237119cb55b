// Package artifact stores published build artifacts.
//
// Repository is the storage port of the publisher. S3Repository uploads to an
// S3 bucket (or an S3-compatible store with a custom endpoint) and
// FileRepository mirrors the same key layout into a local directory.
package artifact
