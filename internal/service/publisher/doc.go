// Package publisher uploads a finished build to its artifact store.
//
// The build description written by the packager is the source of truth: every
// file is checked against its recorded checksum, the server archive against
// the size limit and prerendered pages against their extension before the
// first upload starts. Objects are keyed by an execution ID so consecutive
// publishes never overwrite each other.
package publisher
