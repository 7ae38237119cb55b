// Package archive wraps the bundled executable into the single-entry zip the
// Lambda loader expects.
//
// The archive is built in memory, checksummed and installed with go-update so
// a reader never sees a half-written file. A failure here leaves the unpacked
// executable in place.
package archive
