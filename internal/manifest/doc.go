// Package manifest turns the framework's build metadata into a generated Go
// package the runtime loads at cold start.
//
// The metadata file is JSON (comments tolerated) validated against an embedded
// schema. The generated package exports Manifest, Prerendered, Base and
// ServerDir and is rendered deterministically, so identical inputs always
// produce identical source.
package manifest
