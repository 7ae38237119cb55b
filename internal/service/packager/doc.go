// Package packager runs the build-time packaging pipeline.
//
// One run publishes the framework's static output, generates the manifest and
// entry packages, compiles the Lambda executable, wraps it into bootstrap.zip
// and records checksums of everything it produced in a YAML build description.
// A marker file next to the output directory keeps two runs from sharing it.
package packager
