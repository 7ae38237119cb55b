// Package bundler compiles the generated entry package and its whole
// dependency closure into one static Lambda executable.
//
// Compiler output is parsed into diagnostics. Warnings block the build just
// like errors do: any diagnostic is printed to the operator console and the
// packaging run stops before an archive is written.
package bundler
