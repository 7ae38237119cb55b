// Package layout prepares the output directory tree of a packaging run.
//
// Every run starts from a clean slate: the output and temp directories are
// removed, recreated and the framework's client and prerendered trees are
// copied into their published locations.
package layout
