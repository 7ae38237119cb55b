// Package build describes one packaging run: where its artifacts live, which
// files it produced and the checksums recorded for them.
//
// Context owns the output and temporary directories of a run. Description is
// the YAML document written next to the artifacts and read back by the
// publisher before anything is uploaded.
package build
