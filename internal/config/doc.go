// Package config defines the adapter settings and provides helpers to load,
// validate and save them in YAML format.
//
// The Config type names the framework output to package, the output and temp
// directories, the application server import path, the debug switch and the
// publish target.
package config
