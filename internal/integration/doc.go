// Package integration holds end-to-end tests of the build and publish
// workflows against a throwaway application module.
package integration
