// Package entry generates the main package linked into the Lambda executable.
//
// The embedded template names its collaborators through placeholder tokens
// (__SERVER__, __SHIMS__, __MANIFEST__, __DEBUG__). Instantiate resolves every
// token from an explicit value map and refuses to produce source while any
// token is left unresolved.
package entry
