package shims

import (
	"mime"

	// Embed the timezone database for time.LoadLocation.
	_ "time/tzdata"
)

// contentTypes are registered on top of the built-in table.
var contentTypes = map[string]string{
	".webmanifest": "application/manifest+json",
	".mjs":         "text/javascript; charset=utf-8",
	".wasm":        "application/wasm",
	".avif":        "image/avif",
	".woff2":       "font/woff2",
	".zip":         "application/zip",
}

func init() { //nolint:gochecknoinits // Shims exist to run before main.
	for ext, typ := range contentTypes {
		// Both arguments are constants above.
		_ = mime.AddExtensionType(ext, typ)
	}
}
