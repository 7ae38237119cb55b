package artifact

import (
	"context"
	"io"
)

// ChecksumMetadataKey is the object metadata entry holding the base64 SHA-512 checksum.
const ChecksumMetadataKey = "sha512"

// Object describes one stored artifact.
type Object struct {
	// Key is the slash-separated object key.
	Key string
	// ContentType is the MIME type served with the object.
	ContentType string
	// Checksum is the base64 SHA-512 checksum of the content.
	Checksum string
	// Size is the content length in bytes.
	Size int64
}

// Repository defines storage operations for build artifacts.
type Repository interface {
	Put(ctx context.Context, obj *Object, body io.Reader) error
}
