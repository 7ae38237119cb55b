package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// ErrInvalidKey is returned for keys that would escape the repository root.
var ErrInvalidKey = errors.New("invalid object key")

// FileRepository stores artifacts below a local directory.
type FileRepository struct {
	// root is the directory objects are written to.
	root string
	// mu serializes writes.
	mu sync.Mutex
}

// NewFileRepository creates a repository writing below root.
func NewFileRepository(root string) *FileRepository {
	return &FileRepository{
		root: filepath.Clean(root),
	}
}

// Put writes the object to root/key.
func (r *FileRepository) Put(_ context.Context, obj *Object, body io.Reader) error {
	target, err := r.path(obj.Key)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err = os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create object directory: %w", err)
	}

	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create object %s: %w", obj.Key, err)
	}

	if _, err = io.Copy(out, body); err != nil {
		_ = out.Close()
		return fmt.Errorf("write object %s: %w", obj.Key, err)
	}

	return out.Close()
}

// path maps key to a file below root.
func (r *FileRepository) path(key string) (string, error) {
	cleaned := path.Clean("/" + key)
	if key == "" || strings.HasSuffix(key, "/") || cleaned != "/"+key {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	return filepath.Join(r.root, filepath.FromSlash(cleaned[1:])), nil
}
