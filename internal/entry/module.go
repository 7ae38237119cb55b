package entry

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

const goModFilename = "go.mod"

// ErrNoModule is returned when a directory is not inside a Go module.
var ErrNoModule = errors.New("no go.mod found")

// ImportPath returns the import path of the package in dir, derived from the
// go.mod of the enclosing module.
func ImportPath(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for root := abs; ; {
		contents, readErr := os.ReadFile(filepath.Join(root, goModFilename))
		if readErr == nil {
			modulePath := modfile.ModulePath(contents)
			if modulePath == "" {
				return "", fmt.Errorf("%s: module directive missing", filepath.Join(root, goModFilename))
			}

			rel, relErr := filepath.Rel(root, abs)
			if relErr != nil {
				return "", relErr
			}

			return path.Join(modulePath, filepath.ToSlash(rel)), nil
		}

		if !errors.Is(readErr, os.ErrNotExist) {
			return "", readErr
		}

		parent := filepath.Dir(root)
		if parent == root {
			return "", fmt.Errorf("%w above %s", ErrNoModule, abs)
		}

		root = parent
	}
}
