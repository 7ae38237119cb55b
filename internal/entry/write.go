package entry

import (
	"context"
	"fmt"
	"go/format"
	"os"
	"path/filepath"

	"github.com/oshokin/battleshiper-adapter/internal/domain/build"
	"github.com/oshokin/battleshiper-adapter/internal/logger"
)

// SourceFilename is the generated file inside the entry package directory.
const SourceFilename = "main.go"

// Write instantiates the default template for the run and writes the main package.
// The manifest import path is resolved from the module that owns the temp directory.
func Write(ctx context.Context, bc *build.Context, serverPackage, shimsPackage string) (string, error) {
	manifestPackage, err := ImportPath(bc.ManifestDir())
	if err != nil {
		return "", fmt.Errorf("resolve manifest package: %w", err)
	}

	values := Values{
		ServerPackage:   serverPackage,
		ShimsPackage:    shimsPackage,
		ManifestPackage: manifestPackage,
		Debug:           bc.Debug,
	}

	source, err := Default().Instantiate(values.Map())
	if err != nil {
		return "", err
	}

	formatted, err := format.Source([]byte(source))
	if err != nil {
		return "", fmt.Errorf("format entry: %w", err)
	}

	if err = os.MkdirAll(bc.EntryDir(), 0o755); err != nil {
		return "", fmt.Errorf("create entry package: %w", err)
	}

	path := filepath.Join(bc.EntryDir(), SourceFilename)
	if err = os.WriteFile(path, formatted, 0o644); err != nil { //nolint:gosec // Generated source is not secret.
		return "", fmt.Errorf("write entry: %w", err)
	}

	logger.InfoKV(ctx, "Entry package written",
		"path", path,
		"server", serverPackage,
		"manifest", manifestPackage,
		"debug", bc.Debug)

	return path, nil
}
