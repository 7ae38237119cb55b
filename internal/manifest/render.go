package manifest

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/oshokin/battleshiper-adapter/internal/domain/build"
	"github.com/oshokin/battleshiper-adapter/internal/logger"
)

// SourceFilename is the generated file inside the manifest package directory.
const SourceFilename = "manifest.go"

// DefaultFileMode is used for generated sources.
const DefaultFileMode os.FileMode = 0o644

//go:embed manifest.go.tmpl
var templateSource string

var (
	templateOnce sync.Once
	templateErr  error
	tmpl         *template.Template
)

// templateData is the view of Metadata the template renders.
type templateData struct {
	Manifest    string
	Prerendered []string
	Base        string
	ServerDir   string
}

// Render produces formatted Go source of the manifest package.
// serverDir is the server output directory relative to the manifest package.
func Render(md *Metadata, serverDir string) ([]byte, error) {
	t, err := loadTemplate()
	if err != nil {
		return nil, err
	}

	prerendered := slices.Clone(md.Prerendered)
	slices.Sort(prerendered)

	data := templateData{
		Manifest:    string(md.Manifest),
		Prerendered: slices.Compact(prerendered),
		Base:        md.Base,
		ServerDir:   filepath.ToSlash(serverDir),
	}

	var buf bytes.Buffer
	if err = t.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render manifest package: %w", err)
	}

	source, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format manifest package: %w", err)
	}

	return source, nil
}

// Assemble reads the framework metadata and writes the manifest package of the run.
func Assemble(ctx context.Context, bc *build.Context, frameworkOutput string) (*Metadata, error) {
	md, err := ReadMetadata(frameworkOutput)
	if err != nil {
		return nil, err
	}

	serverDir, err := filepath.Rel(bc.ManifestDir(), bc.ServerDir())
	if err != nil {
		return nil, fmt.Errorf("locate server directory: %w", err)
	}

	source, err := Render(md, serverDir)
	if err != nil {
		return nil, err
	}

	if err = os.MkdirAll(bc.ManifestDir(), 0o755); err != nil {
		return nil, fmt.Errorf("create manifest package: %w", err)
	}

	path := filepath.Join(bc.ManifestDir(), SourceFilename)
	if err = os.WriteFile(path, source, DefaultFileMode); err != nil {
		return nil, fmt.Errorf("write manifest package: %w", err)
	}

	logger.InfoKV(ctx, "Manifest package written",
		"path", path,
		"prerendered", len(md.Prerendered),
		"base", md.Base)

	return md, nil
}

func loadTemplate() (*template.Template, error) {
	templateOnce.Do(func() {
		tmpl, templateErr = template.New(SourceFilename).Funcs(sprig.TxtFuncMap()).Parse(templateSource)
	})

	return tmpl, templateErr
}
