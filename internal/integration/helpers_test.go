package integration

import (
	"context"
	"crypto/sha256"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/battleshiper-adapter/internal/bundler"
	"github.com/oshokin/battleshiper-adapter/internal/config"
	"github.com/oshokin/battleshiper-adapter/internal/repository/artifact"
)

// project is a throwaway application module with a framework output.
type project struct {
	root       string
	configPath string
	outDir     string
	tmpDir     string
	framework  string
}

// newProject lays out go.mod, the framework output and the adapter settings.
func newProject(t *testing.T, publish config.Publish) *project {
	t.Helper()

	root := t.TempDir()
	p := &project{
		root:       root,
		configPath: filepath.Join(root, config.DefaultConfigFilename),
		outDir:     filepath.Join(root, "build", "battleshiper"),
		tmpDir:     filepath.Join(root, "build", "battleshiper-tmp"),
		framework:  filepath.Join(root, "build", "framework"),
	}

	p.write(t, "go.mod", "module example.com/app\n\ngo 1.25\n")
	p.write(t, "build/framework/client/_app/immutable/start.js", "console.log('start')")
	p.write(t, "build/framework/client/favicon.png", "png")
	p.write(t, "build/framework/prerendered/index.html", "<h1>home</h1>")
	p.write(t, "build/framework/prerendered/about.html", "<h1>about</h1>")
	p.write(t, "build/framework/manifest.json", `{
		// Emitted by the framework build.
		"manifest": {"appDir": "_app", "nodes": 3},
		"prerendered": ["/about", "/"],
		"base": "",
	}`)

	settings := config.Config{
		ServerPackage: "example.com/app/server",
		Publish:       publish,
	}

	contents, err := yaml.Marshal(&settings)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(p.configPath, contents, 0o600))

	return p
}

func (p *project) write(t *testing.T, rel, content string) {
	t.Helper()

	path := filepath.Join(p.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func (p *project) read(t *testing.T, path string) []byte {
	t.Helper()

	contents, err := os.ReadFile(path)
	require.NoError(t, err)

	return contents
}

// files lists every regular file below dir as slash-separated relative paths.
func files(t *testing.T, dir string) []string {
	t.Helper()

	var result []string

	err := filepath.WalkDir(dir, func(path string, entry os.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		result = append(result, filepath.ToSlash(rel))

		return nil
	})
	require.NoError(t, err)

	sort.Strings(result)

	return result
}

// fakeBundler writes an executable derived from the generated sources,
// so equal sources give equal executables like a reproducible compiler.
type fakeBundler struct {
	mu          sync.Mutex
	requests    []bundler.Request
	diagnostics []bundler.Diagnostic
	// after runs once the executable is written.
	after func(req *bundler.Request) error
}

func (f *fakeBundler) Bundle(_ context.Context, req *bundler.Request) (*bundler.Result, error) {
	f.mu.Lock()
	f.requests = append(f.requests, *req)
	f.mu.Unlock()

	hasher := sha256.New()

	for _, path := range []string{
		filepath.Join(req.EntryDir, "main.go"),
		filepath.Join(req.EntryDir, "..", "manifest", "manifest.go"),
	} {
		source, err := os.Open(path)
		if err != nil {
			return &bundler.Result{Err: err}, nil
		}

		_, err = io.Copy(hasher, source)
		_ = source.Close()

		if err != nil {
			return &bundler.Result{Err: err}, nil
		}
	}

	executable := append([]byte("\x7fELF"), hasher.Sum(nil)...)
	if err := os.WriteFile(req.Output, executable, 0o755); err != nil {
		return &bundler.Result{Err: err}, nil
	}

	if f.after != nil {
		if err := f.after(req); err != nil {
			return &bundler.Result{Err: err}, nil
		}
	}

	return &bundler.Result{Diagnostics: f.diagnostics}, nil
}

// memoryRepository keeps uploaded objects in memory.
type memoryRepository struct {
	mu      sync.Mutex
	objects map[string]string
}

func (m *memoryRepository) Put(_ context.Context, obj *artifact.Object, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.objects == nil {
		m.objects = make(map[string]string)
	}

	m.objects[obj.Key] = string(data)

	return nil
}

func (m *memoryRepository) keys() []string {
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
