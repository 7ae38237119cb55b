package build

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const (
	// ClientDirname holds static client assets in the output directory.
	ClientDirname = "client"
	// PrerenderedDirname holds prerendered pages in the output directory.
	PrerenderedDirname = "prerendered"
	// ServerDirname holds the bundled executable and its archive.
	ServerDirname = "server"
	// ExecutableFilename is the name the Lambda custom runtime loads.
	ExecutableFilename = "bootstrap"
	// ArchiveFilename is the deployable archive wrapping the executable.
	ArchiveFilename = ExecutableFilename + ".zip"
	// DescriptionFilename stores the build description in the output directory.
	DescriptionFilename = "battleshiper-build.yaml"

	// ManifestPackageDirname is the generated manifest package inside the temp directory.
	ManifestPackageDirname = "manifest"
	// EntryPackageDirname is the generated main package inside the temp directory.
	EntryPackageDirname = "entry"
)

// Context is the state of a single packaging run.
type Context struct {
	// ID uniquely identifies the run.
	ID string
	// OutputDir receives the deployable layout.
	OutputDir string
	// TempDir holds generated Go sources.
	TempDir string
	// Debug keeps error details and symbol tables.
	Debug bool
	// StartedAt is the moment the run started.
	StartedAt time.Time
}

// NewContext creates a run context with a fresh ID.
func NewContext(outputDir, tempDir string, debug bool) *Context {
	return &Context{
		ID:        uuid.NewString(),
		OutputDir: filepath.Clean(outputDir),
		TempDir:   filepath.Clean(tempDir),
		Debug:     debug,
		StartedAt: time.Now().UTC(),
	}
}

// ClientDir returns the published client assets directory.
func (c *Context) ClientDir() string {
	return filepath.Join(c.OutputDir, ClientDirname)
}

// PrerenderedDir returns the published prerendered pages directory.
func (c *Context) PrerenderedDir() string {
	return filepath.Join(c.OutputDir, PrerenderedDirname)
}

// ServerDir returns the directory holding the executable and archive.
func (c *Context) ServerDir() string {
	return filepath.Join(c.OutputDir, ServerDirname)
}

// ExecutablePath returns where the bundler writes the executable.
func (c *Context) ExecutablePath() string {
	return filepath.Join(c.ServerDir(), ExecutableFilename)
}

// ArchivePath returns where the package writer installs the archive.
func (c *Context) ArchivePath() string {
	return filepath.Join(c.ServerDir(), ArchiveFilename)
}

// ManifestDir returns the generated manifest package directory.
func (c *Context) ManifestDir() string {
	return filepath.Join(c.TempDir, ManifestPackageDirname)
}

// EntryDir returns the generated main package directory.
func (c *Context) EntryDir() string {
	return filepath.Join(c.TempDir, EntryPackageDirname)
}

// DescriptionPath returns the location of the build description.
func (c *Context) DescriptionPath() string {
	return filepath.Join(c.OutputDir, DescriptionFilename)
}

// PackagedBundle is the result of the bundle and package steps.
type PackagedBundle struct {
	// Executable is the bundled executable path.
	Executable string
	// Archive is the single-entry archive path, empty when packaging failed.
	Archive string
}
