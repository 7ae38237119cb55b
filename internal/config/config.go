package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the settings of a packaging run and of the publish step.
type Config struct {
	// FrameworkOutput is the directory the web framework build writes to.
	// It must contain client/, prerendered/ and manifest.json.
	FrameworkOutput string `yaml:"framework_output"`
	// OutputDir receives the deployable layout (client, prerendered, server).
	OutputDir string `yaml:"out_dir"`
	// TempDir holds generated sources. It must live inside the Go module of
	// the application so the generated entry can import the server package.
	TempDir string `yaml:"tmp_dir"`
	// ServerPackage is the import path of the application server package.
	ServerPackage string `yaml:"server_package"`
	// ShimsPackage is the import path blank-imported before the server starts.
	ShimsPackage string `yaml:"shims_package"`
	// TargetArch is the Lambda architecture: amd64 (x86_64) or arm64.
	TargetArch string `yaml:"target_arch"`
	// Debug exposes error details in runtime failure replies and keeps symbols.
	Debug bool `yaml:"debug"`
	// Publish configures where finished builds are uploaded.
	Publish Publish `yaml:"publish"`
}

// Publish holds the settings of the artifact publisher.
type Publish struct {
	// Bucket is the S3 bucket receiving build assets.
	Bucket string `yaml:"bucket"`
	// Directory publishes into a local directory instead of a bucket.
	Directory string `yaml:"directory"`
	// Prefix is prepended to every object key, for example "builds/".
	Prefix string `yaml:"prefix"`
	// Region is the AWS region of the bucket.
	Region string `yaml:"region"`
	// Endpoint overrides the S3 endpoint for S3-compatible stores.
	Endpoint string `yaml:"endpoint"`
	// MaxServerBytes caps the size of the server archive.
	MaxServerBytes int64 `yaml:"max_server_bytes"`
}

const (
	// DefaultConfigFilename is the default filename for adapter settings.
	DefaultConfigFilename = "battleshiper-adapter.yaml"

	// DefaultFrameworkOutput is where the framework build is expected.
	DefaultFrameworkOutput = "build/framework"

	// DefaultOutputDir is the default deployable output directory.
	DefaultOutputDir = "build/battleshiper"

	// DefaultTempDir is the default working directory for generated sources.
	DefaultTempDir = "build/battleshiper-tmp"

	// DefaultShimsPackage is the runtime shim shipped with the adapter.
	DefaultShimsPackage = "github.com/oshokin/battleshiper-adapter/shims"

	// DefaultTargetArch matches the x86_64 Lambda architecture.
	DefaultTargetArch = "amd64"

	// DefaultMaxServerBytes is the Lambda limit for direct zip uploads.
	DefaultMaxServerBytes int64 = 50 << 20

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerPackageRequired is returned when the server import path is missing.
	errServerPackageRequired = errors.New("server package must be provided")
	// errUnsupportedArch is returned for architectures Lambda does not run.
	errUnsupportedArch = errors.New("unsupported target architecture")
	// errDirectoriesOverlap is returned when output and temp directories collide.
	errDirectoriesOverlap = errors.New("output and temp directories must differ")
	// errPublishTargetRequired is returned when publishing without a target.
	errPublishTargetRequired = errors.New("publish bucket or directory must be provided")
)

// Load reads configuration from the provided path and validates essential fields.
// Relative directories are resolved against the directory holding the file.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	cfg.resolve(filepath.Dir(path))

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and fills defaults.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	settings.ServerPackage = strings.TrimSpace(settings.ServerPackage)
	if settings.ServerPackage == "" {
		return errServerPackageRequired
	}

	if settings.FrameworkOutput == "" {
		settings.FrameworkOutput = DefaultFrameworkOutput
	}

	if settings.OutputDir == "" {
		settings.OutputDir = DefaultOutputDir
	}

	if settings.TempDir == "" {
		settings.TempDir = DefaultTempDir
	}

	if settings.ShimsPackage == "" {
		settings.ShimsPackage = DefaultShimsPackage
	}

	if settings.TargetArch == "" {
		settings.TargetArch = DefaultTargetArch
	}

	switch settings.TargetArch {
	case "amd64", "arm64":
	default:
		return fmt.Errorf("%w: %s", errUnsupportedArch, settings.TargetArch)
	}

	if filepath.Clean(settings.OutputDir) == filepath.Clean(settings.TempDir) {
		return errDirectoriesOverlap
	}

	if settings.Publish.MaxServerBytes <= 0 {
		settings.Publish.MaxServerBytes = DefaultMaxServerBytes
	}

	return nil
}

// ValidatePublish checks the settings needed by the publish step.
func ValidatePublish(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if strings.TrimSpace(settings.Publish.Bucket) == "" && strings.TrimSpace(settings.Publish.Directory) == "" {
		return errPublishTargetRequired
	}

	if settings.Publish.Prefix != "" && !strings.HasSuffix(settings.Publish.Prefix, "/") {
		settings.Publish.Prefix += "/"
	}

	return nil
}

// resolve makes directory settings absolute relative to base.
func (c *Config) resolve(base string) {
	c.FrameworkOutput = resolvePath(base, c.FrameworkOutput)
	c.OutputDir = resolvePath(base, c.OutputDir)
	c.TempDir = resolvePath(base, c.TempDir)

	if c.Publish.Directory != "" {
		c.Publish.Directory = resolvePath(base, c.Publish.Directory)
	}
}

func resolvePath(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}

	return filepath.Join(base, p)
}
