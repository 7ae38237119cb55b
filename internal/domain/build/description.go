package build

import (
	"crypto"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	// Ensure SHA512 available for checksum calculation.
	_ "crypto/sha512"
)

const (
	// DefaultChecksumFunction is used to calculate artifact hashes.
	DefaultChecksumFunction crypto.Hash = crypto.SHA512

	// DefaultFileMode is used for the description file.
	DefaultFileMode os.FileMode = 0o644

	// defaultMapCapacity is the default initial capacity for maps.
	defaultMapCapacity = 16
)

var (
	errHashUnavailable = errors.New("hash function unavailable")
	// ErrChecksumMismatch is returned when a file differs from its recorded checksum.
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// Description records what a packaging run produced.
type Description struct {
	// AdapterVersion is the version of the adapter that produced the build.
	AdapterVersion string `yaml:"adapter_version"`
	// BuildID is the run identifier.
	BuildID string `yaml:"build_id"`
	// CreatedAt is the run start time in UTC.
	CreatedAt time.Time `yaml:"created_at"`
	// Debug reports whether error details are exposed at runtime.
	Debug bool `yaml:"debug"`
	// Base is the base path of the application.
	Base string `yaml:"base"`
	// Target is the platform the executable was built for, like linux/arm64.
	Target string `yaml:"target"`
	// Files maps slash-separated paths relative to the output directory
	// to base64-encoded checksums.
	Files map[string]string `yaml:"files"`
}

// NewDescription produces a Description for the given run.
func NewDescription(bc *Context, adapterVersion string) *Description {
	return &Description{
		AdapterVersion: adapterVersion,
		BuildID:        bc.ID,
		CreatedAt:      bc.StartedAt,
		Debug:          bc.Debug,
		Files:          make(map[string]string, defaultMapCapacity),
	}
}

// AddTree records checksums of every regular file below dir.
func (d *Description) AddTree(outputDir, dir string) error {
	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !entry.Type().IsRegular() {
			return nil
		}

		return d.AddFile(outputDir, path)
	})
}

// AddFile records the checksum of one file under its path relative to outputDir.
func (d *Description) AddFile(outputDir, path string) error {
	rel, err := filepath.Rel(outputDir, path)
	if err != nil {
		return fmt.Errorf("relative path of %s: %w", path, err)
	}

	checksum, err := GetFileChecksum(path)
	if err != nil {
		return err
	}

	d.Files[filepath.ToSlash(rel)] = base64.StdEncoding.EncodeToString(checksum)

	return nil
}

// SortedFiles returns recorded paths in lexical order.
func (d *Description) SortedFiles() []string {
	files := make([]string, 0, len(d.Files))
	for name := range d.Files {
		files = append(files, name)
	}

	sort.Strings(files)

	return files
}

// Verify compares the file at rel below outputDir with its recorded checksum.
func (d *Description) Verify(outputDir, rel string) error {
	expected, ok := d.Files[rel]
	if !ok {
		return fmt.Errorf("%s: %w", rel, os.ErrNotExist)
	}

	checksum, err := GetFileChecksum(filepath.Join(outputDir, filepath.FromSlash(rel)))
	if err != nil {
		return err
	}

	if base64.StdEncoding.EncodeToString(checksum) != expected {
		return fmt.Errorf("%s: %w", rel, ErrChecksumMismatch)
	}

	return nil
}

// SaveDescription writes the description as YAML.
func SaveDescription(path string, d *Description) error {
	contents, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal build description: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), contents, DefaultFileMode); err != nil {
		return fmt.Errorf("write build description: %w", err)
	}

	return nil
}

// LoadDescription reads a description written by SaveDescription.
func LoadDescription(path string) (*Description, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read build description: %w", err)
	}

	var d Description
	if err = yaml.Unmarshal(contents, &d); err != nil {
		return nil, fmt.Errorf("unmarshal build description: %w", err)
	}

	if d.Files == nil {
		d.Files = make(map[string]string, defaultMapCapacity)
	}

	return &d, nil
}

// GetFileChecksum returns checksum bytes for a file using DefaultChecksumFunction.
func GetFileChecksum(path string) ([]byte, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	if !DefaultChecksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	hasher := DefaultChecksumFunction.New()
	if _, err = hasher.Write(contents); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	return hasher.Sum(nil), nil
}
