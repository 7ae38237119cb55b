package layout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/battleshiper-adapter/internal/domain/build"
	"github.com/oshokin/battleshiper-adapter/internal/logger"
)

const (
	// DefaultDirMode is used for every directory created by the layout.
	DefaultDirMode os.FileMode = 0o755

	// clientSource and prerenderedSource are the framework output subdirectories.
	clientSource      = "client"
	prerenderedSource = "prerendered"
)

var (
	// ErrCleanup is returned when a stale directory could not be removed.
	ErrCleanup = errors.New("cleanup failed")
	// ErrUnsafeDirectory is returned for directories that must never be wiped.
	ErrUnsafeDirectory = errors.New("unsafe directory")
)

// Prepare wipes and recreates the run directories, then publishes the client
// assets and prerendered pages found in frameworkOutput.
func Prepare(ctx context.Context, bc *build.Context, frameworkOutput string) error {
	if err := checkDirectories(bc, frameworkOutput); err != nil {
		return err
	}

	for _, dir := range []string{bc.OutputDir, bc.TempDir} {
		logger.DebugKV(ctx, "Removing directory", "path", dir)

		if err := RemoveDir(dir); err != nil {
			return fmt.Errorf("%w: remove %s: %w", ErrCleanup, dir, err)
		}

		if err := EnsureDir(dir); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	copies := []struct {
		src string
		dst string
	}{
		{src: filepath.Join(frameworkOutput, clientSource), dst: bc.ClientDir()},
		{src: filepath.Join(frameworkOutput, prerenderedSource), dst: bc.PrerenderedDir()},
	}

	for _, c := range copies {
		copied, err := CopyDir(c.src, c.dst)
		if err != nil {
			return fmt.Errorf("copy %s: %w", c.src, err)
		}

		logger.InfoKV(ctx, "Published directory", "from", c.src, "to", c.dst, "files", copied)
	}

	if err := EnsureDir(bc.ServerDir()); err != nil {
		return fmt.Errorf("create %s: %w", bc.ServerDir(), err)
	}

	return nil
}

// checkDirectories refuses layouts where wiping a directory would destroy the input.
func checkDirectories(bc *build.Context, frameworkOutput string) error {
	out, err := filepath.Abs(bc.OutputDir)
	if err != nil {
		return err
	}

	tmp, err := filepath.Abs(bc.TempDir)
	if err != nil {
		return err
	}

	src, err := filepath.Abs(frameworkOutput)
	if err != nil {
		return err
	}

	for _, dir := range []string{out, tmp} {
		if dir == filepath.Dir(dir) {
			return fmt.Errorf("%w: %s is the filesystem root", ErrUnsafeDirectory, dir)
		}

		if within(src, dir) {
			return fmt.Errorf("%w: %s contains the framework output %s", ErrUnsafeDirectory, dir, src)
		}
	}

	if out == tmp {
		return fmt.Errorf("%w: output and temp directory are both %s", ErrUnsafeDirectory, out)
	}

	return nil
}

// within reports whether path equals dir or lies below it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}

	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// EnsureDir creates path and its parents.
func EnsureDir(path string) error {
	return os.MkdirAll(path, DefaultDirMode)
}

// RemoveDir removes path recursively, tolerating a missing directory.
func RemoveDir(path string) error {
	if path == "" {
		return nil
	}

	if err := os.RemoveAll(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

// CopyDir copies the tree at src into dst and returns the number of files copied.
// A missing src leaves dst empty.
func CopyDir(src, dst string) (int, error) {
	if err := EnsureDir(dst); err != nil {
		return 0, err
	}

	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}

	var copied int

	err := filepath.WalkDir(src, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		target := filepath.Join(dst, rel)
		if entry.IsDir() {
			return EnsureDir(target)
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}

		// Symlinks and devices are not part of a static site.
		if !info.Mode().IsRegular() {
			return nil
		}

		copied++

		return copyFile(path, target, info.Mode().Perm())
	})

	return copied, err
}

func copyFile(src, dst string, mode fs.FileMode) error {
	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		return err
	}

	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}

	defer func() {
		_ = in.Close()
	}()

	out, err := os.OpenFile(filepath.Clean(dst), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}

	return out.Close()
}
