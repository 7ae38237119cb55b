package packager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/battleshiper-adapter/internal/logger"
)

const (
	// markerSuffix is appended to the output directory to name the run marker.
	markerSuffix = ".lock"

	markerFileMode os.FileMode = 0o644
)

// ErrBuildRunning indicates that another run owns the output directory.
var ErrBuildRunning = errors.New("another build is running now")

// buildLock is the marker file of a running build.
type buildLock struct {
	path string
}

// markerPath returns the marker of outputDir. It lives beside the directory so
// the layout step does not wipe it.
func markerPath(outputDir string) string {
	return filepath.Clean(outputDir) + markerSuffix
}

// acquireLock creates the run marker holding our PID. A marker whose process
// is gone is reclaimed.
func acquireLock(ctx context.Context, outputDir string) (*buildLock, error) {
	path := markerPath(outputDir)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create marker directory: %w", err)
	}

	logger.Debug(ctx, "Checking for the presence of a build marker")

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, markerFileMode)
		if err == nil {
			_, writeErr := f.WriteString(strconv.Itoa(os.Getpid()))
			closeErr := f.Close()

			if err = errors.Join(writeErr, closeErr); err != nil {
				_ = os.Remove(path)
				return nil, fmt.Errorf("write build marker: %w", err)
			}

			return &buildLock{path: path}, nil
		}

		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create build marker: %w", err)
		}

		pid, alive := markerOwner(path)
		if alive {
			return nil, fmt.Errorf("%w: pid %d holds %s", ErrBuildRunning, pid, path)
		}

		logger.InfoKV(ctx, "The build marker is stale, attempting cleanup", "path", path, "pid", pid)

		if err = os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale build marker: %w", err)
		}
	}

	return nil, fmt.Errorf("%w: %s keeps reappearing", ErrBuildRunning, path)
}

// release removes the marker.
func (l *buildLock) release(ctx context.Context) {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WarnKV(ctx, "Unable to remove build marker", "path", l.path, "error", err)
	}
}

// markerOwner reads the PID of the marker and reports whether that process runs.
func markerOwner(path string) (int, bool) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return 0, false
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(contents)))
	if err != nil || pid <= 0 {
		return 0, false
	}

	return pid, isProcessRunning(pid)
}

// isProcessRunning reports whether another process with pid exists.
func isProcessRunning(pid int) bool {
	if pid == os.Getpid() {
		return false
	}

	process, err := ps.FindProcess(pid)

	return err == nil && process != nil
}
