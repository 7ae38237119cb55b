package archive

import (
	"bytes"
	"context"
	"crypto"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	goupdate "github.com/doitdistributed/go-update"
	"github.com/klauspost/compress/zip"

	"github.com/oshokin/battleshiper-adapter/internal/logger"

	// Ensure SHA512 available for checksum calculation.
	_ "crypto/sha512"
)

const (
	// EntryName is the name of the only archive entry, the Lambda custom runtime executable.
	EntryName = "bootstrap"

	// EntryMode makes the entry executable once unpacked.
	EntryMode os.FileMode = 0o755

	// DefaultFileMode is used for the archive itself.
	DefaultFileMode os.FileMode = 0o644

	// checksumFunction verifies the installed archive.
	checksumFunction = crypto.SHA512
)

// ErrPackage is returned when the archive could not be written.
var ErrPackage = errors.New("package failed")

// Write packs executable into a zip installed at archivePath.
func Write(ctx context.Context, executable, archivePath string) error {
	data, err := Build(executable)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPackage, err)
	}

	if err = install(data, archivePath); err != nil {
		return fmt.Errorf("%w: install %s: %w", ErrPackage, archivePath, err)
	}

	logger.InfoKV(ctx, "Archive written", "path", archivePath, "bytes", len(data))

	return nil
}

// Build returns the bytes of a zip holding executable under EntryName.
// The entry carries no timestamp, so equal executables give equal archives.
func Build(executable string) ([]byte, error) {
	in, err := os.Open(filepath.Clean(executable))
	if err != nil {
		return nil, fmt.Errorf("open executable: %w", err)
	}

	defer func() {
		_ = in.Close()
	}()

	var buf bytes.Buffer

	zw := zip.NewWriter(&buf)

	//nolint:exhaustruct // Timestamps are left zero on purpose.
	header := &zip.FileHeader{
		Name:   EntryName,
		Method: zip.Deflate,
	}
	header.SetMode(EntryMode)

	w, err := zw.CreateHeader(header)
	if err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}

	if _, err = io.Copy(w, in); err != nil {
		return nil, fmt.Errorf("compress executable: %w", err)
	}

	if err = zw.Close(); err != nil {
		return nil, fmt.Errorf("finish archive: %w", err)
	}

	return buf.Bytes(), nil
}

// install atomically replaces archivePath with data, verifying its checksum.
func install(data []byte, archivePath string) error {
	hasher := checksumFunction.New()
	_, _ = hasher.Write(data)

	// go-update renames the previous file aside, so the target has to exist.
	var placeholder bool

	if _, err := os.Stat(archivePath); errors.Is(err, os.ErrNotExist) {
		f, createErr := os.Create(filepath.Clean(archivePath))
		if createErr != nil {
			return createErr
		}

		_ = f.Close()
		placeholder = true
	}

	options := goupdate.Options{
		TargetPath: archivePath,
		TargetMode: DefaultFileMode,
		Checksum:   hasher.Sum(nil),
		Hash:       checksumFunction,
	}

	if err := goupdate.Apply(bytes.NewReader(data), options); err != nil {
		// A rollback restores the empty placeholder, which must not pass for an archive.
		if placeholder {
			_ = os.Remove(archivePath)
		}

		return err
	}

	oldFileName := archivePath + ".old"
	if _, err := os.Stat(oldFileName); err == nil {
		_ = os.Remove(oldFileName)
	}

	return nil
}
