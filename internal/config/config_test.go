package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields, defaults and architecture validation.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing server package.
	settings := new(Config)

	err := Validate(settings)
	require.ErrorIs(t, err, errServerPackageRequired)

	// Unsupported architecture.
	settings = &Config{
		ServerPackage: "example.com/app/server",
		TargetArch:    "386",
	}

	err = Validate(settings)
	require.ErrorIs(t, err, errUnsupportedArch)

	// Same output and temp directory.
	settings = &Config{
		ServerPackage: "example.com/app/server",
		OutputDir:     "build/out",
		TempDir:       "build/out/",
	}

	err = Validate(settings)
	require.ErrorIs(t, err, errDirectoriesOverlap)

	// Defaults filled in.
	settings = &Config{
		ServerPackage: " example.com/app/server ",
	}

	require.NoError(t, Validate(settings))
	require.Equal(t, "example.com/app/server", settings.ServerPackage)
	require.Equal(t, DefaultOutputDir, settings.OutputDir)
	require.Equal(t, DefaultTempDir, settings.TempDir)
	require.Equal(t, DefaultShimsPackage, settings.ShimsPackage)
	require.Equal(t, DefaultTargetArch, settings.TargetArch)
	require.Equal(t, DefaultMaxServerBytes, settings.Publish.MaxServerBytes)
}

// TestValidatePublish checks the bucket requirement and prefix normalization.
func TestValidatePublish(t *testing.T) {
	t.Parallel()

	settings := new(Config)
	require.ErrorIs(t, ValidatePublish(settings), errPublishTargetRequired)

	settings.Publish = Publish{Bucket: "assets", Prefix: "builds"}
	require.NoError(t, ValidatePublish(settings))
	require.Equal(t, "builds/", settings.Publish.Prefix)

	// A local directory is enough.
	settings.Publish = Publish{Directory: "dist"}
	require.NoError(t, ValidatePublish(settings))
}

// TestSaveLoadRoundtrip ensures settings are persisted and directories are resolved on load.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	settings := &Config{
		ServerPackage: "example.com/app/server",
		Debug:         true,
		Publish: Publish{
			Bucket: "assets",
			Region: "eu-central-1",
		},
	}

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings.ServerPackage, loaded.ServerPackage)
	require.True(t, loaded.Debug)
	require.Equal(t, "assets", loaded.Publish.Bucket)
	require.Equal(t, filepath.Join(dir, DefaultOutputDir), loaded.OutputDir)
	require.Equal(t, filepath.Join(dir, DefaultTempDir), loaded.TempDir)
	require.Equal(t, filepath.Join(dir, DefaultFrameworkOutput), loaded.FrameworkOutput)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}
