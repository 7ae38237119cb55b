package packager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/oshokin/battleshiper-adapter/internal/archive"
	"github.com/oshokin/battleshiper-adapter/internal/bundler"
	"github.com/oshokin/battleshiper-adapter/internal/config"
	"github.com/oshokin/battleshiper-adapter/internal/domain/build"
	"github.com/oshokin/battleshiper-adapter/internal/entry"
	"github.com/oshokin/battleshiper-adapter/internal/layout"
	"github.com/oshokin/battleshiper-adapter/internal/logger"
	"github.com/oshokin/battleshiper-adapter/internal/manifest"
	"github.com/oshokin/battleshiper-adapter/internal/version"
)

// Options contains inputs for the packager entry point.
type Options struct {
	// ConfigPath is the adapter settings file (defaults to battleshiper-adapter.yaml).
	ConfigPath string
	// Debug overrides the debug flag of the settings when set.
	Debug *bool
	// Bundler compiles the entry. Defaults to the go command.
	Bundler bundler.Bundler
	// Console receives formatted bundle diagnostics. Defaults to stderr.
	Console io.Writer
}

// packager runs one build. It is unexported; callers should use Run.
type packager struct {
	// cfg holds the adapter settings.
	cfg *config.Config
	// bc is the state of this run.
	bc *build.Context
	// bundler compiles the entry package.
	bundler bundler.Bundler
	// console receives bundle diagnostics.
	console io.Writer
	// bundle is what the run produced so far.
	bundle build.PackagedBundle
}

// Run executes the packaging workflow.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "packager")

	if opts == nil {
		opts = new(Options)
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	if opts.Debug != nil {
		cfg.Debug = *opts.Debug
	}

	pkg := newPackager(cfg, opts)
	ctx = logger.WithKV(ctx, "build_id", pkg.bc.ID)

	lock, err := acquireLock(ctx, cfg.OutputDir)
	if err != nil {
		return err
	}

	defer lock.release(ctx)

	if err = pkg.Run(ctx); err != nil {
		return fmt.Errorf("packager failed: %w", err)
	}

	logger.Info(ctx, "Packager completed successfully")

	return nil
}

// newPackager creates a packager for the settings.
func newPackager(cfg *config.Config, opts *Options) *packager {
	b := opts.Bundler
	if b == nil {
		b = bundler.NewGoBundler()
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	return &packager{
		cfg:     cfg,
		bc:      build.NewContext(cfg.OutputDir, cfg.TempDir, cfg.Debug),
		bundler: b,
		console: console,
	}
}

// Run performs layout, manifest, entry, bundle and package steps in order.
// A package failure still writes the description of the produced artifacts.
func (p *packager) Run(ctx context.Context) error {
	logger.InfoKV(ctx, "Preparing output layout", "out_dir", p.bc.OutputDir, "tmp_dir", p.bc.TempDir)

	if err := layout.Prepare(ctx, p.bc, p.cfg.FrameworkOutput); err != nil {
		return err
	}

	md, err := manifest.Assemble(ctx, p.bc, p.cfg.FrameworkOutput)
	if err != nil {
		return err
	}

	if _, err = entry.Write(ctx, p.bc, p.cfg.ServerPackage, p.cfg.ShimsPackage); err != nil {
		return err
	}

	req := &bundler.Request{
		EntryDir: p.bc.EntryDir(),
		Output:   p.bc.ExecutablePath(),
		Arch:     p.cfg.TargetArch,
		Debug:    p.bc.Debug,
	}

	if err = bundler.Run(ctx, p.bundler, req, p.console); err != nil {
		return err
	}

	p.bundle.Executable = req.Output

	packageErr := archive.Write(ctx, p.bundle.Executable, p.bc.ArchivePath())
	if packageErr != nil {
		logger.ErrorKV(ctx, "Unable to write archive, keeping the unpacked executable",
			"executable", p.bundle.Executable,
			"error", packageErr)
	} else {
		p.bundle.Archive = p.bc.ArchivePath()
	}

	desc, err := p.describe(md)
	if err != nil {
		return errors.Join(packageErr, err)
	}

	logger.InfoKV(ctx, "Saving build description", "path", p.bc.DescriptionPath())

	if err = build.SaveDescription(p.bc.DescriptionPath(), desc); err != nil {
		return errors.Join(packageErr, err)
	}

	if packageErr != nil {
		return packageErr
	}

	p.printNextSteps(ctx, desc)

	return nil
}

// describe records checksums of every artifact of the run.
func (p *packager) describe(md *manifest.Metadata) (*build.Description, error) {
	desc := build.NewDescription(p.bc, version.Short())
	desc.Base = md.Base
	desc.Target = "linux/" + p.cfg.TargetArch

	for _, dir := range []string{p.bc.ClientDir(), p.bc.PrerenderedDir()} {
		if err := desc.AddTree(p.bc.OutputDir, dir); err != nil {
			return nil, fmt.Errorf("describe %s: %w", dir, err)
		}
	}

	for _, file := range []string{p.bundle.Executable, p.bundle.Archive} {
		if file == "" {
			continue
		}

		if err := desc.AddFile(p.bc.OutputDir, file); err != nil {
			return nil, fmt.Errorf("describe %s: %w", file, err)
		}
	}

	return desc, nil
}

// printNextSteps logs human-readable guidance for the produced build.
func (p *packager) printNextSteps(ctx context.Context, desc *build.Description) {
	var builder strings.Builder

	builder.WriteString("Build ")
	builder.WriteString(desc.BuildID)
	builder.WriteString(" is ready in ")
	builder.WriteString(p.bc.OutputDir)
	builder.WriteString(":\n")
	builder.WriteString(build.ClientDirname + "/ and " + build.PrerenderedDirname + "/ hold static files,\n")
	builder.WriteString(build.ServerDirname + "/" + build.ArchiveFilename + " is the function code for the provided.al2023 runtime")

	if p.cfg.Publish.Bucket != "" {
		builder.WriteString(",\nrun \"battleshiper-adapter publish\" to upload it to s3://")
		builder.WriteString(p.cfg.Publish.Bucket)
		builder.WriteString("/")
		builder.WriteString(p.cfg.Publish.Prefix)
	}

	logger.InfoKV(ctx, builder.String(), "files", len(desc.Files))
}
