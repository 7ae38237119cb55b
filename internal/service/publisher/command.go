package publisher

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/oshokin/battleshiper-adapter/internal/config"
	"github.com/oshokin/battleshiper-adapter/internal/domain/build"
	"github.com/oshokin/battleshiper-adapter/internal/logger"
	"github.com/oshokin/battleshiper-adapter/internal/repository/artifact"

	// Register the content types of web build outputs.
	_ "github.com/oshokin/battleshiper-adapter/shims"
)

// defaultContentType is used for extensions without a registered type.
const defaultContentType = "application/octet-stream"

var (
	errArchiveMissing   = errors.New("server archive is missing from the build")
	errArchiveTooLarge  = errors.New("server archive exceeds the size limit")
	errNotHTML          = errors.New("prerendered file is not an html page")
	errUnexpectedFolder = errors.New("file outside of the published folders")
)

// Options contains inputs for the publisher entry point.
type Options struct {
	// ConfigPath is the adapter settings file (defaults to battleshiper-adapter.yaml).
	ConfigPath string
	// ExecutionID names the upload; a random UUID is used when empty.
	ExecutionID string
	// Repository overrides the store selected by the settings.
	Repository artifact.Repository
}

// publisher uploads one build.
type publisher struct {
	// cfg holds the adapter settings.
	cfg *config.Config
	// desc is the build description read from the output directory.
	desc *build.Description
	// repo receives the objects.
	repo artifact.Repository
	// executionID prefixes every key of this upload.
	executionID string
}

// Run executes the publish workflow.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "publisher")

	if opts == nil {
		opts = new(Options)
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	if err = config.ValidatePublish(cfg); err != nil {
		return err
	}

	desc, err := build.LoadDescription(filepath.Join(cfg.OutputDir, build.DescriptionFilename))
	if err != nil {
		return err
	}

	repo := opts.Repository
	if repo == nil {
		if repo, err = openRepository(ctx, &cfg.Publish); err != nil {
			return err
		}
	}

	executionID := opts.ExecutionID
	if executionID == "" {
		executionID = uuid.NewString()
	}

	pub := &publisher{
		cfg:         cfg,
		desc:        desc,
		repo:        repo,
		executionID: executionID,
	}

	ctx = logger.WithKV(ctx, "build_id", desc.BuildID, "execution_id", executionID)

	if err = pub.Run(ctx); err != nil {
		return fmt.Errorf("publisher failed: %w", err)
	}

	logger.InfoKV(ctx, "Build published", "location", pub.location())

	return nil
}

// openRepository selects the store named by the settings.
//
//nolint:ireturn // The store is chosen at runtime.
func openRepository(ctx context.Context, settings *config.Publish) (artifact.Repository, error) {
	if settings.Bucket == "" {
		return artifact.NewFileRepository(settings.Directory), nil
	}

	return artifact.DialS3(ctx, artifact.S3Settings{
		Bucket:   settings.Bucket,
		Region:   settings.Region,
		Endpoint: settings.Endpoint,
	})
}

// Run validates every artifact and uploads them in lexical order.
func (p *publisher) Run(ctx context.Context) error {
	files, err := p.selectFiles()
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Verifying artifacts", "files", len(files))

	for _, rel := range files {
		if err = p.check(rel); err != nil {
			return err
		}
	}

	for _, rel := range files {
		if err = p.upload(ctx, rel, p.desc.Files[rel]); err != nil {
			return err
		}
	}

	// The description goes last so its presence marks a complete upload.
	return p.uploadDescription(ctx)
}

// selectFiles lists the described files that are published.
// The unpacked executable is skipped in favour of its archive.
func (p *publisher) selectFiles() ([]string, error) {
	var (
		files      []string
		hasArchive bool
	)

	archive := build.ServerDirname + "/" + build.ArchiveFilename
	executable := build.ServerDirname + "/" + build.ExecutableFilename

	for _, rel := range p.desc.SortedFiles() {
		switch {
		case rel == executable:
			continue
		case rel == archive:
			hasArchive = true
		case strings.HasPrefix(rel, build.ClientDirname+"/"), strings.HasPrefix(rel, build.PrerenderedDirname+"/"):
		default:
			return nil, fmt.Errorf("%w: %s", errUnexpectedFolder, rel)
		}

		files = append(files, rel)
	}

	if !hasArchive {
		return nil, errArchiveMissing
	}

	return files, nil
}

// check verifies the checksum and the per-folder rules of one file.
func (p *publisher) check(rel string) error {
	if err := p.desc.Verify(p.cfg.OutputDir, rel); err != nil {
		return err
	}

	if strings.HasPrefix(rel, build.PrerenderedDirname+"/") && path.Ext(rel) != ".html" {
		return fmt.Errorf("%w: %s", errNotHTML, rel)
	}

	if rel == build.ServerDirname+"/"+build.ArchiveFilename {
		info, err := os.Stat(p.localPath(rel))
		if err != nil {
			return err
		}

		if info.Size() > p.cfg.Publish.MaxServerBytes {
			return fmt.Errorf("%w: %d > %d bytes", errArchiveTooLarge, info.Size(), p.cfg.Publish.MaxServerBytes)
		}
	}

	return nil
}

func (p *publisher) upload(ctx context.Context, rel, checksum string) error {
	file, err := os.Open(p.localPath(rel))
	if err != nil {
		return err
	}

	defer func() {
		_ = file.Close()
	}()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	obj := &artifact.Object{
		Key:         p.key(rel),
		ContentType: contentType(rel),
		Checksum:    checksum,
		Size:        info.Size(),
	}

	logger.DebugKV(ctx, "Uploading artifact", "key", obj.Key, "bytes", obj.Size)

	return p.repo.Put(ctx, obj, file)
}

func (p *publisher) uploadDescription(ctx context.Context) error {
	checksum, err := build.GetFileChecksum(p.localPath(build.DescriptionFilename))
	if err != nil {
		return err
	}

	return p.upload(ctx, build.DescriptionFilename, base64.StdEncoding.EncodeToString(checksum))
}

func (p *publisher) key(rel string) string {
	return p.cfg.Publish.Prefix + p.executionID + "/" + rel
}

func (p *publisher) localPath(rel string) string {
	return filepath.Join(p.cfg.OutputDir, filepath.FromSlash(rel))
}

// location renders where the build was published.
func (p *publisher) location() string {
	if p.cfg.Publish.Bucket != "" {
		return "s3://" + p.cfg.Publish.Bucket + "/" + p.cfg.Publish.Prefix + p.executionID
	}

	return filepath.Join(p.cfg.Publish.Directory, filepath.FromSlash(p.cfg.Publish.Prefix), p.executionID)
}

func contentType(rel string) string {
	if typ := mime.TypeByExtension(path.Ext(rel)); typ != "" {
		return typ
	}

	return defaultContentType
}
