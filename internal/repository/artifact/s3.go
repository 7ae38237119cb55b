package artifact

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/oshokin/battleshiper-adapter/internal/version"
)

// S3API is the subset of the S3 client used by S3Repository.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Settings selects the bucket and how to reach it.
type S3Settings struct {
	// Bucket receives the objects.
	Bucket string
	// Region of the bucket; the default AWS chain is used when empty.
	Region string
	// Endpoint overrides the S3 endpoint and switches to path-style addressing.
	Endpoint string
}

// S3Repository uploads artifacts to a bucket.
type S3Repository struct {
	// client performs the uploads.
	client S3API
	// bucket receives every object.
	bucket string
}

// NewS3Repository wraps an existing client.
func NewS3Repository(client S3API, bucket string) *S3Repository {
	return &S3Repository{client: client, bucket: bucket}
}

// DialS3 loads the default AWS configuration and builds an S3 repository.
func DialS3(ctx context.Context, settings S3Settings) (*S3Repository, error) {
	options := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithAppID(version.AppID()),
	}

	if settings.Region != "" {
		options = append(options, awsconfig.WithRegion(settings.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint := strings.TrimSpace(settings.Endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3Repository(client, settings.Bucket), nil
}

// Put uploads the object with its checksum recorded as metadata.
func (r *S3Repository) Put(ctx context.Context, obj *Object, body io.Reader) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(obj.Key),
		Body:          body,
		ContentLength: aws.Int64(obj.Size),
		Metadata:      map[string]string{ChecksumMetadataKey: obj.Checksum},
	}

	if obj.ContentType != "" {
		input.ContentType = aws.String(obj.ContentType)
	}

	if _, err := r.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", r.bucket, obj.Key, err)
	}

	return nil
}
