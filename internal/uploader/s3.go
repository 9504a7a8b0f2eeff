package uploader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"tokvault/internal/config"
)

const contentTypeVideo = "video/mp4"

// S3 uploads payloads to an S3 bucket. The configured key prefix acts as
// the destination collection; empty means the bucket root.
type S3 struct {
	log    *slog.Logger
	client *s3.Client
	bucket string
	prefix string
}

var _ Uploader = (*S3)(nil)

// NewS3 creates an S3 uploader. Static credentials are used when configured,
// otherwise the SDK's default chain applies.
func NewS3(ctx context.Context, log *slog.Logger, cfg config.Storage) (*S3, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3{
		log:    log.With(slog.String("package", "uploader")),
		client: s3.NewFromConfig(awsCfg, clientOpts...),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

// Store uploads r under name and returns the object key as the remote
// identifier.
func (u *S3) Store(ctx context.Context, r io.Reader, name string) (string, error) {
	key := name
	if u.prefix != "" {
		key = path.Join(u.prefix, name)
	}

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentTypeVideo),
	})
	if err != nil {
		return "", fmt.Errorf("put object %q: %w", key, err)
	}

	u.log.DebugContext(ctx, "object stored", slog.String("key", key))

	return key, nil
}
