// Package s3 implements an Exporter that uploads artifacts to an Amazon S3
// (or S3-compatible) bucket.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/shineum/email-composer/internal/exporter"
)

// maxRetries is the maximum number of retry attempts for transient failures.
const maxRetries = 3

// baseRetryDelay is the initial delay for exponential backoff.
const baseRetryDelay = 1 * time.Second

// permanentErrorCodes are S3 error codes that retrying cannot fix.
var permanentErrorCodes = map[string]bool{
	"AccessDenied":                 true,
	"AuthorizationHeaderMalformed": true,
	"InvalidAccessKeyId":           true,
	"InvalidBucketName":            true,
	"NoSuchBucket":                 true,
	"SignatureDoesNotMatch":        true,
}

// Config holds the configuration for creating an S3 Exporter.
type Config struct {
	Region          string
	Bucket          string
	Prefix          string
	Endpoint        string // optional, for S3-compatible services
	AccessKeyID     string
	SecretAccessKey string
	ForcePathStyle  bool

	// RunID groups the artifacts of one session under a common key prefix.
	// A random UUID is used when empty.
	RunID string
}

// PutObjectAPI is the interface for the S3 PutObject operation.
// Used for testing with mock implementations.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
}

// Exporter uploads artifacts to <prefix>/<run id>/<filename> in a bucket.
type Exporter struct {
	bucket    string
	keyPrefix string
	client    PutObjectAPI
	retryBase time.Duration
}

// New creates a new S3 Exporter with the given configuration.
func New(ctx context.Context, cfg Config) (*Exporter, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, errors.New("s3 exporter requires a bucket and a region")
	}

	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	return NewWithClient(cfg, client), nil
}

// NewWithClient creates an Exporter with a custom client, used for testing.
func NewWithClient(cfg Config, client PutObjectAPI) *Exporter {
	runID := cfg.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	return &Exporter{
		bucket:    cfg.Bucket,
		keyPrefix: path.Join(strings.Trim(cfg.Prefix, "/"), runID),
		client:    client,
		retryBase: baseRetryDelay,
	}
}

// Export uploads the artifact, retrying transient failures with exponential
// backoff. Permanent S3 errors (missing bucket, bad credentials) are returned
// immediately.
func (e *Exporter) Export(ctx context.Context, a *exporter.Artifact) error {
	key := e.Key(a.Filename)
	disposition := fmt.Sprintf("attachment; filename=%q", path.Base(a.Filename))

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			slog.Debug("retrying S3 upload",
				"attempt", attempt,
				"max_retries", maxRetries,
			)
			if err := sleepWithContext(ctx, e.backoffDelay(attempt)); err != nil {
				return fmt.Errorf("context cancelled during retry wait: %w", err)
			}
		}

		_, err := e.client.PutObject(ctx, &awss3.PutObjectInput{
			Bucket:             aws.String(e.bucket),
			Key:                aws.String(key),
			Body:               bytes.NewReader(a.Content),
			ContentLength:      aws.Int64(int64(len(a.Content))),
			ContentType:        aws.String(a.ContentType),
			ContentDisposition: aws.String(disposition),
		})
		if err == nil {
			slog.Info("uploaded artifact to S3",
				"bucket", e.bucket,
				"key", key,
			)
			return nil
		}

		lastErr = err
		if isPermanent(err) {
			return fmt.Errorf("S3 upload of %s failed: %w", key, err)
		}
		if ctx.Err() != nil {
			return fmt.Errorf("S3 upload of %s cancelled: %w", key, err)
		}

		slog.Warn("S3 API error",
			"attempt", attempt,
			"error", err,
		)
	}

	return fmt.Errorf("S3 upload failed after %d retries: %w", maxRetries, lastErr)
}

// Name returns the exporter name.
func (e *Exporter) Name() string {
	return "s3"
}

// Key returns the object key the named artifact is uploaded to.
func (e *Exporter) Key(filename string) string {
	return path.Join(e.keyPrefix, path.Base(filename))
}

// isPermanent reports whether err is an S3 API error that retrying cannot fix.
func isPermanent(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return permanentErrorCodes[apiErr.ErrorCode()]
	}
	return false
}

// backoffDelay returns the exponential backoff delay for the given attempt number.
func (e *Exporter) backoffDelay(attempt int) time.Duration {
	delay := e.retryBase
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

// sleepWithContext waits for the specified duration or until the context is cancelled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
