package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/df07/go-sphere-raytracer/internal/config"
	"github.com/df07/go-sphere-raytracer/internal/logging"
)

// ErrUploadDisabled is returned when no bucket is configured
var ErrUploadDisabled = errors.New("s3 upload disabled: no bucket configured")

// S3Uploader publishes rendered files to an S3-compatible bucket
type S3Uploader struct {
	client  s3iface.S3API
	bucket  string
	prefix  string
	timeout time.Duration
	logger  *logging.Logger
}

// NewS3Uploader creates an uploader from configuration. Static credentials are
// used when given; otherwise the SDK's default credential chain applies.
func NewS3Uploader(cfg config.S3Config, logger *logging.Logger) (*S3Uploader, error) {
	if !cfg.Enabled() {
		return nil, ErrUploadDisabled
	}

	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}
	if cfg.AccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}

	return NewS3UploaderWithClient(s3.New(sess), cfg, logger), nil
}

// NewS3UploaderWithClient wraps an existing client
func NewS3UploaderWithClient(client s3iface.S3API, cfg config.S3Config, logger *logging.Logger) *S3Uploader {
	if logger == nil {
		logger = logging.NewTestLogger()
	}
	timeout := cfg.UploadTimeout
	if timeout <= 0 {
		timeout = config.DefaultUploadTimeout
	}
	return &S3Uploader{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
		timeout: timeout,
		logger:  logger,
	}
}

// Key returns the object key used for a local file
func (u *S3Uploader) Key(localPath string) string {
	name := filepath.Base(localPath)
	if u.prefix == "" {
		return name
	}
	return path.Join(u.prefix, name)
}

// Upload sends the file at localPath and returns its object key
func (u *S3Uploader) Upload(ctx context.Context, localPath string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", localPath, err)
	}

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	key := u.Key(localPath)
	input := &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType(localPath)),
	}
	if _, err := u.client.PutObjectWithContext(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	u.logger.Info("uploaded render",
		logging.String("bucket", u.bucket),
		logging.String("key", key),
		logging.Int("bytes", len(data)))
	return key, nil
}

// UploadAll uploads each file in order, stopping at the first failure
func (u *S3Uploader) UploadAll(ctx context.Context, paths []string) ([]string, error) {
	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		key, err := u.Upload(ctx, p)
		if err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func contentType(localPath string) string {
	switch filepath.Ext(localPath) {
	case ".ppm":
		return "image/x-portable-pixmap"
	case ".zst":
		return "application/zstd"
	case ".sz":
		return "application/x-snappy-framed"
	}
	if t := mime.TypeByExtension(filepath.Ext(localPath)); t != "" {
		return t
	}
	return "application/octet-stream"
}
