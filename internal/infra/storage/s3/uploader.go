package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"rentdesk/internal/domain/shared/apperr"
)

var (
	ErrNotConfigured    = errors.New("s3: photo storage is not configured")
	ErrUnsupportedImage = apperr.New(apperr.ErrValidation, "s3: only jpeg, png and webp images are accepted")
)

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Uploader stores listing photos and returns the URL they are served from.
type Uploader interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) (publicURL string, err error)
}

type Options struct {
	Endpoint string
	// PublicEndpoint is the base of returned URLs; Endpoint is used when empty.
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	Bucket         string
	UseSSL         bool
}

// Client uploads to a MinIO or S3 bucket. The bucket is created on first use and made
// publicly readable so photo URLs can be embedded directly.
type Client struct {
	bucket  string
	baseURL string
	client  *minio.Client
	logger  *slog.Logger

	bucketOnce sync.Once
	bucketErr  error
}

func New(opts Options, logger *slog.Logger) (*Client, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		return nil, ErrNotConfigured
	}
	bucket := strings.TrimSpace(opts.Bucket)
	if bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}
	mc, err := minio.New(hostOf(endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(opts.AccessKey), strings.TrimSpace(opts.SecretKey), ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}
	base := strings.TrimSpace(opts.PublicEndpoint)
	if base == "" {
		base = endpoint
	}
	if !strings.Contains(base, "://") {
		scheme := "http://"
		if opts.UseSSL {
			scheme = "https://"
		}
		base = scheme + base
	}
	return &Client{bucket: bucket, baseURL: strings.TrimRight(base, "/"), client: mc, logger: logger}, nil
}

func (c *Client) Upload(ctx context.Context, key string, reader io.Reader, contentType string) (string, error) {
	if reader == nil {
		return "", errors.New("s3: reader is required")
	}
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" {
		return "", errors.New("s3: object key is required")
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if !imageTypes[contentType] {
		return "", ErrUnsupportedImage
	}
	if err := c.ensureBucket(ctx); err != nil {
		return "", err
	}
	info, err := c.client.PutObject(ctx, c.bucket, key, reader, -1, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("s3: put object: %w", err)
	}
	publicURL := c.ObjectURL(key)
	if c.logger != nil {
		c.logger.Info("photo stored", "bucket", c.bucket, "key", key, "size", info.Size)
	}
	return publicURL, nil
}

// Ping backs the readiness check.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.client.BucketExists(ctx, c.bucket); err != nil {
		return fmt.Errorf("s3: %w", err)
	}
	return nil
}

func (c *Client) ObjectURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, c.bucket, strings.TrimLeft(key, "/"))
}

func (c *Client) ensureBucket(ctx context.Context) error {
	c.bucketOnce.Do(func() {
		exists, err := c.client.BucketExists(ctx, c.bucket)
		if err != nil {
			c.bucketErr = fmt.Errorf("s3: check bucket: %w", err)
			return
		}
		if exists {
			return
		}
		if err := c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			c.bucketErr = fmt.Errorf("s3: create bucket: %w", err)
			return
		}
		policy := fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, c.bucket)
		if err := c.client.SetBucketPolicy(ctx, c.bucket, policy); err != nil {
			c.bucketErr = fmt.Errorf("s3: set bucket policy: %w", err)
		}
	})
	return c.bucketErr
}

func hostOf(endpoint string) string {
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return endpoint
}

// NoopUploader rejects uploads when no bucket is configured.
type NoopUploader struct{}

func (NoopUploader) Upload(context.Context, string, io.Reader, string) (string, error) {
	return "", ErrNotConfigured
}

var (
	_ Uploader = (*Client)(nil)
	_ Uploader = NoopUploader{}
)
