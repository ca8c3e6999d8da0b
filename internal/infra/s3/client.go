package s3

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"newspaper-reader/internal/domain"
)

// Options configures the S3-compatible object store.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	Bucket    string
	UseSSL    bool
}

// Client stores uploaded newspapers in an S3-compatible bucket. It implements domain.ObjectStorage.
type Client struct {
	client *minio.Client
	bucket string
	host   string
	logger domain.Logger
}

// NewClient connects to the store and checks that the bucket exists.
func NewClient(ctx context.Context, opts Options, logger domain.Logger) (*Client, error) {
	if opts.Endpoint == "" || opts.Bucket == "" {
		return nil, fmt.Errorf("s3 endpoint and bucket must be provided")
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init S3 client: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %q does not exist", opts.Bucket)
	}

	scheme := "http"
	if opts.UseSSL {
		scheme = "https"
	}

	logger.Info("S3 storage initialized", "endpoint", opts.Endpoint, "bucket", opts.Bucket)
	return &Client{
		client: client,
		bucket: opts.Bucket,
		host:   fmt.Sprintf("%s://%s", scheme, opts.Endpoint),
		logger: logger,
	}, nil
}

// Upload puts the object and returns its public URL.
func (c *Client) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if size <= 0 {
		size = -1
	}
	info, err := c.client.PutObject(ctx, c.bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"uploaded-at": time.Now().UTC().Format(time.RFC3339)},
	})
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}

	c.logger.Debug("S3 object stored", "bucket", c.bucket, "key", key, "etag", info.ETag, "size", info.Size)
	return buildPublicURL(c.host, c.bucket, key), nil
}

func buildPublicURL(host, bucket, key string) string {
	escapedKey := url.PathEscape(path.Clean(strings.TrimPrefix(key, "/")))
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(host, "/"), bucket, escapedKey)
}

var _ domain.ObjectStorage = (*Client)(nil)
