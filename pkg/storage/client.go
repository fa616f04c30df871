package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"dgtech/pkg/config"
)

// ErrDisabled is returned when no storage endpoint is configured.
var ErrDisabled = errors.New("storage service not configured")

// Client stores deliverable files, one bucket per project.
type Client struct {
	mc      *minio.Client
	enabled bool
}

// NewClient builds a storage client. An empty endpoint yields a disabled
// client whose operations return ErrDisabled.
func NewClient(cfg config.StorageConfig) (*Client, error) {
	if cfg.Endpoint == "" {
		return &Client{enabled: false}, nil
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &Client{mc: mc, enabled: true}, nil
}

// BucketForProject returns the bucket holding a project's deliverables.
func BucketForProject(projectID int64) string {
	return fmt.Sprintf("project-%d", projectID)
}

func (c *Client) ensureBucket(ctx context.Context, bucket string) error {
	exists, err := c.mc.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return c.mc.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
}

// PutObject uploads reader under key in the project bucket and returns the
// file reference stored on the deliverable row.
func (c *Client) PutObject(ctx context.Context, projectID int64, key string, reader io.Reader, size int64, contentType string) (string, error) {
	if !c.enabled {
		return "", ErrDisabled
	}
	bucket := BucketForProject(projectID)
	if err := c.ensureBucket(ctx, bucket); err != nil {
		return "", err
	}
	if _, err := c.mc.PutObject(ctx, bucket, key, reader, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return "", err
	}
	return fmt.Sprintf("s3://%s/%s", bucket, key), nil
}

// PresignedGetURL returns a time-limited download URL for key.
func (c *Client) PresignedGetURL(ctx context.Context, projectID int64, key string, expiry time.Duration) (string, error) {
	if !c.enabled {
		return "", ErrDisabled
	}
	u, err := c.mc.PresignedGetObject(ctx, BucketForProject(projectID), key, expiry, url.Values{})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// RemoveObject deletes key from the project bucket.
func (c *Client) RemoveObject(ctx context.Context, projectID int64, key string) error {
	if !c.enabled {
		return ErrDisabled
	}
	return c.mc.RemoveObject(ctx, BucketForProject(projectID), key, minio.RemoveObjectOptions{})
}

// Enabled reports whether the storage client is configured.
func (c *Client) Enabled() bool {
	return c.enabled
}
