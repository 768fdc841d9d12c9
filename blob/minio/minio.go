// Package minio implements filegate.BlobGateway on the MinIO Go client.
package minio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sagarc03/filegate"
)

// compile-time check that Client satisfies the BlobGateway interface.
var _ filegate.BlobGateway = (*Client)(nil)

// Config holds the settings for a MinIO gateway.
type Config struct {
	// Endpoint is host[:port] without a scheme.
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	// Region skips the bucket location lookup when set.
	Region string
	UseSSL bool
	Expiry time.Duration
}

// Client wraps the MinIO SDK and implements filegate.BlobGateway.
type Client struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

// New creates a new MinIO storage client.
func New(cfg Config) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("minio new client: bucket is required")
	}
	if cfg.Expiry <= 0 {
		return nil, errors.New("minio new client: expiry must be positive")
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new client: %w", err)
	}

	return &Client{
		client: mc,
		bucket: cfg.Bucket,
		expiry: cfg.Expiry,
	}, nil
}

// EnsureBucket creates the bucket if it does not already exist.
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.client.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}

	if err := c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("make bucket: %w", err)
	}
	return nil
}

// PresignPut signs a PUT with the Content-Type header included in the signature.
func (c *Client) PresignPut(ctx context.Context, objectKey, contentType string) (string, error) {
	headers := http.Header{}
	headers.Set("Content-Type", contentType)

	u, err := c.client.PresignHeader(ctx, http.MethodPut, c.bucket, objectKey, c.expiry, url.Values{}, headers)
	if err != nil {
		return "", fmt.Errorf("presign put %q: %w", objectKey, err)
	}
	return u.String(), nil
}

func (c *Client) PresignGet(ctx context.Context, objectKey string) (string, error) {
	u, err := c.client.PresignedGetObject(ctx, c.bucket, objectKey, c.expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign get %q: %w", objectKey, err)
	}
	return u.String(), nil
}

// Delete removes an object from the bucket by key.
func (c *Client) Delete(ctx context.Context, objectKey string) error {
	err := c.client.RemoveObject(ctx, c.bucket, objectKey, minio.RemoveObjectOptions{})
	if err != nil && !isNoSuchKey(err) {
		return fmt.Errorf("remove object %q: %w", objectKey, err)
	}
	return nil
}

func (c *Client) Exists(ctx context.Context, objectKey string) (bool, error) {
	_, err := c.client.StatObject(ctx, c.bucket, objectKey, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat object %q: %w", objectKey, err)
	}
	return true, nil
}

func (c *Client) Expiry() time.Duration {
	return c.expiry
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || (resp.StatusCode == http.StatusNotFound && resp.Code != "NoSuchBucket")
}
