// Package blob builds the object store gateway selected by configuration.
package blob

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/sagarc03/filegate"
	"github.com/sagarc03/filegate/blob/minio"
	"github.com/sagarc03/filegate/blob/s3"
)

// Config holds the object store settings.
type Config struct {
	// Type selects the client: "s3" (AWS SDK) or "minio"
	Type         string        `mapstructure:"type" validate:"required,oneof=s3 minio"`
	Bucket       string        `mapstructure:"bucket" validate:"required"`
	Region       string        `mapstructure:"region" validate:"required"`
	Endpoint     string        `mapstructure:"endpoint"`
	AccessKey    string        `mapstructure:"access_key"`
	SecretKey    string        `mapstructure:"secret_key"`
	UsePathStyle bool          `mapstructure:"use_path_style"`
	UseSSL       bool          `mapstructure:"use_ssl"`
	CreateBucket bool          `mapstructure:"create_bucket"`
	Presign      PresignConfig `mapstructure:"presign"`
}

type PresignConfig struct {
	// ExpireSeconds is the validity of every signed URL, at most 7 days.
	ExpireSeconds int `mapstructure:"expire_seconds" validate:"min=1,max=604800"`
}

// Expiry returns the signed URL validity as a duration.
func (c Config) Expiry() time.Duration {
	return time.Duration(c.Presign.ExpireSeconds) * time.Second
}

// Connect builds the gateway for cfg.Type. For "minio" with CreateBucket set
// the bucket is created when missing.
func Connect(ctx context.Context, cfg Config) (filegate.BlobGateway, error) {
	switch cfg.Type {
	case "s3":
		g, err := s3.New(ctx, s3.Config{
			Bucket:       cfg.Bucket,
			Region:       cfg.Region,
			Endpoint:     cfg.Endpoint,
			AccessKey:    cfg.AccessKey,
			SecretKey:    cfg.SecretKey,
			UsePathStyle: cfg.UsePathStyle,
			Expiry:       cfg.Expiry(),
		})
		if err != nil {
			return nil, fmt.Errorf("connect s3: %w", err)
		}
		return g, nil

	case "minio":
		c, err := minio.New(minio.Config{
			Endpoint:  minioHost(cfg.Endpoint),
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			UseSSL:    cfg.UseSSL,
			Expiry:    cfg.Expiry(),
		})
		if err != nil {
			return nil, fmt.Errorf("connect minio: %w", err)
		}
		if cfg.CreateBucket {
			if err := c.EnsureBucket(ctx); err != nil {
				return nil, fmt.Errorf("connect minio: %w", err)
			}
		}
		return c, nil

	default:
		return nil, fmt.Errorf("unsupported blob store type: %s", cfg.Type)
	}
}

// minioHost strips a URL scheme, since the MinIO client takes host[:port].
func minioHost(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return endpoint
	}
	return u.Host
}
