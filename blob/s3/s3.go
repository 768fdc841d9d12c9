// Package s3 implements filegate.BlobGateway on the AWS SDK for Go v2.
// It works against AWS S3 and any S3-compatible endpoint.
package s3

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/sagarc03/filegate"
)

var _ filegate.BlobGateway = (*Gateway)(nil)

// Config holds the settings for an S3 gateway.
type Config struct {
	Bucket   string
	Region   string
	Endpoint string
	// AccessKey and SecretKey are optional; when empty the default
	// AWS credential chain is used.
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	Expiry       time.Duration
}

// Gateway signs URLs and manages objects in a single bucket.
type Gateway struct {
	client  *awss3.Client
	presign *awss3.PresignClient
	bucket  string
	expiry  time.Duration
}

// New loads the AWS configuration and builds a gateway for cfg.Bucket.
func New(ctx context.Context, cfg Config) (*Gateway, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" || cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewFromClient(client, cfg.Bucket, cfg.Expiry)
}

// NewFromClient wraps an existing S3 client.
func NewFromClient(client *awss3.Client, bucket string, expiry time.Duration) (*Gateway, error) {
	if client == nil {
		return nil, errors.New("new s3 gateway: client is required")
	}
	if bucket == "" {
		return nil, errors.New("new s3 gateway: bucket is required")
	}
	if expiry <= 0 {
		return nil, errors.New("new s3 gateway: expiry must be positive")
	}

	return &Gateway{
		client:  client,
		presign: awss3.NewPresignClient(client),
		bucket:  bucket,
		expiry:  expiry,
	}, nil
}

func (g *Gateway) PresignPut(ctx context.Context, key, contentType string) (string, error) {
	req, err := g.presign.PresignPutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(g.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, awss3.WithPresignExpires(g.expiry))
	if err != nil {
		return "", fmt.Errorf("presign put %q: %w", key, err)
	}
	return req.URL, nil
}

func (g *Gateway) PresignGet(ctx context.Context, key string) (string, error) {
	req, err := g.presign.PresignGetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	}, awss3.WithPresignExpires(g.expiry))
	if err != nil {
		return "", fmt.Errorf("presign get %q: %w", key, err)
	}
	return req.URL, nil
}

func (g *Gateway) Delete(ctx context.Context, key string) error {
	_, err := g.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}

func (g *Gateway) Exists(ctx context.Context, key string) (bool, error) {
	_, err := g.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("head object %q: %w", key, err)
	}
	return true, nil
}

func (g *Gateway) Expiry() time.Duration {
	return g.expiry
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
