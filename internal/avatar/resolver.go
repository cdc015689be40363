// Package avatar turns stored avatar object keys into URLs a browser can load.
package avatar

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Swappable for tests.
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig
	presignGetObject     = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Resolver maps an avatar key to a URL. An empty key resolves to "".
type Resolver interface {
	URL(ctx context.Context, key string) (string, error)
}

// S3Config configures presigned avatar URLs.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Expires   time.Duration
}

// S3Resolver presigns GET URLs for avatar objects.
type S3Resolver struct {
	bucket  string
	expires time.Duration
	presign *s3.PresignClient
}

// NewS3Resolver builds a presign client with static credentials.
func NewS3Resolver(ctx context.Context, cfg S3Config) (*S3Resolver, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 avatar resolver: bucket is required")
	}
	if cfg.Expires <= 0 {
		cfg.Expires = 15 * time.Minute
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Resolver{
		bucket:  cfg.Bucket,
		expires: cfg.Expires,
		presign: s3.NewPresignClient(client),
	}, nil
}

func (r *S3Resolver) URL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	req, err := presignGetObject(r.presign, ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(r.expires))
	if err != nil {
		return "", fmt.Errorf("presign avatar %q: %w", key, err)
	}
	return req.URL, nil
}

// StaticResolver joins keys onto a public base URL. Absolute keys are returned as-is.
type StaticResolver struct {
	BaseURL string
}

func (r StaticResolver) URL(_ context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	if u, err := url.Parse(key); err == nil && u.IsAbs() {
		return key, nil
	}
	if r.BaseURL == "" {
		return "", nil
	}
	return strings.TrimRight(r.BaseURL, "/") + "/" + strings.TrimLeft(key, "/"), nil
}
