// Package filestore turns content file references into URLs the client can
// download from. Bytes never pass through the store.
package filestore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Linker resolves a file reference into a download URL.
type Linker interface {
	DownloadURL(ctx context.Context, fileRef string) (string, error)
}

type S3Config struct {
	Region       string
	AccessKey    string
	SecretKey    string
	Bucket       string
	BaseEndpoint string
	TTL          time.Duration
}

// S3Presigner signs GET URLs for bucket keys on an S3-compatible backend
// (MinIO in development).
type S3Presigner struct {
	client *s3.PresignClient
	bucket string
	ttl    time.Duration
}

func NewS3Presigner(ctx context.Context, c S3Config) (*S3Presigner, error) {
	if c.Bucket == "" {
		return nil, fmt.Errorf("filestore: bucket is required")
	}

	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("filestore: load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	ttl := c.TTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &S3Presigner{client: newS3PresignClient(client), bucket: c.Bucket, ttl: ttl}, nil
}

// DownloadURL passes absolute http(s) references through and presigns
// everything else as a key in the configured bucket.
func (p *S3Presigner) DownloadURL(ctx context.Context, fileRef string) (string, error) {
	if IsAbsoluteURL(fileRef) {
		return fileRef, nil
	}

	key := strings.TrimPrefix(fileRef, "/")
	req, err := presignGetObject(p.client, ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(p.ttl))
	if err != nil {
		return "", fmt.Errorf("filestore: presign %s: %w", key, err)
	}
	return req.URL, nil
}

// Passthrough returns absolute references unchanged and nothing for keys.
type Passthrough struct{}

func (Passthrough) DownloadURL(_ context.Context, fileRef string) (string, error) {
	if IsAbsoluteURL(fileRef) {
		return fileRef, nil
	}
	return "", nil
}

func IsAbsoluteURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
