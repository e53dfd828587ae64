package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config holds configuration for the S3 backend.
type S3Config struct {
	Bucket          string // S3 bucket name (required)
	Region          string // AWS region (optional, uses default chain if empty)
	AccessKeyID     string // Static credentials (optional, uses default chain if empty)
	SecretAccessKey string
	Endpoint        string // Custom endpoint for S3-compatible services (optional)
	ForcePathStyle  bool   // Path-style addressing for S3-compatible services
	BaseURL         string // Public URL prefix, e.g. a CDN in front of the bucket (optional)
}

// S3Storage stores gallery objects in an S3 bucket.
type S3Storage struct {
	client  *s3.Client
	presign *s3.PresignClient
	config  S3Config
}

// NewS3 creates an S3 backend.
//
// Example:
//
//	// MinIO
//	s3Storage, err := storage.NewS3(ctx, storage.S3Config{
//	    Bucket:         "gallery",
//	    Region:         "us-east-1",
//	    Endpoint:       "http://localhost:9000",
//	    ForcePathStyle: true,
//	})
func NewS3(ctx context.Context, config S3Config) (*S3Storage, error) {
	if config.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if config.Region != "" {
		opts = append(opts, awsconfig.WithRegion(config.Region))
	}
	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.SecretAccessKey, ""),
		))
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
		}
		o.UsePathStyle = config.ForcePathStyle
	})

	return &S3Storage{
		client:  client,
		presign: s3.NewPresignClient(client),
		config:  config,
	}, nil
}

// Put uploads r to the bucket under key.
func (s *S3Storage) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	key = cleanKey(key)
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
		Body:   r,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return key, nil
}

// URL returns BaseURL + key when configured, the custom endpoint URL for
// S3-compatible services, or the virtual-hosted AWS URL.
func (s *S3Storage) URL(key string) string {
	switch {
	case s.config.BaseURL != "":
		return joinURL(s.config.BaseURL, key)
	case s.config.Endpoint != "":
		return joinURL(joinURL(s.config.Endpoint, s.config.Bucket), key)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.config.Bucket, s.config.Region, key)
	}
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(cleanKey(key)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

func (s *S3Storage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(cleanKey(key)),
	})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, fmt.Errorf("failed to head S3 object: %w", err)
}

// SignedURL returns a pre-signed PUT URL for direct uploads.
func (s *S3Storage) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(cleanKey(key)),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}
	return req.URL, nil
}

// List pages through ListObjectsV2 for keys under prefix.
func (s *S3Storage) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.config.Bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list S3 objects: %w", err)
		}
		for _, object := range page.Contents {
			if object.Key != nil {
				keys = append(keys, *object.Key)
			}
		}
	}
	return keys, nil
}

// Close is a no-op; the S3 client holds no resources that need releasing.
func (s *S3Storage) Close() error {
	return nil
}
