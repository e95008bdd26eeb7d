package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Uploader stores a finished file under a key and returns where it ended up
type Uploader interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

// S3Uploader uploads exports to an S3 bucket under a fixed prefix
type S3Uploader struct {
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewS3Uploader builds an uploader from the default AWS credential chain
func NewS3Uploader(ctx context.Context, bucket, region, prefix string) (*S3Uploader, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	var optFns []func(*awsconfig.LoadOptions) error
	if region != "" {
		optFns = append(optFns, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return NewS3UploaderFromClient(s3.NewFromConfig(cfg), bucket, prefix), nil
}

// NewS3UploaderFromClient wraps an existing S3 client
func NewS3UploaderFromClient(client manager.UploadAPIClient, bucket, prefix string) *S3Uploader {
	return &S3Uploader{
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   prefix,
	}
}

// Upload puts body at prefix/key and returns an s3:// location
func (u *S3Uploader) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	objectKey := ObjectKey(u.prefix, key)
	input := &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(objectKey),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := u.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload %s to s3: %w", objectKey, err)
	}
	return Location(u.bucket, objectKey), nil
}

// ObjectKey joins a prefix and a file name into an object key
func ObjectKey(prefix, name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// Location formats a bucket and key as an s3:// URI
func Location(bucket, key string) string {
	return "s3://" + bucket + "/" + key
}
