package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// =============================================================================
// Cloudflare R2 Storage
// =============================================================================

// R2Storage stores objects in a Cloudflare R2 bucket. R2 is S3-compatible,
// so the AWS SDK v2 is used with a custom endpoint.
type R2Storage struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucketName    string
	publicURL     string
	logger        *slog.Logger
}

var _ Storage = (*R2Storage)(nil)

// NewR2Storage creates an R2-backed store. The endpoint is derived from the
// account ID: https://{account_id}.r2.cloudflarestorage.com
func NewR2Storage(cfg R2Config, logger *slog.Logger) (*R2Storage, error) {
	if cfg.AccountID == "" || cfg.BucketName == "" {
		return nil, fmt.Errorf("r2 storage: account ID and bucket name are required")
	}

	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)

	creds := credentials.NewStaticCredentialsProvider(
		cfg.AccessKeyID,
		cfg.SecretAccessKey,
		"", // R2 doesn't use session tokens
	)

	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:           endpoint,
				SigningRegion: region,
			}, nil
		},
	)

	awsCfg := aws.Config{
		Region:                      region,
		Credentials:                 creds,
		EndpointResolverWithOptions: resolver,
	}

	client := s3.NewFromConfig(awsCfg)

	logger.Info("initialized R2 storage",
		"bucket", cfg.BucketName,
		"endpoint", endpoint,
	)

	return &R2Storage{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucketName:    cfg.BucketName,
		publicURL:     strings.TrimSuffix(cfg.PublicURL, "/"),
		logger:        logger,
	}, nil
}

// Put uploads data to the bucket at key.
func (s *R2Storage) Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error {
	if err := validateKey(key); err != nil {
		return &StorageError{Op: "put", Key: key, Err: err}
	}

	if !opts.Overwrite {
		exists, err := s.Exists(ctx, key)
		if err != nil {
			return &StorageError{Op: "put", Key: key, Err: err}
		}
		if exists {
			return &StorageError{Op: "put", Key: key, Err: ErrKeyExists}
		}
	}

	var reader io.Reader = data
	if opts.MaxSize > 0 {
		reader = io.LimitReader(data, opts.MaxSize+1)
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(key))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        reader,
		ContentType: aws.String(contentType),
	}
	if opts.Public {
		input.ACL = types.ObjectCannedACLPublicRead
	}

	result, err := s.client.PutObject(ctx, input)
	if err != nil {
		return &StorageError{Op: "put", Key: key, Err: wrapS3Error(err)}
	}

	s.logger.Debug("stored object",
		"key", key,
		"etag", aws.ToString(result.ETag),
		"content_type", contentType,
	)
	return nil
}

// Get downloads the object at key.
func (s *R2Storage) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	if err := validateKey(key); err != nil {
		return nil, ObjectInfo{}, &StorageError{Op: "get", Key: key, Err: err}
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, ObjectInfo{}, &StorageError{Op: "get", Key: key, Err: wrapS3Error(err)}
	}

	info := ObjectInfo{
		Key:          key,
		Size:         aws.ToInt64(result.ContentLength),
		ContentType:  aws.ToString(result.ContentType),
		LastModified: aws.ToTime(result.LastModified),
		ETag:         aws.ToString(result.ETag),
	}
	return result.Body, info, nil
}

// Delete removes the object at key. S3 deletes are idempotent.
func (s *R2Storage) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return &StorageError{Op: "delete", Key: key, Err: err}
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return &StorageError{Op: "delete", Key: key, Err: wrapS3Error(err)}
	}
	return nil
}

// URL returns the public URL when one is configured and expires is 0,
// otherwise a presigned URL valid for expires (default 15 minutes).
func (s *R2Storage) URL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if err := validateKey(key); err != nil {
		return "", &StorageError{Op: "url", Key: key, Err: err}
	}

	if s.publicURL != "" && expires == 0 {
		return s.publicURL + "/" + key, nil
	}

	if expires == 0 {
		expires = 15 * time.Minute
	}

	request, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", &StorageError{Op: "url", Key: key, Err: err}
	}
	return request.URL, nil
}

// Exists checks for the object with a HeadObject request.
func (s *R2Storage) Exists(ctx context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, &StorageError{Op: "exists", Key: key, Err: err}
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		if errors.Is(wrapS3Error(err), ErrNotFound) {
			return false, nil
		}
		return false, &StorageError{Op: "exists", Key: key, Err: wrapS3Error(err)}
	}
	return true, nil
}

// =============================================================================
// Error Mapping
// =============================================================================

// wrapS3Error maps AWS SDK errors to package sentinels.
func wrapS3Error(err error) error {
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return ErrNotFound
	}
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return ErrNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return ErrNotFound
		case "AccessDenied", "Forbidden":
			return ErrAccessDenied
		}
	}

	return fmt.Errorf("r2: %w", err)
}
