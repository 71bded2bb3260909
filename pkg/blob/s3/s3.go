// Package s3 stores blobs in an S3-compatible bucket under
// <prefix>ab/cd/<hash> keys.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/modelibr/assetdav/pkg/blob"
)

// API is the subset of the S3 client used by the store.
type API interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3BlobStoreConfig configures the S3 blob store.
type S3BlobStoreConfig struct {
	Client API

	Bucket string

	// KeyPrefix is prepended verbatim to every object key, e.g. "blobs/".
	KeyPrefix string

	// SkipBucketCheck disables the HeadBucket probe at construction.
	SkipBucketCheck bool
}

// S3BlobStore is a blob.WritableStore backed by S3.
type S3BlobStore struct {
	client    API
	bucket    string
	keyPrefix string
}

var _ blob.WritableStore = (*S3BlobStore)(nil)

// NewS3BlobStore validates the configuration and verifies bucket access.
func NewS3BlobStore(ctx context.Context, cfg S3BlobStoreConfig) (*S3BlobStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	if !cfg.SkipBucketCheck {
		if _, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
			return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
		}
	}

	return &S3BlobStore{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

func (s *S3BlobStore) objectKey(hash string) (string, error) {
	rel, err := blob.Path(hash)
	if err != nil {
		return "", err
	}
	return s.keyPrefix + rel, nil
}

func (s *S3BlobStore) Open(ctx context.Context, hash string) (blob.Reader, error) {
	size, err := s.Size(ctx, hash)
	if err != nil {
		return nil, err
	}
	key, _ := s.objectKey(hash)

	return &rangeReader{
		ctx:    ctx,
		client: s.client,
		bucket: s.bucket,
		key:    key,
		size:   size,
	}, nil
}

func (s *S3BlobStore) Size(ctx context.Context, hash string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	key, err := s.objectKey(hash)
	if err != nil {
		return 0, err
	}

	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, fmt.Errorf("blob %s: %w", hash, blob.ErrBlobNotFound)
		}
		return 0, fmt.Errorf("failed to head object: %w", err)
	}
	if out.ContentLength == nil {
		return 0, fmt.Errorf("content length not available for %s", hash)
	}
	return *out.ContentLength, nil
}

func (s *S3BlobStore) Exists(ctx context.Context, hash string) (bool, error) {
	_, err := s.Size(ctx, hash)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, blob.ErrBlobNotFound) {
		return false, nil
	}
	return false, err
}

func (s *S3BlobStore) Put(ctx context.Context, data []byte) (string, error) {
	hash := blob.Hash(data)

	exists, err := s.Exists(ctx, hash)
	if err != nil {
		return "", err
	}
	if exists {
		return hash, nil
	}

	key, _ := s.objectKey(hash)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object: %w", err)
	}
	return hash, nil
}

// isNotFound matches both the typed NoSuchKey error from GetObject and the
// bare 404 NotFound that HeadObject returns.
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
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
