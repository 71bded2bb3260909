package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelibr/assetdav/pkg/blob"
	blobtest "github.com/modelibr/assetdav/pkg/blob/testing"
)

// fakeS3 is an in-memory bucket honouring the "bytes=N-" range form.
type fakeS3 struct {
	mu      sync.Mutex
	bucket  string
	objects map[string][]byte
	gets    []string
}

func newFakeS3(bucket string) *fakeS3 {
	return &fakeS3{bucket: bucket, objects: make(map[string][]byte)}
}

func (f *fakeS3) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if aws.ToString(in.Bucket) != f.bucket {
		return nil, &types.NoSuchBucket{}
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(data)))}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	rng := aws.ToString(in.Range)
	f.gets = append(f.gets, rng)
	if rng != "" {
		start, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(rng, "bytes="), "-"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad range %q", rng)
		}
		data = data[start:]
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func TestS3BlobStore(t *testing.T) {
	suite := &blobtest.StoreTestSuite{
		NewStore: func(t *testing.T) blob.WritableStore {
			store, err := NewS3BlobStore(context.Background(), S3BlobStoreConfig{
				Client:    newFakeS3("assets"),
				Bucket:    "assets",
				KeyPrefix: "blobs/",
			})
			require.NoError(t, err)
			return store
		},
	}
	suite.Run(t)
}

func TestObjectKeyLayout(t *testing.T) {
	fake := newFakeS3("assets")
	store, err := NewS3BlobStore(context.Background(), S3BlobStoreConfig{
		Client:    fake,
		Bucket:    "assets",
		KeyPrefix: "blobs/",
	})
	require.NoError(t, err)

	hash, err := store.Put(context.Background(), []byte("key layout"))
	require.NoError(t, err)

	_, ok := fake.objects["blobs/"+hash[0:2]+"/"+hash[2:4]+"/"+hash]
	assert.True(t, ok)
}

func TestSeekIssuesRangedGet(t *testing.T) {
	fake := newFakeS3("assets")
	store, err := NewS3BlobStore(context.Background(), S3BlobStoreConfig{Client: fake, Bucket: "assets"})
	require.NoError(t, err)

	hash, err := store.Put(context.Background(), []byte("abcdefgh"))
	require.NoError(t, err)

	r, err := store.Open(context.Background(), hash)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Seek(5, io.SeekStart)
	require.NoError(t, err)
	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "fgh", string(rest))
	assert.Equal(t, []string{"bytes=5-"}, fake.gets)
}

func TestMissingBucket(t *testing.T) {
	_, err := NewS3BlobStore(context.Background(), S3BlobStoreConfig{
		Client: newFakeS3("assets"),
		Bucket: "other",
	})
	require.Error(t, err)

	var noBucket *types.NoSuchBucket
	assert.True(t, errors.As(err, &noBucket))
}

func TestConfigValidation(t *testing.T) {
	_, err := NewS3BlobStore(context.Background(), S3BlobStoreConfig{Bucket: "assets"})
	assert.Error(t, err)

	_, err = NewS3BlobStore(context.Background(), S3BlobStoreConfig{Client: newFakeS3("x")})
	assert.Error(t, err)
}
