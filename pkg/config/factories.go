package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mitchellh/mapstructure"

	"github.com/modelibr/assetdav/internal/logger"
	"github.com/modelibr/assetdav/pkg/blob"
	blobfs "github.com/modelibr/assetdav/pkg/blob/fs"
	blobmemory "github.com/modelibr/assetdav/pkg/blob/memory"
	blobs3 "github.com/modelibr/assetdav/pkg/blob/s3"
	"github.com/modelibr/assetdav/pkg/catalog"
	"github.com/modelibr/assetdav/pkg/catalog/memory"
	"github.com/modelibr/assetdav/pkg/catalog/sqlstore"
	"github.com/modelibr/assetdav/pkg/texture/cache"
)

// decode decodes a store section into out, accepting duration strings such
// as "30s".
func decode(options map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	return decoder.Decode(options)
}

// CreateCatalog creates the catalog backend selected by cfg.Type.
//
// Parameters:
//   - ctx: Context for store initialization
//   - cfg: Catalog configuration with type and type-specific options
//
// Returns:
//   - catalog.Store: Initialized catalog
//   - error: Configuration or initialization error
func CreateCatalog(ctx context.Context, cfg *CatalogConfig) (catalog.Store, error) {
	switch cfg.Type {
	case "memory":
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logger.Info("Catalog: in-memory (contents are lost on restart)")
		return memory.NewMemoryCatalog(memory.MemoryCatalogConfig{}), nil
	case "sqlite":
		return createSQLiteCatalog(ctx, cfg.SQLite)
	default:
		return nil, fmt.Errorf("unknown catalog type: %q (supported: memory, sqlite)", cfg.Type)
	}
}

func createSQLiteCatalog(ctx context.Context, options map[string]any) (catalog.Store, error) {
	storeCfg, err := SQLiteOptions(&CatalogConfig{SQLite: options})
	if err != nil {
		return nil, err
	}

	store, err := sqlstore.NewSQLCatalog(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite catalog: %w", err)
	}

	logger.Info("Catalog: sqlite path=%s", storeCfg.Path)
	return store, nil
}

// CreateBlobStore creates the blob store selected by cfg.Type.
func CreateBlobStore(ctx context.Context, cfg *BlobsConfig) (blob.WritableStore, error) {
	switch cfg.Type {
	case "filesystem":
		return createFilesystemBlobStore(ctx, cfg.Filesystem)
	case "memory":
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logger.Info("Blob store: in-memory (contents are lost on restart)")
		return blobmemory.NewMemoryBlobStore(), nil
	case "s3":
		return createS3BlobStore(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown blob store type: %q (supported: filesystem, memory, s3)", cfg.Type)
	}
}

func createFilesystemBlobStore(ctx context.Context, options map[string]any) (blob.WritableStore, error) {
	type FilesystemBlobStoreConfig struct {
		Path string `mapstructure:"path"`
	}

	var storeCfg FilesystemBlobStoreConfig
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode filesystem blob store config: %w", err)
	}

	if storeCfg.Path == "" {
		return nil, fmt.Errorf("filesystem blob store: path is required")
	}

	store, err := blobfs.NewFSBlobStore(ctx, storeCfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem blob store: %w", err)
	}

	logger.Info("Blob store: filesystem path=%s", storeCfg.Path)
	return store, nil
}

// S3BlobStoreOptions is the blobs.s3 configuration section.
type S3BlobStoreOptions struct {
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	KeyPrefix       string `mapstructure:"key_prefix"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	MaxRetries      int    `mapstructure:"max_retries"`
	SkipBucketCheck bool   `mapstructure:"skip_bucket_check"`
}

func createS3BlobStore(ctx context.Context, options map[string]any) (blob.WritableStore, error) {
	var storeCfg S3BlobStoreOptions
	if err := decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode S3 blob store config: %w", err)
	}

	if storeCfg.Bucket == "" {
		return nil, fmt.Errorf("S3 blob store: bucket is required")
	}
	if storeCfg.Region == "" {
		return nil, fmt.Errorf("S3 blob store: region is required")
	}

	client, err := newS3Client(ctx, storeCfg)
	if err != nil {
		return nil, err
	}

	store, err := blobs3.NewS3BlobStore(ctx, blobs3.S3BlobStoreConfig{
		Client:          client,
		Bucket:          storeCfg.Bucket,
		KeyPrefix:       storeCfg.KeyPrefix,
		SkipBucketCheck: storeCfg.SkipBucketCheck,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 blob store: %w", err)
	}

	logger.Info("Blob store: S3 bucket=%s, region=%s, prefix=%s",
		storeCfg.Bucket, storeCfg.Region, storeCfg.KeyPrefix)
	return store, nil
}

// newS3Client builds an S3 client for AWS or an S3-compatible endpoint
// (MinIO, Localstack).
func newS3Client(ctx context.Context, opts S3BlobStoreOptions) (*s3.Client, error) {
	// Step 1: Build AWS config options
	var configOptions []func(*awsConfig.LoadOptions) error

	configOptions = append(configOptions, awsConfig.WithRegion(opts.Region))

	if opts.Endpoint != "" {
		//nolint:staticcheck // global endpoint resolver still needed for S3-compatible services
		customResolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				//nolint:staticcheck // see above
				return aws.Endpoint{
					URL:               opts.Endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			},
		)
		//nolint:staticcheck // see above
		configOptions = append(configOptions, awsConfig.WithEndpointResolverWithOptions(customResolver))
	}

	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			opts.AccessKeyID,
			opts.SecretAccessKey,
			"",
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	maxRetries := opts.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	// Step 2: Load AWS config
	cfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Step 3: Create S3 client. Custom endpoints need path-style addressing.
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.UsePathStyle = true
		}
	}), nil
}

// CreateDerivedCache creates the derived texture cache selected by cfg.Type.
func CreateDerivedCache(ctx context.Context, cfg *DerivedCacheConfig) (cache.Cache, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case "none":
		return cache.NewNoneCache(), nil
	case "memory":
		type MemoryCacheOptions struct {
			MaxEntries int `mapstructure:"max_entries"`
		}
		var opts MemoryCacheOptions
		if err := decode(cfg.Memory, &opts); err != nil {
			return nil, fmt.Errorf("failed to decode memory cache config: %w", err)
		}
		c, err := cache.NewMemoryCache(opts.MaxEntries)
		if err != nil {
			return nil, err
		}
		logger.Info("Derived cache: memory max_entries=%d", opts.MaxEntries)
		return c, nil
	case "badger":
		var opts cache.BadgerCacheConfig
		if err := decode(cfg.Badger, &opts); err != nil {
			return nil, fmt.Errorf("failed to decode badger cache config: %w", err)
		}
		if opts.TTL < 0 {
			return nil, fmt.Errorf("badger cache: ttl must be >= 0, got %v", opts.TTL)
		}
		c, err := cache.NewBadgerCache(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to create badger cache: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown derived cache type: %q (supported: none, memory, badger)", cfg.Type)
	}
}

// SQLiteOptions decodes the catalog.sqlite section. The migrate command
// uses it to open the database with migrations forced on.
func SQLiteOptions(cfg *CatalogConfig) (sqlstore.SQLiteCatalogConfig, error) {
	var storeCfg sqlstore.SQLiteCatalogConfig
	if err := decode(cfg.SQLite, &storeCfg); err != nil {
		return storeCfg, fmt.Errorf("failed to decode sqlite catalog config: %w", err)
	}
	if storeCfg.Path == "" {
		return storeCfg, fmt.Errorf("sqlite catalog: path is required")
	}
	return storeCfg, nil
}
