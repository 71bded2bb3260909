package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/modelibr/assetdav/pkg/adapter/webdav"
)

// Config represents the complete assetdav configuration.
//
// This structure captures all configurable aspects of the server:
//   - Logging configuration
//   - Server-wide settings and the admin/metrics endpoint
//   - Catalog backend selection (store-specific)
//   - Blob store selection (store-specific)
//   - Derived texture cache selection (store-specific)
//   - Protocol adapter configurations
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (ASSETDAV_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
//
// Store Configuration Pattern:
// Each backend defines its own configuration type and is built by a factory
// in this package. The Config struct contains type-specific sections (e.g.
// blobs.filesystem, blobs.s3) and only the section matching the selected type
// is used.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Server contains server-wide settings
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Metrics configures the admin HTTP server (/metrics and /selection)
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Catalog selects the asset catalog backend
	Catalog CatalogConfig `mapstructure:"catalog" yaml:"catalog"`

	// Blobs selects the content-addressed blob store
	Blobs BlobsConfig `mapstructure:"blobs" yaml:"blobs"`

	// DerivedCache selects where derived channel textures are cached
	DerivedCache DerivedCacheConfig `mapstructure:"derived_cache" yaml:"derived_cache"`

	// Adapters contains protocol adapter configurations
	Adapters AdaptersConfig `mapstructure:"adapters" yaml:"adapters"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// ServerConfig contains server-wide settings.
type ServerConfig struct {
	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"required,gt=0"`
}

// MetricsConfig controls the admin HTTP server.
type MetricsConfig struct {
	// Enabled starts the admin server with Prometheus collection
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port for the admin server
	Port int `mapstructure:"port" yaml:"port" validate:"omitempty,min=1,max=65535"`
}

// CatalogConfig specifies the catalog backend.
type CatalogConfig struct {
	// Type specifies which catalog implementation to use
	// Valid values: memory, sqlite
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=memory sqlite"`

	// Memory contains memory-specific configuration
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory" yaml:"memory,omitempty"`

	// SQLite contains SQLite-specific configuration
	// Only used when Type = "sqlite"
	SQLite map[string]any `mapstructure:"sqlite" yaml:"sqlite,omitempty"`
}

// BlobsConfig specifies the blob store.
type BlobsConfig struct {
	// Type specifies which blob store implementation to use
	// Valid values: filesystem, memory, s3
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=filesystem memory s3"`

	Filesystem map[string]any `mapstructure:"filesystem" yaml:"filesystem,omitempty"`
	Memory     map[string]any `mapstructure:"memory" yaml:"memory,omitempty"`
	S3         map[string]any `mapstructure:"s3" yaml:"s3,omitempty"`
}

// DerivedCacheConfig specifies the derived texture cache.
type DerivedCacheConfig struct {
	// Type specifies which cache implementation to use
	// Valid values: none, memory, badger
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=none memory badger"`

	Memory map[string]any `mapstructure:"memory" yaml:"memory,omitempty"`
	Badger map[string]any `mapstructure:"badger" yaml:"badger,omitempty"`
}

// AdaptersConfig contains all protocol adapter configurations.
type AdaptersConfig struct {
	// WebDAV uses the adapter's own config type to avoid duplication.
	WebDAV webdav.WebDAVConfig `mapstructure:"webdav" yaml:"webdav"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (ASSETDAV_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Example: ASSETDAV_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("ASSETDAV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only overrides keys viper already knows about, so the
	// scalar keys are bound explicitly for configs that omit them.
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// $XDG_CONFIG_HOME/assetdav/config.{yaml,toml}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

var envKeys = []string{
	"logging.level",
	"logging.format",
	"logging.output",
	"server.shutdown_timeout",
	"metrics.enabled",
	"metrics.port",
	"catalog.type",
	"blobs.type",
	"derived_cache.type",
	"adapters.webdav.enabled",
	"adapters.webdav.port",
	"adapters.webdav.prefix",
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "assetdav")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "assetdav")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
