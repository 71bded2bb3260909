package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// Log level normalization is handled in ApplyDefaults, so validation accepts
// both uppercase and lowercase log levels.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs validation that struct tags cannot express.
func validateCustomRules(cfg *Config) error {
	if !cfg.Adapters.WebDAV.Enabled {
		return fmt.Errorf("adapters: at least one adapter must be enabled")
	}

	if err := cfg.Adapters.WebDAV.Validate(); err != nil {
		return fmt.Errorf("adapters.webdav: %w", err)
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Port == cfg.Adapters.WebDAV.Port {
		return fmt.Errorf("metrics.port: %d is already used by the WebDAV adapter", cfg.Metrics.Port)
	}

	switch cfg.Catalog.Type {
	case "sqlite":
		if path, _ := cfg.Catalog.SQLite["path"].(string); path == "" {
			return fmt.Errorf("catalog.sqlite.path: required when catalog.type is sqlite")
		}
	}

	switch cfg.Blobs.Type {
	case "filesystem":
		if path, _ := cfg.Blobs.Filesystem["path"].(string); path == "" {
			return fmt.Errorf("blobs.filesystem.path: required when blobs.type is filesystem")
		}
	case "s3":
		if bucket, _ := cfg.Blobs.S3["bucket"].(string); bucket == "" {
			return fmt.Errorf("blobs.s3.bucket: required when blobs.type is s3")
		}
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
