package webdav

import (
	"fmt"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultIgnorePatterns are metadata files desktop clients probe for and try
// to write next to every folder they open.
var DefaultIgnorePatterns = []string{
	".DS_Store",
	"._*",
	".Spotlight-V100",
	".Trashes",
	".metadata_never_index*",
	"Thumbs.db",
	"desktop.ini",
	"*.tmp",
	"~$*",
}

// WebDAVConfig holds configuration parameters for the WebDAV server.
//
// Default values (applied by New if zero):
//   - Port: 8080
//   - ReadTimeout: 5m
//   - WriteTimeout: 5m
//   - IdleTimeout: 2m
//   - ShutdownTimeout: 30s
//   - MaxRequestBodyBytes: 256 MiB
//   - RateLimit: unlimited
//   - IgnorePatterns: DefaultIgnorePatterns
type WebDAVConfig struct {
	// Enabled controls whether the WebDAV adapter is active.
	Enabled bool `mapstructure:"enabled"`

	// Port is the TCP port to listen on. If 0, defaults to 8080.
	Port int `mapstructure:"port" validate:"min=0,max=65535"`

	// Prefix is an optional leading path segment (e.g. "dav") that clients
	// include when mounting. Paths without it resolve as well.
	Prefix string `mapstructure:"prefix"`

	// ReadTimeout bounds reading a full request including the body. Large
	// uploads need a generous value.
	ReadTimeout time.Duration `mapstructure:"read_timeout" validate:"min=0"`

	// WriteTimeout bounds writing a response. Large downloads need a
	// generous value.
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"min=0"`

	// IdleTimeout closes keep-alive connections idle for this long.
	IdleTimeout time.Duration `mapstructure:"idle_timeout" validate:"min=0"`

	// ShutdownTimeout is the maximum duration to wait for in-flight
	// requests during graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`

	// MaxRequestBodyBytes caps PUT bodies. Larger uploads get 413.
	MaxRequestBodyBytes int64 `mapstructure:"max_request_body_bytes" validate:"min=0"`

	// RateLimit throttles all requests. Zero RequestsPerSecond disables it.
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// IgnorePatterns are doublestar globs matched case-insensitively against
	// each path segment. Matching names never resolve and cannot be uploaded.
	IgnorePatterns []string `mapstructure:"ignore_patterns"`
}

// RateLimitConfig configures the token bucket in front of the handler.
type RateLimitConfig struct {
	RequestsPerSecond uint `mapstructure:"requests_per_second"`
	Burst             uint `mapstructure:"burst"`
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *WebDAVConfig) ApplyDefaults() {
	// Enabled defaults live in pkg/config so explicit false survives.
	if c.Port <= 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 5 * time.Minute
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 5 * time.Minute
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 2 * time.Minute
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
	if c.MaxRequestBodyBytes == 0 {
		c.MaxRequestBodyBytes = 256 << 20
	}
	if c.IgnorePatterns == nil {
		c.IgnorePatterns = DefaultIgnorePatterns
	}
	c.Prefix = strings.Trim(c.Prefix, "/")
}

// Validate checks that the configuration is usable.
func (c *WebDAVConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be 0-65535", c.Port)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("invalid ReadTimeout %v: must be >= 0", c.ReadTimeout)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("invalid WriteTimeout %v: must be >= 0", c.WriteTimeout)
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("invalid IdleTimeout %v: must be >= 0", c.IdleTimeout)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid ShutdownTimeout %v: must be > 0", c.ShutdownTimeout)
	}
	if c.MaxRequestBodyBytes <= 0 {
		return fmt.Errorf("invalid MaxRequestBodyBytes %d: must be > 0", c.MaxRequestBodyBytes)
	}
	if strings.Contains(c.Prefix, "/") {
		return fmt.Errorf("invalid prefix %q: must be a single path segment", c.Prefix)
	}
	for _, p := range c.IgnorePatterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid ignore pattern %q", p)
		}
	}
	return nil
}

// ignoreMatcher reports whether a name is client junk.
type ignoreMatcher struct {
	patterns []string
}

func newIgnoreMatcher(patterns []string) *ignoreMatcher {
	m := &ignoreMatcher{patterns: make([]string, 0, len(patterns))}
	for _, p := range patterns {
		m.patterns = append(m.patterns, strings.ToLower(p))
	}
	return m
}

// Match tests a single path segment.
func (m *ignoreMatcher) Match(name string) bool {
	name = strings.ToLower(name)
	for _, p := range m.patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

// MatchPath tests every segment of a slash-separated path.
func (m *ignoreMatcher) MatchPath(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if seg != "" && m.Match(seg) {
			return true
		}
	}
	return false
}
