package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"gopkg.in/yaml.v3"
)

const sampleTemplate = `# assetdav Configuration File
#
# Values here can be overridden with ASSETDAV_* environment variables,
# e.g. ASSETDAV_LOGGING_LEVEL=DEBUG.

logging:
  # DEBUG, INFO, WARN or ERROR
  level: {{ .Logging.Level }}
  # text or json
  format: {{ .Logging.Format }}
  # stdout, stderr or a file path
  output: {{ .Logging.Output }}

server:
  shutdown_timeout: {{ .Server.ShutdownTimeout }}

# Admin server exposing /metrics and the /selection control endpoint.
metrics:
  enabled: {{ .Metrics.Enabled }}
  port: {{ .Metrics.Port }}

catalog:
  # memory or sqlite
  type: {{ .Catalog.Type }}
  sqlite:
    path: {{ quote (index .Catalog.SQLite "path") }}
    auto_migrate: {{ index .Catalog.SQLite "auto_migrate" }}
    busy_timeout: 5s

blobs:
  # filesystem, memory or s3
  type: {{ .Blobs.Type }}
  filesystem:
    path: {{ quote (index .Blobs.Filesystem "path") }}
  # s3:
  #   region: us-east-1
  #   bucket: assets
  #   key_prefix: blobs/
  #   endpoint: http://localhost:9000
  #   access_key_id: ""
  #   secret_access_key: ""

derived_cache:
  # none, memory or badger
  type: {{ .DerivedCache.Type }}
  memory:
    max_entries: {{ index .DerivedCache.Memory "max_entries" }}
  badger:
    db_path: {{ quote (index .DerivedCache.Badger "db_path") }}
    ttl: 0s

adapters:
  webdav:
    enabled: {{ .Adapters.WebDAV.Enabled }}
    port: {{ .Adapters.WebDAV.Port }}
    # Optional leading path segment, e.g. "dav"
    prefix: {{ quote .Adapters.WebDAV.Prefix }}
    read_timeout: {{ .Adapters.WebDAV.ReadTimeout }}
    write_timeout: {{ .Adapters.WebDAV.WriteTimeout }}
    idle_timeout: {{ .Adapters.WebDAV.IdleTimeout }}
    shutdown_timeout: {{ .Adapters.WebDAV.ShutdownTimeout }}
    max_request_body_bytes: {{ .Adapters.WebDAV.MaxRequestBodyBytes }}
    rate_limit:
      # 0 disables rate limiting
      requests_per_second: {{ .Adapters.WebDAV.RateLimit.RequestsPerSecond }}
      burst: {{ .Adapters.WebDAV.RateLimit.Burst }}
    # Client metadata files that are never resolved and cannot be uploaded
    ignore_patterns:
{{- range .Adapters.WebDAV.IgnorePatterns }}
      - {{ quote . }}
{{- end }}
`

var sample = template.Must(template.New("config").Funcs(template.FuncMap{
	"quote": func(v any) string {
		return fmt.Sprintf("%q", fmt.Sprint(v))
	},
}).Parse(sampleTemplate))

// RenderSample renders cfg as a commented YAML config file.
func RenderSample(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := sample.Execute(&buf, cfg); err != nil {
		return nil, fmt.Errorf("failed to render config: %w", err)
	}

	// Never write a file Load cannot read back.
	var check map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &check); err != nil {
		return nil, fmt.Errorf("rendered config is not valid YAML: %w", err)
	}

	return buf.Bytes(), nil
}

// InitConfig writes a sample configuration file to the default location.
//
// Returns the path written. Fails if a file already exists unless force is
// set.
func InitConfig(force bool) (string, error) {
	return InitConfigAt(GetDefaultConfigPath(), force)
}

// InitConfigAt writes the sample configuration to path.
func InitConfigAt(path string, force bool) (string, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	data, err := RenderSample(GetDefaultConfig())
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return path, nil
}
