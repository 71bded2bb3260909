// Package sqlstore implements catalog.Store on SQLite through GORM.
//
// The schema is managed by golang-migrate (see the migrations sub-package).
// Graph reads use GORM preloading, which issues one query per relation rather
// than a single wide join, keeping result sets proportional to the data.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/modelibr/assetdav/internal/logger"
	"github.com/modelibr/assetdav/pkg/catalog"
	"github.com/modelibr/assetdav/pkg/catalog/sqlstore/migrations"
)

// SQLiteCatalogConfig configures the SQLite catalog.
type SQLiteCatalogConfig struct {
	// Path is the database file. Parent directories are created as needed.
	Path string `mapstructure:"path"`

	// BusyTimeout bounds how long a connection waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`

	// AutoMigrate applies pending migrations when the store opens. When false
	// the store refuses to open a database that is not up to date.
	AutoMigrate bool `mapstructure:"auto_migrate"`

	// LogQueries logs every SQL statement at DEBUG level.
	LogQueries bool `mapstructure:"log_queries"`
}

// SQLCatalog is a catalog.Store backed by SQLite.
type SQLCatalog struct {
	db    *gorm.DB
	sqlDB *sql.DB
}

var _ catalog.Store = (*SQLCatalog)(nil)

// gormWriter routes GORM's logger through the application logger.
type gormWriter struct{}

func (gormWriter) Printf(format string, args ...any) {
	logger.Debug(format, args...)
}

// NewSQLCatalog opens (and optionally migrates) the database at cfg.Path.
func NewSQLCatalog(ctx context.Context, cfg SQLiteCatalogConfig) (*SQLCatalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite catalog: path is required")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}

	logLevel := gormlogger.Silent
	if cfg.LogQueries {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(sqlite.Open(dsn(cfg)), &gorm.Config{
		Logger: gormlogger.New(gormWriter{}, gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access catalog connection pool: %w", err)
	}

	if cfg.AutoMigrate {
		if err := migrations.MigrateUp(sqlDB); err != nil {
			sqlDB.Close()
			return nil, err
		}
	} else if err := migrations.CheckDBMigrationStatus(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("catalog schema not ready (run 'assetdav migrate'): %w", err)
	}

	logger.Info("SQLite catalog opened: path=%s", cfg.Path)

	return &SQLCatalog{db: db, sqlDB: sqlDB}, nil
}

func dsn(cfg SQLiteCatalogConfig) string {
	q := url.Values{}
	q.Set("_foreign_keys", "on")
	q.Set("_busy_timeout", fmt.Sprintf("%d", cfg.BusyTimeout.Milliseconds()))
	q.Set("_journal_mode", "WAL")
	return "file:" + cfg.Path + "?" + q.Encode()
}

// DB exposes the underlying connection pool for maintenance commands.
func (s *SQLCatalog) DB() *sql.DB {
	return s.sqlDB
}

func (s *SQLCatalog) Close() error {
	return s.sqlDB.Close()
}

func (s *SQLCatalog) Session(ctx context.Context) (catalog.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &session{db: s.db.Session(&gorm.Session{Context: ctx})}, nil
}

func ioError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &catalog.StoreError{Code: catalog.ErrIOError, Message: op + " failed", Err: err}
}

func invalid(format string, args ...any) error {
	return &catalog.StoreError{Code: catalog.ErrInvalidArgument, Message: fmt.Sprintf(format, args...)}
}
