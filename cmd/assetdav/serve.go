package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/modelibr/assetdav/internal/logger"
	"github.com/modelibr/assetdav/pkg/commands"
	"github.com/modelibr/assetdav/pkg/config"
	"github.com/modelibr/assetdav/pkg/selection"
	"github.com/modelibr/assetdav/pkg/server"
	"github.com/modelibr/assetdav/pkg/texture"
	"github.com/modelibr/assetdav/pkg/vfs"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the WebDAV server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg)
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger.Info("assetdav starting")
	logger.Debug("Log level set to: %s", cfg.Logging.Level)

	catalogStore, err := config.CreateCatalog(ctx, &cfg.Catalog)
	if err != nil {
		return err
	}
	defer func() {
		if err := catalogStore.Close(); err != nil {
			logger.Error("Failed to close catalog: %v", err)
		}
	}()

	blobStore, err := config.CreateBlobStore(ctx, &cfg.Blobs)
	if err != nil {
		return err
	}

	derivedCache, err := config.CreateDerivedCache(ctx, &cfg.DerivedCache)
	if err != nil {
		return err
	}
	defer func() {
		if err := derivedCache.Close(); err != nil {
			logger.Error("Failed to close derived cache: %v", err)
		}
	}()

	slot := selection.NewSlot()
	metricsResult := config.InitializeMetrics(cfg, map[string]http.Handler{
		"/selection": selection.Handler(slot, catalogStore),
	})

	resolver, err := vfs.NewResolver(vfs.ResolverConfig{
		Catalog:   catalogStore,
		Blobs:     blobStore,
		Deriver:   texture.NewDeriver(blobStore, derivedCache, metricsResult.DerivedMetrics),
		Selection: slot,
		Commands:  commands.NewService(catalogStore, blobStore),
		Prefix:    cfg.Adapters.WebDAV.Prefix,
	})
	if err != nil {
		return fmt.Errorf("failed to create resolver: %w", err)
	}

	srv := server.New(resolver)
	srv.StopTimeout = cfg.Server.ShutdownTimeout

	adapters, err := config.CreateAdapters(cfg, metricsResult.WebDAVMetrics)
	if err != nil {
		return err
	}
	for _, a := range adapters {
		if err := srv.AddAdapter(a); err != nil {
			return fmt.Errorf("failed to add %s adapter: %w", a.Protocol(), err)
		}
	}

	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if metricsResult.Server != nil {
		go func() {
			if err := metricsResult.Server.Start(serveCtx); err != nil {
				logger.Error("Admin server error: %v", err)
			}
		}()
	}

	err = srv.Serve(serveCtx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
