package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modelibr/assetdav/internal/logger"
	"github.com/modelibr/assetdav/pkg/catalog/sqlstore"
	"github.com/modelibr/assetdav/pkg/catalog/sqlstore/migrations"
	"github.com/modelibr/assetdav/pkg/config"
	"github.com/modelibr/assetdav/pkg/seed"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			path string
			err  error
		)
		if configPath != "" {
			path, err = config.InitConfigAt(configPath, initForce)
		} else {
			path, err = config.InitConfig(initForce)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Configuration written to %s\n", path)
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending catalog schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Catalog.Type != "sqlite" {
			return fmt.Errorf("catalog type %q has no schema to migrate", cfg.Catalog.Type)
		}

		opts, err := config.SQLiteOptions(&cfg.Catalog)
		if err != nil {
			return err
		}
		opts.AutoMigrate = true

		store, err := sqlstore.NewSQLCatalog(cmd.Context(), opts)
		if err != nil {
			return err
		}
		defer store.Close()

		status, err := migrations.CheckStatus(store.DB())
		if err != nil {
			return err
		}
		fmt.Printf("Catalog schema at version %d (latest %d)\n", status.Current, status.Latest)
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the catalog with a demo project",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runSeed(cmd.Context(), cfg)
	},
}

func runSeed(ctx context.Context, cfg *config.Config) error {
	if cfg.Catalog.Type == "memory" || cfg.Blobs.Type == "memory" {
		logger.Warn("Seeding in-memory stores; the data is lost when this command exits")
	}

	store, err := config.CreateCatalog(ctx, &cfg.Catalog)
	if err != nil {
		return err
	}
	defer store.Close()

	blobs, err := config.CreateBlobStore(ctx, &cfg.Blobs)
	if err != nil {
		return err
	}

	res, err := seed.Demo(ctx, store, blobs)
	if errors.Is(err, seed.ErrAlreadySeeded) {
		fmt.Println("Catalog already seeded")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("Seeded project %q (id=%d) and pack %q (id=%d)\n",
		res.Project.Name, res.Project.ID, res.Pack.Name, res.Pack.ID)
	return nil
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config file")
}
