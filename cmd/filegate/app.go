package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sagarc03/filegate"
	"github.com/sagarc03/filegate/blob"
	"github.com/sagarc03/filegate/config"
	"github.com/sagarc03/filegate/database"
)

// openDatabase opens the metadata backend. With migrate set the tables are
// created regardless of database.auto_migrate.
func openDatabase(ctx context.Context, cfg *config.Config, migrate bool) (database.Database, error) {
	dbCfg := cfg.Database
	dbCfg.AutoMigrate = dbCfg.AutoMigrate || migrate

	db, err := database.Open(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	slog.Info("connected to database", "type", dbCfg.Type, "table", dbCfg.Tables.FileMeta, "migrated", dbCfg.AutoMigrate)
	return db, nil
}

// newFileService wires the object store gateway and repo into a FileService.
func newFileService(ctx context.Context, cfg *config.Config, repo filegate.MetaDataRepo) (*filegate.FileService, error) {
	blobs, err := blob.Connect(ctx, cfg.S3)
	if err != nil {
		return nil, fmt.Errorf("connect object store: %w", err)
	}

	slog.Info("object store ready", "type", cfg.S3.Type, "bucket", cfg.S3.Bucket, "expiry", cfg.S3.Expiry())

	service, err := filegate.NewFileService(repo, blobs, filegate.ServiceConfig{
		VerifyUpload:   cfg.Service.VerifyUpload,
		CleanupTimeout: config.Seconds(cfg.Service.CleanupTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}

	return service, nil
}
