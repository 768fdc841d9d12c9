package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/filegate/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the metadata table and indexes",
	Long: `Create the file metadata table and its indexes if they are missing,
then validate the schema. Safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.FromContext(ctx)
		if err != nil {
			return err
		}

		db, err := openDatabase(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		slog.Info("migration complete", "table", cfg.Database.Tables.FileMeta)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
