package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/filegate/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "filegate",
	Short:   "Presigned upload and download broker for S3-compatible storage",
	Long: `Filegate hands out short-lived signed URLs so clients upload to and
download from an S3-compatible object store directly, and keeps file
metadata in a relational database.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var configFiles []string
		if path, _ := cmd.Flags().GetString("config"); path != "" {
			configFiles = []string{path}
		}
		envFile, _ := cmd.Flags().GetString("env-file")

		cfg, err := config.LoadWithEnvFile(configFiles, envFile, cmd.Flags())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		setupLogging(cfg)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().String("db-type", "", "database type: sqlite, postgres, memory (env: FILEGATE_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string (env: FILEGATE_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("bucket", "", "object store bucket (env: FILEGATE_S3_BUCKET)")
	rootCmd.PersistentFlags().String("s3-type", "", "object store client: s3, minio (env: FILEGATE_S3_TYPE)")
	rootCmd.PersistentFlags().String("s3-endpoint", "", "object store endpoint URL (env: FILEGATE_S3_ENDPOINT)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: FILEGATE_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
