// Package config provides configuration loading and validation for filegate.
//
// The package handles YAML configuration files, a dotenv file, environment
// variables, and CLI flags with automatic merging and validation using
// go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (FILEGATE_ prefix), including those from .env
//  4. CLI flags
//
// A .env file never overrides a variable already present in the process
// environment.
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with FILEGATE_ prefix:
//   - server.port → FILEGATE_SERVER_PORT
//   - s3.bucket → FILEGATE_S3_BUCKET
//   - s3.presign.expire_seconds → FILEGATE_S3_PRESIGN_EXPIRE_SECONDS
//   - database.dsn → FILEGATE_DATABASE_DSN
//
// # Configuration Structure
//
// The Config struct contains:
//   - Env: dev/development or prod/production (selects the log format)
//   - Server: port and timeouts in seconds
//   - Service: verify_upload and cleanup_timeout
//   - Database: type (sqlite, postgres, memory), DSN, table names, auto_migrate
//   - S3: object store type (s3, minio), bucket, region, endpoint,
//     credentials, and presign.expire_seconds
//   - CORS: cross-origin resource sharing settings
//   - Log: logging level
//
// # Validation
//
// Configuration is validated using struct tags:
//   - Port must be 1-65535
//   - Database type must be sqlite, postgres, or memory; DSN is required
//     unless the type is memory
//   - S3 type must be s3 or minio; bucket and region are required
//   - Presign expiry must be 1-604800 seconds
//   - Log level must be debug, info, warn, or error
package config
