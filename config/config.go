package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/filegate/blob"
	"github.com/sagarc03/filegate/database"
	filegatehttp "github.com/sagarc03/filegate/http"
)

// EnvPrefix is prepended to every environment variable override.
const EnvPrefix = "FILEGATE"

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for filegate.
type Config struct {
	Env      string                  `mapstructure:"env" validate:"required,oneof=dev development prod production"`
	Server   ServerConfig            `mapstructure:"server"`
	Service  ServiceConfig           `mapstructure:"service"`
	Database database.Config         `mapstructure:"database"`
	S3       blob.Config             `mapstructure:"s3"`
	CORS     filegatehttp.CORSConfig `mapstructure:"cors"`
	Log      LogConfig               `mapstructure:"log"`
}

// IsProduction reports whether env selects production behaviour.
func (c *Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// ServerConfig holds HTTP server configuration. Timeouts are in seconds.
type ServerConfig struct {
	Port            int `mapstructure:"port" validate:"required,min=1,max=65535"`
	ReadTimeout     int `mapstructure:"read_timeout" validate:"min=0"`
	WriteTimeout    int `mapstructure:"write_timeout" validate:"min=0"`
	ShutdownTimeout int `mapstructure:"shutdown_timeout" validate:"min=1"`
	// RequestTimeout of 0 disables the per-request timeout.
	RequestTimeout int `mapstructure:"request_timeout" validate:"min=0"`
}

// Seconds converts a seconds setting to a duration.
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	VerifyUpload   bool `mapstructure:"verify_upload"`
	CleanupTimeout int  `mapstructure:"cleanup_timeout" validate:"min=1"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"db-type":       "database.type",
	"db-dsn":        "database.dsn",
	"port":          "server.port",
	"bucket":        "s3.bucket",
	"s3-type":       "s3.type",
	"s3-endpoint":   "s3.endpoint",
	"verify-upload": "service.verify_upload",
	"log-level":     "log.level",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
// Every key needs a default so AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.shutdown_timeout", 15)
	v.SetDefault("server.request_timeout", 0)

	v.SetDefault("service.verify_upload", false)
	v.SetDefault("service.cleanup_timeout", 30)

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "filegate.db")
	v.SetDefault("database.tables.file_meta", "file_meta")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("s3.type", "s3")
	v.SetDefault("s3.bucket", "filegate")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.use_path_style", false)
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("s3.create_bucket", false)
	v.SetDefault("s3.presign.expire_seconds", 900)

	v.SetDefault("cors.enabled", false)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type", "X-User-Id", "X-Request-Id"})
	v.SetDefault("cors.exposed_headers", []string{"X-Request-Id"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("log.level", "info")
}

// loadDotEnv copies variables from a dotenv file into the process
// environment. Variables already set win. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > .env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	return LoadWithEnvFile(configFiles, ".env", flags)
}

// LoadWithEnvFile is Load with an explicit dotenv path. An empty path skips
// dotenv loading.
func LoadWithEnvFile(configFiles []string, envFile string, flags *pflag.FlagSet) (*Config, error) {
	// 1. Dotenv into the process environment
	if envFile != "" {
		if err := loadDotEnv(envFile); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	v := viper.New()

	// 2. Set defaults
	setDefaults(v)

	// 3. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 4. Bind environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 5. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 6. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 7. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if err := cfg.Database.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
