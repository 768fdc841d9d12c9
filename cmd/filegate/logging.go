package main

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/sagarc03/filegate/config"
)

func setupLogging(cfg *config.Config) {
	slog.SetDefault(slog.New(newLogHandler(os.Stdout, cfg.IsProduction(), parseLevel(cfg.Log.Level))))

	log.SetFlags(0)
	log.SetOutput(
		slog.NewLogLogger(
			slog.Default().Handler(),
			slog.LevelInfo,
		).Writer(),
	)
}

func newLogHandler(w io.Writer, isProd bool, level slog.Level) slog.Handler {
	if isProd {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: false,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey && len(groups) == 0 {
					return slog.String("ts", a.Value.Time().UTC().Format(time.RFC3339Nano))
				}
				return a
			},
		})
	}

	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		AddSource:  true,
		TimeFormat: "15:04:05.000",
	})
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
