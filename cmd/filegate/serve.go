package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/filegate/config"
	filegatehttp "github.com/sagarc03/filegate/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the Filegate HTTP server.

The metadata schema is created first when database.auto_migrate is set, and
is always validated before the server accepts requests.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "HTTP server port (env: FILEGATE_SERVER_PORT)")
	serveCmd.Flags().Bool("verify-upload", false, "check the object exists before confirming (env: FILEGATE_SERVICE_VERIFY_UPLOAD)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	db, err := openDatabase(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	service, err := newFileService(ctx, cfg, db.GetRepo())
	if err != nil {
		return err
	}

	handler := filegatehttp.NewHandler(&filegatehttp.HandlerConfig{
		CORS:           cfg.CORS,
		RequestTimeout: config.Seconds(cfg.Server.RequestTimeout),
		Health:         db,
	}, service)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadTimeout:       config.Seconds(cfg.Server.ReadTimeout),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      config.Seconds(cfg.Server.WriteTimeout),
		IdleTimeout:       120 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case <-sigCh:
		case <-ctx.Done():
			return
		}

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.Seconds(cfg.Server.ShutdownTimeout))
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr, "env", cfg.Env)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	// In-flight requests drain before the database is closed.
	<-shutdownDone
	return nil
}
