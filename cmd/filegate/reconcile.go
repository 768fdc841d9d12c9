package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/filegate"
	"github.com/sagarc03/filegate/config"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Remove metadata rows whose object no longer exists",
	Long: `Walk every metadata row in id order and check its object in the store.

Rows whose object is gone are deleted. This cleans up after a delete whose
object removal succeeded but whose row removal failed. With --dry-run the
rows are only counted.`,
	RunE: runReconcile,
}

var (
	reconcileLimit  int
	reconcileDryRun bool
)

func init() {
	reconcileCmd.Flags().IntVar(&reconcileLimit, "limit", 100, "rows fetched per batch")
	reconcileCmd.Flags().BoolVar(&reconcileDryRun, "dry-run", false, "report dangling rows without deleting them")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

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

	slog.Info("starting reconcile", "limit", reconcileLimit, "dry_run", reconcileDryRun)

	report, err := service.Reconcile(ctx, filegate.ReconcileOptions{
		Limit:  reconcileLimit,
		DryRun: reconcileDryRun,
	})
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}

	slog.Info("reconcile complete",
		"scanned", report.Scanned,
		"missing", report.Missing,
		"removed", report.Removed,
	)
	return nil
}
