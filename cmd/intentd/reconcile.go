package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/intentd/intentd/internal/config"
	"github.com/intentd/intentd/internal/store"
	"github.com/intentd/intentd/internal/types"
	"github.com/intentd/intentd/internal/worker"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var reconcileDay string

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run outcome reconciliation once and exit",
	Long: `Reconcile outcome records without running the server.

With --day, reconciles that single YYYY-MM-DD day. Without it, runs the same
catch-up pass the server performs at startup, covering every intention-day
that has no outcome associations yet.`,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileDay, "day", "", "UTC day to reconcile (YYYY-MM-DD)")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(newLogHandler(cfg.Log))
	slog.SetDefault(logger)

	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()

	if reconcileDay != "" {
		day, err := types.ParseDay(reconcileDay)
		if err != nil {
			return err
		}

		result, err := db.ReconcileDay(ctx, day)
		if err != nil {
			return fmt.Errorf("reconcile %s: %w", reconcileDay, err)
		}

		fmt.Fprintf(os.Stdout, "reconciled %s: outcome %d, %d linked, %d skipped\n",
			reconcileDay, result.OutcomeID, result.Linked, result.Skipped)
		return nil
	}

	loc, err := cfg.SchedulerLocation()
	if err != nil {
		return err
	}

	start := time.Now()
	scheduler, err := worker.NewScheduler(db, cfg.Scheduler.FireAt, loc)
	if err != nil {
		return err
	}
	if _, err := scheduler.Bootstrap(ctx); err != nil {
		return fmt.Errorf("catch-up: %w", err)
	}

	fmt.Fprintf(os.Stdout, "catch-up completed in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}
