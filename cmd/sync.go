package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rollcall-dev/rollcall/internal/config"
	"github.com/rollcall-dev/rollcall/internal/database/postgres"
	"github.com/rollcall-dev/rollcall/internal/reconciler"
	"github.com/rollcall-dev/rollcall/internal/transport"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Send pending attendance reports",
	Long: `Deliver all pending attendance reports to the configured Telegram
channel. Reports are batched per subject and date; records are marked
synced only after confirmed delivery, so a failed batch is retried on the
next run.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}
	if err := postgres.Initialize(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	pool := postgres.GetGlobalPool()
	defer pool.Close()

	attendance := postgres.NewAttendanceRepository(pool)
	settings := postgres.NewSettingRepository(pool)
	tg := transport.NewTelegram(settings, cfg.Telegram)

	result, err := reconciler.New(attendance, tg).ReconcileAll(cmd.Context())
	if errors.Is(err, context.Canceled) {
		return err
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	fmt.Printf("Delivered %d report batches\n", result.Synced)
	if result.Failed > 0 {
		fmt.Printf("%d batches failed:\n", result.Failed)
		for _, msg := range result.Errors {
			fmt.Printf("  %s\n", msg)
		}
		return fmt.Errorf("%d report batches failed", result.Failed)
	}
	return nil
}
