package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/spf13/cobra"

	"github.com/rollcall-dev/rollcall/internal/config"
	"github.com/rollcall-dev/rollcall/internal/database/postgres"
	"github.com/rollcall-dev/rollcall/internal/gallery"
	"github.com/rollcall-dev/rollcall/internal/recognize"
	"github.com/rollcall-dev/rollcall/internal/reconciler"
	"github.com/rollcall-dev/rollcall/internal/transport"
	"github.com/rollcall-dev/rollcall/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attendance web server",
	Long: `Start the Rollcall web server.
The server exposes the student roster, attendance marking and queries,
photo recognition, stats, and report sync over a JSON API. Pending
attendance reports are reconciled on a fixed interval in the background.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().String("auth-token", "", "Bearer token required on API requests (empty disables auth)")
	serveCmd.Flags().Int("sync-interval", 15, "Minutes between background report sync runs (0 disables)")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")
	authToken := mustGetString(cmd, "auth-token")

	if authToken == "" {
		authToken = os.Getenv("WEB_AUTH_TOKEN")
	}
	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host, authToken
}

// startSyncScheduler runs the reconciler on a fixed interval so attendance
// marked offline eventually reaches the report channel without operator
// action.
func startSyncScheduler(rec *reconciler.Reconciler, intervalMinutes int) *gocron.Scheduler {
	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.SingletonModeAll()

	_, err := scheduler.Every(intervalMinutes).Minutes().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		result, err := rec.ReconcileAll(ctx)
		if err != nil {
			fmt.Printf("Background sync failed: %v\n", err)
			return
		}
		if result.Synced > 0 || result.Failed > 0 {
			fmt.Printf("Background sync: %d batches delivered, %d failed\n", result.Synced, result.Failed)
		}
	})
	if err != nil {
		fmt.Printf("Warning: failed to schedule background sync: %v\n", err)
		return scheduler
	}

	scheduler.StartAsync()
	return scheduler
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	fmt.Printf("Connecting to PostgreSQL database...\n")
	if err := postgres.Initialize(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	pool := postgres.GetGlobalPool()
	defer pool.Close()

	stores := web.Stores{
		Students:   postgres.NewStudentRepository(pool),
		Subjects:   postgres.NewSubjectRepository(pool),
		Attendance: postgres.NewAttendanceRepository(pool),
		Settings:   postgres.NewSettingRepository(pool),
	}

	encoder, err := recognize.NewHTTPEncoder(cfg.Encoder.URL, cfg.Encoder.Dim)
	if err != nil {
		return fmt.Errorf("configuring encoder client: %w", err)
	}

	idx := gallery.New(stores.Students)
	count, err := idx.Reload(context.Background())
	if err != nil {
		fmt.Printf("Warning: gallery load failed: %v\n", err)
	} else {
		fmt.Printf("Gallery loaded with %d enrolled students\n", count)
	}

	tg := transport.NewTelegram(stores.Settings, cfg.Telegram)
	rec := reconciler.New(stores.Attendance, tg)

	port, host, authToken := resolveServeHostPort(cmd)
	server := web.NewServer(cfg, port, host, authToken, stores, encoder, idx, rec)

	var scheduler *gocron.Scheduler
	if interval := mustGetInt(cmd, "sync-interval"); interval > 0 {
		scheduler = startSyncScheduler(rec, interval)
		fmt.Printf("Background report sync every %d minutes\n", interval)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		if scheduler != nil {
			scheduler.Stop()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Rollcall on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
