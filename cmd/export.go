package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rollcall-dev/rollcall/internal/config"
	"github.com/rollcall-dev/rollcall/internal/database"
	"github.com/rollcall-dev/rollcall/internal/database/postgres"
	"github.com/rollcall-dev/rollcall/internal/report"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export attendance records as CSV",
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("out", "", "Output file (default stdout)")
	exportCmd.Flags().String("date", "", "Civil date (YYYY-MM-DD) filter")
	exportCmd.Flags().Int64("subject", 0, "Subject ID filter")
	exportCmd.Flags().String("branch", "", "Branch filter")
	exportCmd.Flags().Int("semester", 0, "Semester filter")
	exportCmd.Flags().String("section", "", "Section filter")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}
	if err := postgres.Initialize(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	pool := postgres.GetGlobalPool()
	defer pool.Close()

	records, err := postgres.NewAttendanceRepository(pool).Query(cmd.Context(), database.AttendanceFilter{
		Date:      mustGetString(cmd, "date"),
		SubjectID: mustGetInt64(cmd, "subject"),
		Branch:    mustGetString(cmd, "branch"),
		Semester:  mustGetInt(cmd, "semester"),
		Section:   mustGetString(cmd, "section"),
	})
	if err != nil {
		return fmt.Errorf("querying attendance: %w", err)
	}

	out := os.Stdout
	if path := mustGetString(cmd, "out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := report.WriteCSV(out, records); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	if out != os.Stdout {
		fmt.Printf("Exported %d records\n", len(records))
	}
	return nil
}
