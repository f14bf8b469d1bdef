package cmd

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/rollcall-dev/rollcall/internal/config"
	"github.com/rollcall-dev/rollcall/internal/database"
	"github.com/rollcall-dev/rollcall/internal/database/postgres"
	"github.com/rollcall-dev/rollcall/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show attendance statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().String("date", "", "Civil date (YYYY-MM-DD) to report on")
	statsCmd.Flags().Int64("subject", 0, "Subject ID to report on")
	statsCmd.Flags().String("branch", "", "Branch filter")
	statsCmd.Flags().Int("semester", 0, "Semester filter")
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}
	if err := postgres.Initialize(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	pool := postgres.GetGlobalPool()
	defer pool.Close()

	filter := database.AttendanceFilter{
		Date:      mustGetString(cmd, "date"),
		SubjectID: mustGetInt64(cmd, "subject"),
		Branch:    mustGetString(cmd, "branch"),
		Semester:  mustGetInt(cmd, "semester"),
	}

	summary, err := stats.New(postgres.NewAttendanceRepository(pool)).Summarize(cmd.Context(), filter)
	if err != nil {
		return err
	}

	fmt.Printf("Total students: %d\n", summary.Total)
	fmt.Printf("Present:        %d\n", summary.Present)
	fmt.Printf("Absent:         %d\n", summary.Absent)
	fmt.Printf("Attendance:     %.2f%%\n", summary.Percentage)

	if len(summary.BySubject) > 0 {
		fmt.Println("\nPresent by subject:")
		printBreakdown(summary.BySubject)
	}
	if len(summary.ByBranch) > 0 {
		fmt.Println("\nPresent by branch:")
		printBreakdown(summary.ByBranch)
	}
	return nil
}

func printBreakdown(counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-30s %d\n", k, counts[k])
	}
}
