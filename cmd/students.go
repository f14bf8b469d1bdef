package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rollcall-dev/rollcall/internal/config"
	"github.com/rollcall-dev/rollcall/internal/database"
	"github.com/rollcall-dev/rollcall/internal/database/postgres"
)

var studentsCmd = &cobra.Command{
	Use:   "students",
	Short: "List enrolled students",
	RunE:  runStudents,
}

func init() {
	rootCmd.AddCommand(studentsCmd)

	studentsCmd.Flags().String("branch", "", "Branch filter")
	studentsCmd.Flags().Int("semester", 0, "Semester filter")
	studentsCmd.Flags().String("section", "", "Section filter")
	studentsCmd.Flags().String("q", "", "Name search, ignoring case and diacritics")
}

func runStudents(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}
	if err := postgres.Initialize(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	pool := postgres.GetGlobalPool()
	defer pool.Close()

	repo := postgres.NewStudentRepository(pool)
	students, err := repo.List(cmd.Context(), database.StudentFilter{
		Branch:   mustGetString(cmd, "branch"),
		Semester: mustGetInt(cmd, "semester"),
		Section:  mustGetString(cmd, "section"),
	})
	if err != nil {
		return fmt.Errorf("listing students: %w", err)
	}

	query := mustGetString(cmd, "q")
	shown := 0
	for _, s := range students {
		if query != "" && !database.MatchesName(s.Name, query) {
			continue
		}
		fmt.Printf("%-12s %-30s %-6s sem %d %s\n", s.RollNo, s.Name, s.Branch, s.Semester, s.Section)
		shown++
	}
	fmt.Printf("\n%d students\n", shown)
	return nil
}
