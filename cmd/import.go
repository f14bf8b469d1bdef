package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rollcall-dev/rollcall/internal/config"
	"github.com/rollcall-dev/rollcall/internal/database"
	"github.com/rollcall-dev/rollcall/internal/database/mariadb"
	"github.com/rollcall-dev/rollcall/internal/database/postgres"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import the student roster from a legacy MariaDB deployment",
	Long: `Import students from an existing MariaDB attendance deployment.
Face encodings stored in any of the legacy on-disk formats (raw float
bytes or JSON arrays) are decoded and normalized into the current vector
column. Students whose encoding cannot be decoded are imported without
one and must be re-enrolled. Roll numbers already present are skipped.`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("dsn", "", "MariaDB DSN, e.g. user:pass@tcp(host:3306)/attendance (required)")
	importCmd.MarkFlagRequired("dsn")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}
	if err := postgres.Initialize(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	pool := postgres.GetGlobalPool()
	defer pool.Close()

	legacy, err := mariadb.NewPool(mustGetString(cmd, "dsn"))
	if err != nil {
		return fmt.Errorf("connecting to legacy database: %w", err)
	}
	defer legacy.Close()

	ctx := cmd.Context()
	imported, err := legacy.Students(ctx, cfg.Encoder.Dim)
	if err != nil {
		return fmt.Errorf("reading legacy roster: %w", err)
	}
	fmt.Printf("Found %d students in legacy database\n", len(imported))

	repo := postgres.NewStudentRepository(pool)
	var created, skipped, withoutFace int
	for _, entry := range imported {
		if entry.DecodeErr != nil {
			fmt.Printf("Warning: %s: %v (imported without enrollment)\n", entry.Student.RollNo, entry.DecodeErr)
			entry.Student.Encoding = nil
		}

		_, err := repo.Create(ctx, &entry.Student)
		if errors.Is(err, database.ErrDuplicateRollNo) {
			skipped++
			continue
		}
		if err != nil {
			return fmt.Errorf("importing %s: %w", entry.Student.RollNo, err)
		}
		created++
		if len(entry.Student.Encoding) == 0 {
			withoutFace++
		}
	}

	fmt.Printf("Imported %d students (%d without a face enrollment), skipped %d existing\n",
		created, withoutFace, skipped)
	return nil
}
