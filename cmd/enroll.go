package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/rollcall-dev/rollcall/internal/config"
	"github.com/rollcall-dev/rollcall/internal/database"
	"github.com/rollcall-dev/rollcall/internal/database/postgres"
	"github.com/rollcall-dev/rollcall/internal/recognize"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Enroll student faces from a directory of photos",
	Long: `Enroll face encodings for existing students from a directory of photos.
Each file must be named after the student's roll number (e.g. CS001.jpg)
and contain exactly one face. Re-enrollment replaces the stored vector.`,
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("dir", "", "Directory of photos named <roll_no>.<ext> (required)")
	enrollCmd.MarkFlagRequired("dir")
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
}

func runEnroll(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}
	if err := postgres.Initialize(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	pool := postgres.GetGlobalPool()
	defer pool.Close()

	encoder, err := recognize.NewHTTPEncoder(cfg.Encoder.URL, cfg.Encoder.Dim)
	if err != nil {
		return fmt.Errorf("configuring encoder client: %w", err)
	}

	dir := mustGetString(cmd, "dir")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading directory: %w", err)
	}

	var photos []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			photos = append(photos, entry.Name())
		}
	}
	if len(photos) == 0 {
		return fmt.Errorf("no image files found in %s", dir)
	}

	repo := postgres.NewStudentRepository(pool)
	ctx := cmd.Context()

	bar := progressbar.NewOptions(len(photos),
		progressbar.OptionSetDescription("Enrolling faces"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	var enrolled int
	var failures []string
	for _, name := range photos {
		bar.Add(1)

		rollNo := strings.TrimSuffix(name, filepath.Ext(name))
		if err := enrollOne(ctx, repo, encoder, filepath.Join(dir, name), rollNo); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		enrolled++
	}

	fmt.Printf("\nEnrolled %d of %d students\n", enrolled, len(photos))
	if len(failures) > 0 {
		fmt.Printf("%d failures:\n", len(failures))
		for _, msg := range failures {
			fmt.Printf("  %s\n", msg)
		}
		return fmt.Errorf("%d enrollments failed", len(failures))
	}
	return nil
}

func enrollOne(ctx context.Context, repo *postgres.StudentRepository, encoder recognize.Encoder, path, rollNo string) error {
	student, err := repo.GetByRollNo(ctx, rollNo)
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("no student with roll number %s", rollNo)
	}
	if err != nil {
		return err
	}

	imageData, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	prepared, err := recognize.PrepareImage(imageData, recognize.MaxImageSize)
	if err != nil {
		return err
	}

	encoding, err := recognize.EnrollmentEncoding(ctx, encoder, prepared)
	if err != nil {
		return err
	}

	student.Encoding = encoding
	return repo.Update(ctx, student)
}
