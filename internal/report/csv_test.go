package report

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/rollcall-dev/rollcall/internal/database"
)

func TestWriteCSV(t *testing.T) {
	records := []database.AttendanceRecord{
		{
			StudentName: "Asha Rao",
			RollNo:      "CS001",
			SubjectCode: "MA101",
			SubjectName: "Mathematics",
			Date:        "2026-03-10",
			MarkedAt:    time.Date(2026, 3, 10, 9, 15, 30, 0, time.UTC),
			Status:      database.StatusPresent,
			Synced:      true,
		},
		{
			StudentName: "unknown",
			RollNo:      "",
			SubjectCode: "MA101",
			SubjectName: "Mathematics",
			Date:        "2026-03-10",
			MarkedAt:    time.Date(2026, 3, 10, 9, 16, 0, 0, time.UTC),
			Status:      database.StatusAbsent,
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parsing output: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "student_name" || rows[0][7] != "synced" {
		t.Errorf("unexpected header %v", rows[0])
	}

	first := rows[1]
	want := []string{"Asha Rao", "CS001", "MA101", "Mathematics", "2026-03-10", "09:15:30", "present", "true"}
	for i := range want {
		if first[i] != want[i] {
			t.Errorf("column %d: got %q, want %q", i, first[i], want[i])
		}
	}

	if rows[2][0] != "unknown" {
		t.Errorf("deleted student should export as unknown, got %q", rows[2][0])
	}
	if rows[2][7] != "false" {
		t.Errorf("expected unsynced row, got %q", rows[2][7])
	}
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parsing output: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected header only, got %d rows", len(rows))
	}
}
