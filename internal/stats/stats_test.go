package stats

import (
	"context"
	"testing"
	"time"

	"github.com/rollcall-dev/rollcall/internal/database"
	"github.com/rollcall-dev/rollcall/internal/database/mock"
)

func seedStores(t *testing.T) (*mock.AttendanceStore, int64) {
	t.Helper()
	students := mock.NewStudentStore()
	subjects := mock.NewSubjectStore()
	attendance := mock.NewAttendanceStore(students, subjects)

	students.Add(database.Student{ID: 1, RollNo: "CS001", Name: "Asha Rao", Branch: "CSE", Semester: 4})
	students.Add(database.Student{ID: 2, RollNo: "CS002", Name: "Vikram Shetty", Branch: "CSE", Semester: 4})
	students.Add(database.Student{ID: 3, RollNo: "ME001", Name: "Priya Nair", Branch: "ME", Semester: 4})
	subjectID := subjects.Add(database.Subject{Code: "MA101", Name: "Mathematics"})

	mark := func(studentID int64, status database.Status) {
		t.Helper()
		_, err := attendance.Upsert(context.Background(), &database.AttendanceRecord{
			StudentID: studentID,
			SubjectID: subjectID,
			Date:      "2026-03-10",
			MarkedAt:  time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
			Status:    status,
		}, false)
		if err != nil {
			t.Fatalf("seeding attendance: %v", err)
		}
	}
	mark(1, database.StatusPresent)
	mark(3, database.StatusPresent)
	// Student 2 is never marked and must count as absent.

	return attendance, subjectID
}

func TestSummarize(t *testing.T) {
	attendance, _ := seedStores(t)

	sum, err := New(attendance).Summarize(context.Background(), database.AttendanceFilter{Date: "2026-03-10"})
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if sum.Total != 3 {
		t.Errorf("expected total 3, got %d", sum.Total)
	}
	if sum.Present != 2 {
		t.Errorf("expected present 2, got %d", sum.Present)
	}
	if sum.Absent != 1 {
		t.Errorf("expected absent 1, got %d", sum.Absent)
	}
	if sum.Percentage < 66.6 || sum.Percentage > 66.7 {
		t.Errorf("expected percentage ~66.67, got %.2f", sum.Percentage)
	}
	if sum.BySubject["Mathematics"] != 2 {
		t.Errorf("expected 2 present in Mathematics, got %d", sum.BySubject["Mathematics"])
	}
	if sum.ByBranch["CSE"] != 1 || sum.ByBranch["ME"] != 1 {
		t.Errorf("unexpected branch breakdown %v", sum.ByBranch)
	}
}

func TestSummarize_BranchFilter(t *testing.T) {
	attendance, _ := seedStores(t)

	sum, err := New(attendance).Summarize(context.Background(), database.AttendanceFilter{
		Date:   "2026-03-10",
		Branch: "CSE",
	})
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if sum.Total != 2 {
		t.Errorf("expected 2 CSE students, got %d", sum.Total)
	}
	if sum.Present != 1 {
		t.Errorf("expected 1 present in CSE, got %d", sum.Present)
	}
	if sum.Absent != 1 {
		t.Errorf("expected 1 absent in CSE, got %d", sum.Absent)
	}
}

func TestSummarize_DistinctStudentsAcrossSubjects(t *testing.T) {
	students := mock.NewStudentStore()
	subjects := mock.NewSubjectStore()
	attendance := mock.NewAttendanceStore(students, subjects)

	students.Add(database.Student{ID: 1, RollNo: "CS001", Name: "Asha Rao", Branch: "CSE"})
	mathID := subjects.Add(database.Subject{Code: "MA101", Name: "Mathematics"})
	physID := subjects.Add(database.Subject{Code: "PH101", Name: "Physics"})

	ctx := context.Background()
	for _, subjectID := range []int64{mathID, physID} {
		_, err := attendance.Upsert(ctx, &database.AttendanceRecord{
			StudentID: 1,
			SubjectID: subjectID,
			Date:      "2026-03-10",
			MarkedAt:  time.Now(),
			Status:    database.StatusPresent,
		}, false)
		if err != nil {
			t.Fatalf("seeding attendance: %v", err)
		}
	}

	sum, err := New(attendance).Summarize(ctx, database.AttendanceFilter{Date: "2026-03-10"})
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if sum.Present != 1 {
		t.Errorf("a student in two subjects should count once, got present %d", sum.Present)
	}
}

func TestSummarize_EmptyStore(t *testing.T) {
	attendance := mock.NewAttendanceStore(mock.NewStudentStore(), mock.NewSubjectStore())

	sum, err := New(attendance).Summarize(context.Background(), database.AttendanceFilter{})
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if sum.Total != 0 || sum.Present != 0 || sum.Absent != 0 || sum.Percentage != 0 {
		t.Errorf("expected zero summary, got %+v", sum)
	}
}
