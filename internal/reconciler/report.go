package reconciler

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rollcall-dev/rollcall/internal/database"
)

// Batch is the unit of sync: all pending records for one subject on one
// civil date, sent as a single report.
type Batch struct {
	Date        string
	SubjectID   int64
	SubjectCode string
	SubjectName string
	Records     []database.AttendanceRecord
}

// partition groups pending records into per-(date, subject) batches,
// ordered oldest date first so reports arrive in chronological order.
func partition(pending []database.AttendanceRecord) []Batch {
	type key struct {
		date      string
		subjectID int64
	}
	grouped := make(map[key]*Batch)
	var order []key
	for _, rec := range pending {
		k := key{rec.Date, rec.SubjectID}
		b, ok := grouped[k]
		if !ok {
			b = &Batch{
				Date:        rec.Date,
				SubjectID:   rec.SubjectID,
				SubjectCode: rec.SubjectCode,
				SubjectName: rec.SubjectName,
			}
			grouped[k] = b
			order = append(order, k)
		}
		b.Records = append(b.Records, rec)
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].date != order[j].date {
			return order[i].date < order[j].date
		}
		return order[i].subjectID < order[j].subjectID
	})

	batches := make([]Batch, 0, len(order))
	for _, k := range order {
		batches = append(batches, *grouped[k])
	}
	return batches
}

// renderReport formats one batch as the attendance report message.
func renderReport(b Batch, now time.Time) string {
	present := make([]database.AttendanceRecord, 0, len(b.Records))
	absent := make([]database.AttendanceRecord, 0, len(b.Records))
	for _, rec := range b.Records {
		if rec.Status == database.StatusPresent {
			present = append(present, rec)
		} else {
			absent = append(absent, rec)
		}
	}
	total := len(b.Records)
	pct := 0.0
	if total > 0 {
		pct = float64(len(present)) / float64(total) * 100
	}

	var sb strings.Builder
	sb.WriteString("📊 ATTENDANCE REPORT\n\n")
	fmt.Fprintf(&sb, "Date: %s\n", b.Date)
	fmt.Fprintf(&sb, "Subject: %s (%s)\n\n", b.SubjectName, b.SubjectCode)
	sb.WriteString("📈 SUMMARY\n")
	fmt.Fprintf(&sb, "Total Students: %d\n", total)
	fmt.Fprintf(&sb, "Present: %d\n", len(present))
	fmt.Fprintf(&sb, "Absent: %d\n", len(absent))
	fmt.Fprintf(&sb, "Attendance: %.2f%%\n\n", pct)

	sb.WriteString("👥 PRESENT STUDENTS\n")
	writeRoster(&sb, present)

	sb.WriteString("\n👥 ABSENT STUDENTS\n")
	writeRoster(&sb, absent)

	fmt.Fprintf(&sb, "\n⏰ Report Generated: %s", now.Format("2006-01-02 15:04:05"))
	return sb.String()
}

func writeRoster(sb *strings.Builder, records []database.AttendanceRecord) {
	if len(records) == 0 {
		sb.WriteString("None\n")
		return
	}
	sorted := make([]database.AttendanceRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RollNo < sorted[j].RollNo })
	for _, rec := range sorted {
		fmt.Fprintf(sb, "- %s (%s)\n", rec.StudentName, rec.RollNo)
	}
}
