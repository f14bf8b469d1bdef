// Package report renders attendance data for export.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/rollcall-dev/rollcall/internal/database"
)

// csvHeader is the fixed column set of an attendance export.
var csvHeader = []string{
	"student_name",
	"roll_no",
	"subject_code",
	"subject_name",
	"date",
	"time",
	"status",
	"synced",
}

// WriteCSV renders attendance records as CSV in the order given. Records
// are expected to carry their joined display fields; deleted students
// appear under the name "unknown".
func WriteCSV(w io.Writer, records []database.AttendanceRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.StudentName,
			rec.RollNo,
			rec.SubjectCode,
			rec.SubjectName,
			rec.Date,
			rec.MarkedAt.Format("15:04:05"),
			string(rec.Status),
			strconv.FormatBool(rec.Synced),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
