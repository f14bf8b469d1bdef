package database

import (
	"time"
)

// Status is the attendance outcome recorded for a student on a given day.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

// Valid reports whether s is a recognized attendance status.
func (s Status) Valid() bool {
	return s == StatusPresent || s == StatusAbsent
}

// Student represents an enrolled person. Encoding is nil until a face has
// been enrolled; re-enrollment replaces the vector, never appends.
type Student struct {
	ID        int64
	RollNo    string
	Name      string
	Branch    string
	Semester  int
	Section   string
	Email     string
	Encoding  []float32
	CreatedAt time.Time
}

// Subject represents a scheduled class attendance is recorded against.
type Subject struct {
	ID        int64
	Code      string
	Name      string
	Branch    string
	Semester  int
	CreatedAt time.Time
}

// AttendanceRecord is one attendance fact. At most one record exists per
// (StudentID, SubjectID, Date); a later mark for the same key updates
// MarkedAt and Status in place.
type AttendanceRecord struct {
	ID        int64
	StudentID int64
	SubjectID int64
	Date      string // civil date, YYYY-MM-DD
	MarkedAt  time.Time
	Status    Status
	Synced    bool

	// Joined display fields, populated by Query and ListPending.
	// StudentName is "unknown" when the student row has been deleted.
	RollNo      string
	StudentName string
	Branch      string
	Semester    int
	Section     string
	SubjectCode string
	SubjectName string
}

// StudentFilter narrows student listings by organizational attributes.
// Zero values mean "no filter".
type StudentFilter struct {
	Branch   string
	Semester int
	Section  string
}

// AttendanceFilter narrows attendance queries. Zero values mean "no filter".
type AttendanceFilter struct {
	Date      string
	SubjectID int64
	StudentID int64
	Branch    string
	Semester  int
	Section   string
}

// StudentScope returns the organizational part of the filter, used when
// counting enrolled students independently of attendance.
func (f AttendanceFilter) StudentScope() StudentFilter {
	return StudentFilter{Branch: f.Branch, Semester: f.Semester, Section: f.Section}
}

// AttendanceStats summarizes presence over a consistent snapshot.
// Present counts distinct students, so a student attending two subjects on
// the same day is counted once when SubjectID is unfiltered.
type AttendanceStats struct {
	Total     int
	Present   int
	Absent    int
	BySubject map[string]int
	ByBranch  map[string]int
}
