package database

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateRollNo is returned when a student create or update would
	// violate the roll number uniqueness constraint.
	ErrDuplicateRollNo = errors.New("roll number already exists")

	// ErrDuplicateSubjectCode is returned when a subject create or update
	// would violate the subject code uniqueness constraint.
	ErrDuplicateSubjectCode = errors.New("subject code already exists")

	// ErrWriteConflict is returned when a concurrent write race was detected.
	// The caller should retry the operation.
	ErrWriteConflict = errors.New("write conflict, retry")
)

// StudentStore provides persistent CRUD for students, keyed by a stable
// roll number unique across the store.
type StudentStore interface {
	// Create inserts a new student and returns its ID.
	Create(ctx context.Context, s *Student) (int64, error)
	// Update replaces the student's details. A nil Encoding leaves the
	// stored face vector untouched.
	Update(ctx context.Context, s *Student) error
	// Delete removes a student. Historical attendance rows keep their
	// student_id reference and surface as "unknown" on read.
	Delete(ctx context.Context, id int64) error
	// Get retrieves a student by ID, ErrNotFound if missing.
	Get(ctx context.Context, id int64) (*Student, error)
	// GetByRollNo retrieves a student by roll number, ErrNotFound if missing.
	GetByRollNo(ctx context.Context, rollNo string) (*Student, error)
	// List returns students matching the filter, ordered by roll number.
	// Encodings are not populated.
	List(ctx context.Context, f StudentFilter) ([]Student, error)
	// ListEnrolled returns all students with a non-empty face encoding,
	// encodings populated. This is the gallery load path.
	ListEnrolled(ctx context.Context) ([]Student, error)
	// Count returns the number of students matching the filter.
	Count(ctx context.Context, f StudentFilter) (int, error)
}

// SubjectStore provides persistent CRUD for subjects.
type SubjectStore interface {
	Create(ctx context.Context, s *Subject) (int64, error)
	Update(ctx context.Context, s *Subject) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*Subject, error)
	List(ctx context.Context, branch string, semester int) ([]Subject, error)
}

// AttendanceStore persists attendance records.
type AttendanceStore interface {
	// Upsert atomically inserts the record or, when a record for the same
	// (student, subject, date) key exists, updates its time and status in
	// place. Synced is left untouched on update unless Resync is set.
	// Returns the stored record with ID and Synced populated.
	Upsert(ctx context.Context, rec *AttendanceRecord, resync bool) (*AttendanceRecord, error)
	// Query returns records matching the filter with display fields joined,
	// ordered most recent date and time first.
	Query(ctx context.Context, f AttendanceFilter) ([]AttendanceRecord, error)
	// ListPending returns all unsynced records with display fields joined.
	ListPending(ctx context.Context) ([]AttendanceRecord, error)
	// MarkSynced transitions the given records to synced in one statement.
	MarkSynced(ctx context.Context, ids []int64) error
	// Stats computes attendance statistics over a single consistent
	// snapshot of the attendance and student tables.
	Stats(ctx context.Context, f AttendanceFilter) (*AttendanceStats, error)
}

// SettingStore persists key/value configuration such as the match threshold
// and transport credentials.
type SettingStore interface {
	// Get returns the setting value, ErrNotFound if the key is absent.
	Get(ctx context.Context, key string) (string, error)
	// Set creates or replaces the setting value.
	Set(ctx context.Context, key, value string) error
}
