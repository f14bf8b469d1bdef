package mock

import (
	"context"
	"sort"
	"sync"

	"github.com/rollcall-dev/rollcall/internal/database"
)

type attendanceKey struct {
	studentID int64
	subjectID int64
	date      string
}

// AttendanceStore is an in-memory implementation of database.AttendanceStore.
// Upsert holds a single lock for the whole check-then-write, matching the
// atomicity the PostgreSQL backend gets from ON CONFLICT.
type AttendanceStore struct {
	mu      sync.Mutex
	records map[attendanceKey]*database.AttendanceRecord
	nextID  int64

	// Students backs the joined display fields and the stats totals.
	Students *StudentStore
	Subjects *SubjectStore

	// Error injection
	UpsertError     error
	MarkSyncedError error
}

// NewAttendanceStore creates a new in-memory attendance store joined against
// the given student and subject stores.
func NewAttendanceStore(students *StudentStore, subjects *SubjectStore) *AttendanceStore {
	return &AttendanceStore{
		records:  make(map[attendanceKey]*database.AttendanceRecord),
		nextID:   1,
		Students: students,
		Subjects: subjects,
	}
}

func (m *AttendanceStore) Upsert(ctx context.Context, rec *database.AttendanceRecord, resync bool) (*database.AttendanceRecord, error) {
	if m.UpsertError != nil {
		return nil, m.UpsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := attendanceKey{rec.StudentID, rec.SubjectID, rec.Date}
	if existing, ok := m.records[key]; ok {
		existing.MarkedAt = rec.MarkedAt
		existing.Status = rec.Status
		if resync {
			existing.Synced = false
		}
		copied := *existing
		return &copied, nil
	}

	stored := *rec
	stored.ID = m.nextID
	m.nextID++
	stored.Synced = false
	m.records[key] = &stored
	copied := stored
	return &copied, nil
}

// joinDisplay fills the joined display fields from the student and subject
// stores, surfacing deleted students as "unknown".
func (m *AttendanceStore) joinDisplay(ctx context.Context, rec database.AttendanceRecord) database.AttendanceRecord {
	rec.StudentName = "unknown"
	if m.Students != nil {
		if s, err := m.Students.Get(ctx, rec.StudentID); err == nil {
			rec.RollNo = s.RollNo
			rec.StudentName = s.Name
			rec.Branch = s.Branch
			rec.Semester = s.Semester
			rec.Section = s.Section
		}
	}
	if m.Subjects != nil {
		if s, err := m.Subjects.Get(ctx, rec.SubjectID); err == nil {
			rec.SubjectCode = s.Code
			rec.SubjectName = s.Name
		}
	}
	return rec
}

func (m *AttendanceStore) matches(ctx context.Context, rec *database.AttendanceRecord, f database.AttendanceFilter) bool {
	if f.Date != "" && rec.Date != f.Date {
		return false
	}
	if f.SubjectID != 0 && rec.SubjectID != f.SubjectID {
		return false
	}
	if f.StudentID != 0 && rec.StudentID != f.StudentID {
		return false
	}
	if f.Branch != "" || f.Semester != 0 || f.Section != "" {
		if m.Students == nil {
			return false
		}
		s, err := m.Students.Get(ctx, rec.StudentID)
		if err != nil {
			return false
		}
		if !matchesStudent(s, f.StudentScope()) {
			return false
		}
	}
	return true
}

func sortRecent(records []database.AttendanceRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Date != records[j].Date {
			return records[i].Date > records[j].Date
		}
		if !records[i].MarkedAt.Equal(records[j].MarkedAt) {
			return records[i].MarkedAt.After(records[j].MarkedAt)
		}
		return records[i].ID < records[j].ID
	})
}

func (m *AttendanceStore) Query(ctx context.Context, f database.AttendanceFilter) ([]database.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []database.AttendanceRecord
	for _, rec := range m.records {
		if m.matches(ctx, rec, f) {
			out = append(out, m.joinDisplay(ctx, *rec))
		}
	}
	sortRecent(out)
	return out, nil
}

func (m *AttendanceStore) ListPending(ctx context.Context) ([]database.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []database.AttendanceRecord
	for _, rec := range m.records {
		if !rec.Synced {
			out = append(out, m.joinDisplay(ctx, *rec))
		}
	}
	sortRecent(out)
	return out, nil
}

func (m *AttendanceStore) MarkSynced(ctx context.Context, ids []int64) error {
	if m.MarkSyncedError != nil {
		return m.MarkSyncedError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	idSet := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		idSet[id] = struct{}{}
	}
	for _, rec := range m.records {
		if _, ok := idSet[rec.ID]; ok {
			rec.Synced = true
		}
	}
	return nil
}

func (m *AttendanceStore) Stats(ctx context.Context, f database.AttendanceFilter) (*database.AttendanceStats, error) {
	total, err := m.Students.Count(ctx, f.StudentScope())
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stats := &database.AttendanceStats{
		Total:     total,
		BySubject: make(map[string]int),
		ByBranch:  make(map[string]int),
	}

	present := make(map[int64]struct{})
	bySubject := make(map[string]map[int64]struct{})
	byBranch := make(map[string]map[int64]struct{})

	for _, rec := range m.records {
		if rec.Status != database.StatusPresent || !m.matches(ctx, rec, f) {
			continue
		}
		// Rows whose student was deleted are excluded, matching the SQL
		// inner join in the stats queries.
		s, err := m.Students.Get(ctx, rec.StudentID)
		if err != nil {
			continue
		}
		present[rec.StudentID] = struct{}{}
		if sub, err := m.Subjects.Get(ctx, rec.SubjectID); err == nil {
			if bySubject[sub.Name] == nil {
				bySubject[sub.Name] = make(map[int64]struct{})
			}
			bySubject[sub.Name][rec.StudentID] = struct{}{}
		}
		if byBranch[s.Branch] == nil {
			byBranch[s.Branch] = make(map[int64]struct{})
		}
		byBranch[s.Branch][rec.StudentID] = struct{}{}
	}

	stats.Present = len(present)
	stats.Absent = stats.Total - stats.Present
	for name, students := range bySubject {
		stats.BySubject[name] = len(students)
	}
	for branch, students := range byBranch {
		stats.ByBranch[branch] = len(students)
	}
	return stats, nil
}
