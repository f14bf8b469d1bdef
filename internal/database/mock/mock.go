// Package mock provides in-memory implementations of database interfaces for testing.
package mock

import (
	"context"
	"sort"
	"sync"

	"github.com/rollcall-dev/rollcall/internal/database"
)

// StudentStore is an in-memory implementation of database.StudentStore.
type StudentStore struct {
	mu       sync.RWMutex
	students map[int64]*database.Student
	nextID   int64

	// Error injection
	ListEnrolledError error
	CreateError       error
}

// NewStudentStore creates a new in-memory student store.
func NewStudentStore() *StudentStore {
	return &StudentStore{students: make(map[int64]*database.Student), nextID: 1}
}

// Add seeds a student directly, assigning an ID if unset.
func (m *StudentStore) Add(s database.Student) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == 0 {
		s.ID = m.nextID
		m.nextID++
	} else if s.ID >= m.nextID {
		m.nextID = s.ID + 1
	}
	m.students[s.ID] = &s
	return s.ID
}

func (m *StudentStore) Create(ctx context.Context, s *database.Student) (int64, error) {
	if m.CreateError != nil {
		return 0, m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.students {
		if existing.RollNo == s.RollNo {
			return 0, database.ErrDuplicateRollNo
		}
	}
	stored := *s
	stored.ID = m.nextID
	m.nextID++
	m.students[stored.ID] = &stored
	return stored.ID, nil
}

func (m *StudentStore) Update(ctx context.Context, s *database.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.students[s.ID]
	if !ok {
		return database.ErrNotFound
	}
	for id, other := range m.students {
		if id != s.ID && other.RollNo == s.RollNo {
			return database.ErrDuplicateRollNo
		}
	}
	updated := *s
	if len(updated.Encoding) == 0 {
		updated.Encoding = existing.Encoding
	}
	m.students[s.ID] = &updated
	return nil
}

func (m *StudentStore) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.students, id)
	return nil
}

func (m *StudentStore) Get(ctx context.Context, id int64) (*database.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.students[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *StudentStore) GetByRollNo(ctx context.Context, rollNo string) (*database.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.students {
		if s.RollNo == rollNo {
			copied := *s
			return &copied, nil
		}
	}
	return nil, database.ErrNotFound
}

func matchesStudent(s *database.Student, f database.StudentFilter) bool {
	if f.Branch != "" && s.Branch != f.Branch {
		return false
	}
	if f.Semester != 0 && s.Semester != f.Semester {
		return false
	}
	if f.Section != "" && s.Section != f.Section {
		return false
	}
	return true
}

func (m *StudentStore) List(ctx context.Context, f database.StudentFilter) ([]database.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []database.Student
	for _, s := range m.students {
		if matchesStudent(s, f) {
			copied := *s
			copied.Encoding = nil
			out = append(out, copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RollNo < out[j].RollNo })
	return out, nil
}

func (m *StudentStore) ListEnrolled(ctx context.Context) ([]database.Student, error) {
	if m.ListEnrolledError != nil {
		return nil, m.ListEnrolledError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []database.Student
	for _, s := range m.students {
		if len(s.Encoding) > 0 {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RollNo < out[j].RollNo })
	return out, nil
}

func (m *StudentStore) Count(ctx context.Context, f database.StudentFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, s := range m.students {
		if matchesStudent(s, f) {
			count++
		}
	}
	return count, nil
}

// SubjectStore is an in-memory implementation of database.SubjectStore.
type SubjectStore struct {
	mu       sync.RWMutex
	subjects map[int64]*database.Subject
	nextID   int64
}

// NewSubjectStore creates a new in-memory subject store.
func NewSubjectStore() *SubjectStore {
	return &SubjectStore{subjects: make(map[int64]*database.Subject), nextID: 1}
}

// Add seeds a subject directly, assigning an ID if unset.
func (m *SubjectStore) Add(s database.Subject) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == 0 {
		s.ID = m.nextID
		m.nextID++
	} else if s.ID >= m.nextID {
		m.nextID = s.ID + 1
	}
	m.subjects[s.ID] = &s
	return s.ID
}

func (m *SubjectStore) Create(ctx context.Context, s *database.Subject) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.subjects {
		if existing.Code == s.Code {
			return 0, database.ErrDuplicateSubjectCode
		}
	}
	stored := *s
	stored.ID = m.nextID
	m.nextID++
	m.subjects[stored.ID] = &stored
	return stored.ID, nil
}

func (m *SubjectStore) Update(ctx context.Context, s *database.Subject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subjects[s.ID]; !ok {
		return database.ErrNotFound
	}
	for id, other := range m.subjects {
		if id != s.ID && other.Code == s.Code {
			return database.ErrDuplicateSubjectCode
		}
	}
	copied := *s
	m.subjects[s.ID] = &copied
	return nil
}

func (m *SubjectStore) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subjects[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.subjects, id)
	return nil
}

func (m *SubjectStore) Get(ctx context.Context, id int64) (*database.Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.subjects[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *SubjectStore) List(ctx context.Context, branch string, semester int) ([]database.Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []database.Subject
	for _, s := range m.subjects {
		if branch != "" && s.Branch != branch {
			continue
		}
		if semester != 0 && s.Semester != semester {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// SettingStore is an in-memory implementation of database.SettingStore.
type SettingStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewSettingStore creates a new in-memory setting store.
func NewSettingStore() *SettingStore {
	return &SettingStore{values: make(map[string]string)}
}

func (m *SettingStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", database.ErrNotFound
	}
	return v, nil
}

func (m *SettingStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
