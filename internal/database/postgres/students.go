package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/rollcall-dev/rollcall/internal/database"
)

// StudentRepository provides PostgreSQL-backed student storage.
type StudentRepository struct {
	pool *Pool
}

// NewStudentRepository creates a new student repository.
func NewStudentRepository(pool *Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// encodingValue converts a face encoding to a driver value, NULL when absent.
func encodingValue(enc []float32) any {
	if len(enc) == 0 {
		return nil
	}
	return pgvector.NewVector(enc)
}

// scanEncoding parses the text representation of a nullable vector column.
func scanEncoding(ns sql.NullString) ([]float32, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var v pgvector.Vector
	if err := v.Scan(ns.String); err != nil {
		return nil, fmt.Errorf("decoding face encoding: %w", err)
	}
	return v.Slice(), nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// isSerializationFailure reports whether err is a serialization conflict.
func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "40001"
}

// Create inserts a new student and returns its ID.
func (r *StudentRepository) Create(ctx context.Context, s *database.Student) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO students (roll_no, name, branch, semester, section, email, encoding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, s.RollNo, s.Name, s.Branch, s.Semester, s.Section, s.Email, encodingValue(s.Encoding)).Scan(&id)
	if isUniqueViolation(err) {
		return 0, database.ErrDuplicateRollNo
	}
	if err != nil {
		return 0, fmt.Errorf("create student: %w", err)
	}
	return id, nil
}

// Update replaces the student's details. A nil encoding leaves the stored
// face vector untouched; re-enrollment passes a new vector which replaces it.
func (r *StudentRepository) Update(ctx context.Context, s *database.Student) error {
	var err error
	if len(s.Encoding) > 0 {
		_, err = r.pool.Exec(ctx, `
			UPDATE students
			SET roll_no = $1, name = $2, branch = $3, semester = $4, section = $5, email = $6, encoding = $7
			WHERE id = $8
		`, s.RollNo, s.Name, s.Branch, s.Semester, s.Section, s.Email, pgvector.NewVector(s.Encoding), s.ID)
	} else {
		_, err = r.pool.Exec(ctx, `
			UPDATE students
			SET roll_no = $1, name = $2, branch = $3, semester = $4, section = $5, email = $6
			WHERE id = $7
		`, s.RollNo, s.Name, s.Branch, s.Semester, s.Section, s.Email, s.ID)
	}
	if isUniqueViolation(err) {
		return database.ErrDuplicateRollNo
	}
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Delete removes a student. Attendance rows keep the dangling student_id
// reference; reads surface them as "unknown".
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM students WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return database.ErrNotFound
	}
	return nil
}

// Get retrieves a student by ID, including the face encoding if present.
func (r *StudentRepository) Get(ctx context.Context, id int64) (*database.Student, error) {
	return r.getBy(ctx, "id = $1", id)
}

// GetByRollNo retrieves a student by roll number.
func (r *StudentRepository) GetByRollNo(ctx context.Context, rollNo string) (*database.Student, error) {
	return r.getBy(ctx, "roll_no = $1", rollNo)
}

func (r *StudentRepository) getBy(ctx context.Context, where string, arg any) (*database.Student, error) {
	var s database.Student
	var email sql.NullString
	var enc sql.NullString
	err := r.pool.QueryRow(ctx, `
		SELECT id, roll_no, name, branch, semester, section, email, encoding::text, created_at
		FROM students
		WHERE `+where, arg).Scan(
		&s.ID, &s.RollNo, &s.Name, &s.Branch, &s.Semester, &s.Section, &email, &enc, &s.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	s.Email = email.String
	if s.Encoding, err = scanEncoding(enc); err != nil {
		return nil, err
	}
	return &s, nil
}

// studentFilterClause builds the WHERE clause for organizational filters.
func studentFilterClause(f database.StudentFilter, args []any) (string, []any) {
	var conditions []string
	if f.Branch != "" {
		args = append(args, f.Branch)
		conditions = append(conditions, fmt.Sprintf("branch = $%d", len(args)))
	}
	if f.Semester != 0 {
		args = append(args, f.Semester)
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)))
	}
	if f.Section != "" {
		args = append(args, f.Section)
		conditions = append(conditions, fmt.Sprintf("section = $%d", len(args)))
	}
	if len(conditions) == 0 {
		return "", args
	}
	clause := " WHERE " + conditions[0]
	for _, c := range conditions[1:] {
		clause += " AND " + c
	}
	return clause, args
}

// List returns students matching the filter, ordered by roll number.
// Encodings are not loaded on this path.
func (r *StudentRepository) List(ctx context.Context, f database.StudentFilter) ([]database.Student, error) {
	clause, args := studentFilterClause(f, nil)
	rows, err := r.pool.Query(ctx, `
		SELECT id, roll_no, name, branch, semester, section, email, created_at
		FROM students`+clause+`
		ORDER BY roll_no
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var students []database.Student
	for rows.Next() {
		var s database.Student
		var email sql.NullString
		if err := rows.Scan(&s.ID, &s.RollNo, &s.Name, &s.Branch, &s.Semester, &s.Section, &email, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		s.Email = email.String
		students = append(students, s)
	}
	return students, rows.Err()
}

// ListEnrolled returns all students with a stored face encoding. This is the
// gallery load path; encodings are always populated.
func (r *StudentRepository) ListEnrolled(ctx context.Context) ([]database.Student, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, roll_no, name, encoding::text
		FROM students
		WHERE encoding IS NOT NULL
		ORDER BY roll_no
	`)
	if err != nil {
		return nil, fmt.Errorf("list enrolled students: %w", err)
	}
	defer rows.Close()

	var students []database.Student
	for rows.Next() {
		var s database.Student
		var enc sql.NullString
		if err := rows.Scan(&s.ID, &s.RollNo, &s.Name, &enc); err != nil {
			return nil, fmt.Errorf("scan enrolled student: %w", err)
		}
		if s.Encoding, err = scanEncoding(enc); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// Count returns the number of students matching the filter.
func (r *StudentRepository) Count(ctx context.Context, f database.StudentFilter) (int, error) {
	clause, args := studentFilterClause(f, nil)
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM students"+clause, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}
