package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rollcall-dev/rollcall/internal/database"
)

// SubjectRepository provides PostgreSQL-backed subject storage.
type SubjectRepository struct {
	pool *Pool
}

// NewSubjectRepository creates a new subject repository.
func NewSubjectRepository(pool *Pool) *SubjectRepository {
	return &SubjectRepository{pool: pool}
}

// Create inserts a new subject and returns its ID.
func (r *SubjectRepository) Create(ctx context.Context, s *database.Subject) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO subjects (code, name, branch, semester)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, s.Code, s.Name, s.Branch, s.Semester).Scan(&id)
	if isUniqueViolation(err) {
		return 0, database.ErrDuplicateSubjectCode
	}
	if err != nil {
		return 0, fmt.Errorf("create subject: %w", err)
	}
	return id, nil
}

// Update replaces the subject's details.
func (r *SubjectRepository) Update(ctx context.Context, s *database.Subject) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE subjects
		SET code = $1, name = $2, branch = $3, semester = $4
		WHERE id = $5
	`, s.Code, s.Name, s.Branch, s.Semester, s.ID)
	if isUniqueViolation(err) {
		return database.ErrDuplicateSubjectCode
	}
	if err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	return nil
}

// Delete removes a subject.
func (r *SubjectRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM subjects WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return database.ErrNotFound
	}
	return nil
}

// Get retrieves a subject by ID.
func (r *SubjectRepository) Get(ctx context.Context, id int64) (*database.Subject, error) {
	var s database.Subject
	err := r.pool.QueryRow(ctx, `
		SELECT id, code, name, branch, semester, created_at
		FROM subjects
		WHERE id = $1
	`, id).Scan(&s.ID, &s.Code, &s.Name, &s.Branch, &s.Semester, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get subject: %w", err)
	}
	return &s, nil
}

// List returns subjects, optionally filtered by branch and semester,
// ordered by subject code.
func (r *SubjectRepository) List(ctx context.Context, branch string, semester int) ([]database.Subject, error) {
	query := "SELECT id, code, name, branch, semester, created_at FROM subjects"
	var args []any
	var conditions []string
	if branch != "" {
		args = append(args, branch)
		conditions = append(conditions, fmt.Sprintf("branch = $%d", len(args)))
	}
	if semester != 0 {
		args = append(args, semester)
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)))
	}
	for i, c := range conditions {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY code"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	defer rows.Close()

	var subjects []database.Subject
	for rows.Next() {
		var s database.Subject
		if err := rows.Scan(&s.ID, &s.Code, &s.Name, &s.Branch, &s.Semester, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}
