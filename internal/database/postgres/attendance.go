package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/rollcall-dev/rollcall/internal/database"
)

// AttendanceRepository provides PostgreSQL-backed attendance storage.
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new attendance repository.
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// Upsert writes the attendance record, atomically with respect to the
// (student, subject, date) uniqueness key. An existing record gets its time
// and status updated in place; synced is reset only when resync is set.
func (r *AttendanceRepository) Upsert(ctx context.Context, rec *database.AttendanceRecord, resync bool) (*database.AttendanceRecord, error) {
	stored := *rec
	err := r.pool.QueryRow(ctx, `
		INSERT INTO attendance (student_id, subject_id, date, marked_at, status, synced)
		VALUES ($1, $2, $3, $4, $5, FALSE)
		ON CONFLICT (student_id, subject_id, date) DO UPDATE SET
			marked_at = EXCLUDED.marked_at,
			status = EXCLUDED.status,
			synced = CASE WHEN $6 THEN FALSE ELSE attendance.synced END
		RETURNING id, synced
	`, rec.StudentID, rec.SubjectID, rec.Date, rec.MarkedAt, rec.Status, resync).Scan(&stored.ID, &stored.Synced)
	if isSerializationFailure(err) {
		return nil, database.ErrWriteConflict
	}
	if err != nil {
		return nil, fmt.Errorf("upsert attendance: %w", err)
	}
	return &stored, nil
}

// attendanceSelect joins display fields. Students and subjects may have been
// deleted since the record was written; deleted students render as "unknown".
const attendanceSelect = `
	SELECT a.id, a.student_id, a.subject_id, to_char(a.date, 'YYYY-MM-DD'), a.marked_at, a.status, a.synced,
	       COALESCE(s.roll_no, ''), COALESCE(s.name, 'unknown'), COALESCE(s.branch, ''),
	       COALESCE(s.semester, 0), COALESCE(s.section, ''),
	       COALESCE(sub.code, ''), COALESCE(sub.name, '')
	FROM attendance a
	LEFT JOIN students s ON a.student_id = s.id
	LEFT JOIN subjects sub ON a.subject_id = sub.id
`

func scanAttendanceRows(rows *sql.Rows) ([]database.AttendanceRecord, error) {
	var records []database.AttendanceRecord
	for rows.Next() {
		var rec database.AttendanceRecord
		if err := rows.Scan(
			&rec.ID, &rec.StudentID, &rec.SubjectID, &rec.Date, &rec.MarkedAt, &rec.Status, &rec.Synced,
			&rec.RollNo, &rec.StudentName, &rec.Branch, &rec.Semester, &rec.Section,
			&rec.SubjectCode, &rec.SubjectName,
		); err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// attendanceFilterClause builds WHERE conditions for an attendance filter.
func attendanceFilterClause(f database.AttendanceFilter, args []any) ([]string, []any) {
	var conditions []string
	if f.Date != "" {
		args = append(args, f.Date)
		conditions = append(conditions, fmt.Sprintf("a.date = $%d", len(args)))
	}
	if f.SubjectID != 0 {
		args = append(args, f.SubjectID)
		conditions = append(conditions, fmt.Sprintf("a.subject_id = $%d", len(args)))
	}
	if f.StudentID != 0 {
		args = append(args, f.StudentID)
		conditions = append(conditions, fmt.Sprintf("a.student_id = $%d", len(args)))
	}
	if f.Branch != "" {
		args = append(args, f.Branch)
		conditions = append(conditions, fmt.Sprintf("s.branch = $%d", len(args)))
	}
	if f.Semester != 0 {
		args = append(args, f.Semester)
		conditions = append(conditions, fmt.Sprintf("s.semester = $%d", len(args)))
	}
	if f.Section != "" {
		args = append(args, f.Section)
		conditions = append(conditions, fmt.Sprintf("s.section = $%d", len(args)))
	}
	return conditions, args
}

func whereClause(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	clause := " WHERE " + conditions[0]
	for _, c := range conditions[1:] {
		clause += " AND " + c
	}
	return clause
}

// Query returns attendance records matching the filter, most recent first.
func (r *AttendanceRepository) Query(ctx context.Context, f database.AttendanceFilter) ([]database.AttendanceRecord, error) {
	conditions, args := attendanceFilterClause(f, nil)
	rows, err := r.pool.Query(ctx, attendanceSelect+whereClause(conditions)+`
		ORDER BY a.date DESC, a.marked_at DESC, a.id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	defer rows.Close()
	return scanAttendanceRows(rows)
}

// ListPending returns all unsynced records, most recent first.
func (r *AttendanceRepository) ListPending(ctx context.Context) ([]database.AttendanceRecord, error) {
	rows, err := r.pool.Query(ctx, attendanceSelect+`
		WHERE a.synced = FALSE
		ORDER BY a.date DESC, a.marked_at DESC, a.id
	`)
	if err != nil {
		return nil, fmt.Errorf("list pending attendance: %w", err)
	}
	defer rows.Close()
	return scanAttendanceRows(rows)
}

// MarkSynced transitions the given records to synced in one statement.
func (r *AttendanceRepository) MarkSynced(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE attendance SET synced = TRUE WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("mark attendance synced: %w", err)
	}
	return nil
}

// Stats computes attendance statistics over one consistent snapshot. All
// counts run in a single repeatable-read transaction so the totals, the
// distinct-present count and the breakdowns agree with each other.
func (r *AttendanceRepository) Stats(ctx context.Context, f database.AttendanceFilter) (*database.AttendanceStats, error) {
	tx, err := r.pool.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stats := &database.AttendanceStats{
		BySubject: make(map[string]int),
		ByBranch:  make(map[string]int),
	}

	// Total enrolled students under the organizational scope, independent
	// of attendance.
	scopeClause, scopeArgs := studentFilterClause(f.StudentScope(), nil)
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM students"+scopeClause, scopeArgs...).Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("count students: %w", err)
	}

	conditions, args := attendanceFilterClause(f, nil)
	conditions = append(conditions, "a.status = 'present'")
	presentWhere := whereClause(conditions)

	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT a.student_id)
		FROM attendance a
		JOIN students s ON a.student_id = s.id
	`+presentWhere, args...).Scan(&stats.Present)
	if err != nil {
		return nil, fmt.Errorf("count present students: %w", err)
	}
	stats.Absent = stats.Total - stats.Present

	rows, err := tx.QueryContext(ctx, `
		SELECT sub.name, COUNT(DISTINCT a.student_id)
		FROM attendance a
		JOIN students s ON a.student_id = s.id
		JOIN subjects sub ON a.subject_id = sub.id
	`+presentWhere+" GROUP BY sub.name", args...)
	if err != nil {
		return nil, fmt.Errorf("count present by subject: %w", err)
	}
	if err := scanCountMap(rows, stats.BySubject); err != nil {
		return nil, err
	}

	rows, err = tx.QueryContext(ctx, `
		SELECT s.branch, COUNT(DISTINCT a.student_id)
		FROM attendance a
		JOIN students s ON a.student_id = s.id
	`+presentWhere+" GROUP BY s.branch", args...)
	if err != nil {
		return nil, fmt.Errorf("count present by branch: %w", err)
	}
	if err := scanCountMap(rows, stats.ByBranch); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit stats transaction: %w", err)
	}
	return stats, nil
}

func scanCountMap(rows *sql.Rows, dst map[string]int) error {
	defer rows.Close()
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("scan count row: %w", err)
		}
		dst[key] = count
	}
	return rows.Err()
}
