package mariadb

import (
	"context"
	"fmt"

	"github.com/rollcall-dev/rollcall/internal/database"
)

// ImportedStudent is one legacy roster row with its decoded face vector.
// DecodeErr is set when the stored blob could not be decoded; the student
// is still importable, just without an enrollment.
type ImportedStudent struct {
	Student   database.Student
	DecodeErr error
}

// Students reads the full legacy roster. Rows with undecodable face
// blobs are returned with DecodeErr set and a nil encoding so the caller
// can import the roster and re-enroll those students later.
func (p *Pool) Students(ctx context.Context, dim int) ([]ImportedStudent, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT roll_no, name, branch, semester, section, email, face_encoding
		FROM students
		ORDER BY roll_no`)
	if err != nil {
		return nil, fmt.Errorf("querying legacy students: %w", err)
	}
	defer rows.Close()

	var out []ImportedStudent
	for rows.Next() {
		var (
			s    database.Student
			blob []byte
		)
		if err := rows.Scan(&s.RollNo, &s.Name, &s.Branch, &s.Semester, &s.Section, &s.Email, &blob); err != nil {
			return nil, fmt.Errorf("scanning legacy student: %w", err)
		}
		imported := ImportedStudent{Student: s}
		imported.Student.Encoding, imported.DecodeErr = DecodeEncoding(blob, dim)
		out = append(out, imported)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading legacy students: %w", err)
	}
	return out, nil
}
