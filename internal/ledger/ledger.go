// Package ledger records attendance facts. A fact is keyed by
// (student, subject, date); marking the same key again rewrites the
// time and status of the existing record instead of producing a
// duplicate row.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/rollcall-dev/rollcall/internal/database"
)

// DateFormat is the civil date layout used as the ledger key component.
const DateFormat = "2006-01-02"

// Ledger writes attendance records against a store.
type Ledger struct {
	store database.AttendanceStore
	now   func() time.Time
}

// New creates a ledger over the given attendance store.
func New(store database.AttendanceStore) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

// Mark records that a student has the given status for a subject today.
// Marking the same (student, subject, day) again replaces the time and
// status of the existing record; the synced flag of an already-synced
// record is left alone so the sync layer does not re-send it.
func (l *Ledger) Mark(ctx context.Context, studentID, subjectID int64, status database.Status) (*database.AttendanceRecord, error) {
	return l.MarkAt(ctx, studentID, subjectID, status, l.now())
}

// MarkAt is Mark with an explicit timestamp, used when replaying captures
// recorded earlier. The civil date key is derived from the timestamp's
// local calendar day.
func (l *Ledger) MarkAt(ctx context.Context, studentID, subjectID int64, status database.Status, at time.Time) (*database.AttendanceRecord, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid attendance status %q", status)
	}
	if studentID <= 0 {
		return nil, fmt.Errorf("invalid student id %d", studentID)
	}
	if subjectID <= 0 {
		return nil, fmt.Errorf("invalid subject id %d", subjectID)
	}

	rec := &database.AttendanceRecord{
		StudentID: studentID,
		SubjectID: subjectID,
		Date:      at.Format(DateFormat),
		MarkedAt:  at,
		Status:    status,
	}
	stored, err := l.store.Upsert(ctx, rec, false)
	if err != nil {
		return nil, fmt.Errorf("marking attendance: %w", err)
	}
	return stored, nil
}

// Amend rewrites an existing day's record, typically a manual correction
// after the fact. Unlike Mark it flags the record for re-sync, so a report
// that already went out gets superseded by a corrected one.
func (l *Ledger) Amend(ctx context.Context, studentID, subjectID int64, date string, status database.Status) (*database.AttendanceRecord, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid attendance status %q", status)
	}
	if _, err := time.Parse(DateFormat, date); err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	rec := &database.AttendanceRecord{
		StudentID: studentID,
		SubjectID: subjectID,
		Date:      date,
		MarkedAt:  l.now(),
		Status:    status,
	}
	stored, err := l.store.Upsert(ctx, rec, true)
	if err != nil {
		return nil, fmt.Errorf("amending attendance: %w", err)
	}
	return stored, nil
}
