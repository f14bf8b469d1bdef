package capture

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rollcall-dev/rollcall/internal/database"
	"github.com/rollcall-dev/rollcall/internal/database/mock"
	"github.com/rollcall-dev/rollcall/internal/gallery"
	"github.com/rollcall-dev/rollcall/internal/ledger"
	"github.com/rollcall-dev/rollcall/internal/recognize"
)

// scriptedEncoder returns one canned detection set per call.
type scriptedEncoder struct {
	frames [][]recognize.Detection
	calls  int
	err    error
}

func (e *scriptedEncoder) Detect(ctx context.Context, imageData []byte) ([]recognize.Detection, error) {
	if e.err != nil {
		return nil, e.err
	}
	if e.calls >= len(e.frames) {
		return nil, recognize.ErrNoFaceDetected
	}
	out := e.frames[e.calls]
	e.calls++
	if len(out) == 0 {
		return nil, recognize.ErrNoFaceDetected
	}
	return out, nil
}

// sliceSource feeds fixed frames and records whether Close was called.
type sliceSource struct {
	frames [][]byte
	pos    int
	closed bool
}

func (s *sliceSource) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.frames) {
		return nil, io.EOF
	}
	frame := s.frames[s.pos]
	s.pos++
	return frame, nil
}

func (s *sliceSource) Close() error {
	s.closed = true
	return nil
}

func encodingFor(seed float32) []float32 {
	enc := make([]float32, database.EncodingDim)
	enc[0] = seed
	return enc
}

func newTestSession(t *testing.T, encoder recognize.Encoder) (*Session, *mock.AttendanceStore) {
	t.Helper()
	students := mock.NewStudentStore()
	subjects := mock.NewSubjectStore()
	attendance := mock.NewAttendanceStore(students, subjects)

	students.Add(database.Student{ID: 1, RollNo: "CS001", Name: "Asha Rao", Encoding: encodingFor(0.1)})
	students.Add(database.Student{ID: 2, RollNo: "CS002", Name: "Vikram Shetty", Encoding: encodingFor(0.9)})
	subjectID := subjects.Add(database.Subject{Code: "MA101", Name: "Mathematics"})

	idx := gallery.New(students)
	if _, err := idx.Reload(context.Background()); err != nil {
		t.Fatalf("loading gallery: %v", err)
	}

	return NewSession(encoder, idx, ledger.New(attendance), subjectID, 0.6), attendance
}

func TestProcessFrame_MarksMatchedStudents(t *testing.T) {
	encoder := &scriptedEncoder{frames: [][]recognize.Detection{
		{{Encoding: encodingFor(0.1)}, {Encoding: encodingFor(0.9)}},
	}}
	session, attendance := newTestSession(t, encoder)

	result, err := session.ProcessFrame(context.Background(), []byte("frame"))
	if err != nil {
		t.Fatalf("ProcessFrame failed: %v", err)
	}
	if len(result.Faces) != 2 {
		t.Fatalf("expected 2 faces, got %d", len(result.Faces))
	}
	if len(result.NewlyMarked) != 2 {
		t.Fatalf("expected 2 students marked, got %v", result.NewlyMarked)
	}

	pending, err := attendance.ListPending(context.Background())
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("expected 2 attendance records, got %d", len(pending))
	}
}

func TestProcessFrame_RepeatFaceMarkedOnce(t *testing.T) {
	encoder := &scriptedEncoder{frames: [][]recognize.Detection{
		{{Encoding: encodingFor(0.1)}},
		{{Encoding: encodingFor(0.1)}},
	}}
	session, attendance := newTestSession(t, encoder)
	ctx := context.Background()

	first, err := session.ProcessFrame(ctx, []byte("f1"))
	if err != nil {
		t.Fatalf("first frame failed: %v", err)
	}
	second, err := session.ProcessFrame(ctx, []byte("f2"))
	if err != nil {
		t.Fatalf("second frame failed: %v", err)
	}

	if len(first.NewlyMarked) != 1 {
		t.Errorf("expected first frame to mark, got %v", first.NewlyMarked)
	}
	if len(second.NewlyMarked) != 0 {
		t.Errorf("expected repeat face to mark nothing, got %v", second.NewlyMarked)
	}
	if len(second.Faces) != 1 || !second.Faces[0].Matched() {
		t.Errorf("repeat face should still appear matched in results")
	}

	pending, err := attendance.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("expected a single attendance record, got %d", len(pending))
	}
}

func TestProcessFrame_UnknownFaceNotMarked(t *testing.T) {
	encoder := &scriptedEncoder{frames: [][]recognize.Detection{
		{{Encoding: encodingFor(5.0)}}, // far from everyone
	}}
	session, attendance := newTestSession(t, encoder)

	result, err := session.ProcessFrame(context.Background(), []byte("frame"))
	if err != nil {
		t.Fatalf("ProcessFrame failed: %v", err)
	}
	if len(result.Faces) != 1 || result.Faces[0].Matched() {
		t.Errorf("expected one unmatched face, got %+v", result.Faces)
	}
	if len(result.NewlyMarked) != 0 {
		t.Errorf("unknown face must not be marked, got %v", result.NewlyMarked)
	}

	pending, err := attendance.ListPending(context.Background())
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected no attendance records, got %d", len(pending))
	}
}

func TestProcessFrame_EmptyFrame(t *testing.T) {
	encoder := &scriptedEncoder{} // every call reports no faces
	session, _ := newTestSession(t, encoder)

	result, err := session.ProcessFrame(context.Background(), []byte("frame"))
	if err != nil {
		t.Fatalf("ProcessFrame failed: %v", err)
	}
	if len(result.Faces) != 0 || len(result.NewlyMarked) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestProcessFrame_ContextCancelled(t *testing.T) {
	session, _ := newTestSession(t, &scriptedEncoder{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := session.ProcessFrame(ctx, []byte("frame")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRun_ClosesSourceOnCompletion(t *testing.T) {
	encoder := &scriptedEncoder{frames: [][]recognize.Detection{
		{{Encoding: encodingFor(0.1)}},
	}}
	session, _ := newTestSession(t, encoder)
	src := &sliceSource{frames: [][]byte{[]byte("f1"), []byte("f2")}}

	if err := session.Run(context.Background(), src); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !src.closed {
		t.Error("source must be closed after a clean run")
	}
	if len(session.Marked()) != 1 {
		t.Errorf("expected 1 student marked, got %v", session.Marked())
	}
}

func TestRun_ClosesSourceOnError(t *testing.T) {
	encoder := &scriptedEncoder{err: errors.New("encoder down")}
	session, _ := newTestSession(t, encoder)
	src := &sliceSource{frames: [][]byte{[]byte("f1")}}

	if err := session.Run(context.Background(), src); err == nil {
		t.Fatal("expected error from failing encoder")
	}
	if !src.closed {
		t.Error("source must be closed after a failed run")
	}
}

func TestRun_ClosesSourceOnCancel(t *testing.T) {
	session, _ := newTestSession(t, &scriptedEncoder{})
	src := &sliceSource{frames: [][]byte{[]byte("f1")}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := session.Run(ctx, src); err == nil {
		t.Fatal("expected cancellation error")
	}
	if !src.closed {
		t.Error("source must be closed after cancellation")
	}
}
