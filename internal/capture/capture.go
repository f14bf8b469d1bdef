// Package capture runs the per-frame recognition pipeline: detect faces
// in a frame, resolve them against the gallery, and record the matched
// students as present.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/rollcall-dev/rollcall/internal/database"
	"github.com/rollcall-dev/rollcall/internal/gallery"
	"github.com/rollcall-dev/rollcall/internal/recognize"
)

// FrameSource yields frames from a camera or recorded stream. Next returns
// io.EOF when the stream ends. Close releases the underlying device.
type FrameSource interface {
	Next(ctx context.Context) ([]byte, error)
	io.Closer
}

// Marker records a student as present. Satisfied by *ledger.Ledger.
type Marker interface {
	Mark(ctx context.Context, studentID, subjectID int64, status database.Status) (*database.AttendanceRecord, error)
}

// FrameResult is the outcome of processing one frame.
type FrameResult struct {
	Faces       []recognize.MatchResult
	NewlyMarked []int64 // students marked present by this frame
}

// Session is one capture run for a single subject. A student is marked at
// most once per session; later frames showing the same face are counted in
// the results but produce no further ledger writes.
type Session struct {
	ID        string
	SubjectID int64

	encoder   recognize.Encoder
	gallery   *gallery.Index
	marker    Marker
	threshold float64

	marked map[int64]bool
}

// NewSession creates a capture session for the subject.
func NewSession(encoder recognize.Encoder, idx *gallery.Index, marker Marker, subjectID int64, threshold float64) *Session {
	return &Session{
		ID:        uuid.NewString(),
		SubjectID: subjectID,
		encoder:   encoder,
		gallery:   idx,
		marker:    marker,
		threshold: threshold,
		marked:    make(map[int64]bool),
	}
}

// Marked returns the students marked present so far, in no defined order.
func (s *Session) Marked() []int64 {
	ids := make([]int64, 0, len(s.marked))
	for id := range s.marked {
		ids = append(ids, id)
	}
	return ids
}

// ProcessFrame runs detection and matching on one frame and marks every
// newly recognized student present. A frame with no faces is a normal
// empty result. Each frame is independent: a failed frame leaves the
// session usable for the next one.
func (s *Session) ProcessFrame(ctx context.Context, frame []byte) (*FrameResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	detections, err := s.encoder.Detect(ctx, frame)
	if errors.Is(err, recognize.ErrNoFaceDetected) {
		return &FrameResult{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("detecting faces: %w", err)
	}

	result := &FrameResult{
		Faces: recognize.MatchAll(detections, s.gallery.Snapshot(), s.threshold),
	}
	for _, face := range result.Faces {
		if !face.Matched() || s.marked[face.StudentID] {
			continue
		}
		if _, err := s.marker.Mark(ctx, face.StudentID, s.SubjectID, database.StatusPresent); err != nil {
			return result, fmt.Errorf("marking student %d: %w", face.StudentID, err)
		}
		s.marked[face.StudentID] = true
		result.NewlyMarked = append(result.NewlyMarked, face.StudentID)
	}
	return result, nil
}

// Run drains the frame source until it ends or the context is cancelled.
// The source is closed on every exit path. Per-frame errors end the run;
// the caller decides whether to start a new session.
func (s *Session) Run(ctx context.Context, src FrameSource) error {
	defer src.Close()

	for {
		frame, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading frame: %w", err)
		}
		if _, err := s.ProcessFrame(ctx, frame); err != nil {
			return err
		}
	}
}
