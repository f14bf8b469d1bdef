package recognize

import (
	"context"
	"testing"

	"github.com/rollcall-dev/rollcall/internal/database"
	"github.com/rollcall-dev/rollcall/internal/database/mock"
	"github.com/rollcall-dev/rollcall/internal/gallery"
)

func buildSnapshot(t *testing.T, students ...database.Student) *gallery.Snapshot {
	t.Helper()
	store := mock.NewStudentStore()
	for _, s := range students {
		store.Add(s)
	}
	idx := gallery.New(store)
	if _, err := idx.Reload(context.Background()); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	return idx.Snapshot()
}

func TestMatch_ExactVectorMatches(t *testing.T) {
	v1 := []float32{0.1, 0.2, 0.3, 0.4}
	snap := buildSnapshot(t, database.Student{ID: 1, RollNo: "S1", Name: "Anna", Encoding: v1})

	result := Match(v1, snap, 0.6)

	if !result.Matched() {
		t.Fatal("expected a match for identical vector")
	}
	if result.StudentID != 1 {
		t.Errorf("matched student %d, want 1", result.StudentID)
	}
	if result.Distance != 0 {
		t.Errorf("distance = %v, want 0", result.Distance)
	}
}

func TestMatch_DistanceBeyondThresholdIsUnknown(t *testing.T) {
	snap := buildSnapshot(t, database.Student{ID: 1, RollNo: "S1", Name: "Anna", Encoding: []float32{0, 0}})

	// Distance 0.9 to the only gallery vector.
	result := Match([]float32{0.9, 0}, snap, 0.6)

	if result.Matched() {
		t.Fatal("expected unknown for distance 0.9 with threshold 0.6")
	}
	if result.Distance < 0.899 || result.Distance > 0.901 {
		t.Errorf("distance = %v, want ~0.9 reported for diagnostics", result.Distance)
	}
}

func TestMatch_ThresholdMonotonicity(t *testing.T) {
	// Stricter thresholds must match a subset of looser ones, holding the
	// gallery and observed vector fixed.
	snap := buildSnapshot(t,
		database.Student{ID: 1, RollNo: "S1", Name: "Anna", Encoding: []float32{0, 0}},
		database.Student{ID: 2, RollNo: "S2", Name: "Ben", Encoding: []float32{1, 0}},
	)
	observed := []float32{0.3, 0}

	thresholds := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.8, 1.0}
	prevMatched := false
	for i := len(thresholds) - 1; i >= 0; i-- {
		matched := Match(observed, snap, thresholds[i]).Matched()
		if i < len(thresholds)-1 && matched && !prevMatched {
			t.Errorf("threshold %v matched but looser %v did not", thresholds[i], thresholds[i+1])
		}
		prevMatched = matched
	}

	if !Match(observed, snap, 0.5).Matched() {
		t.Error("expected match at threshold 0.5 for distance 0.3")
	}
	if Match(observed, snap, 0.2).Matched() {
		t.Error("expected unknown at threshold 0.2 for distance 0.3")
	}
}

func TestMatchAll_IndependentPerFace(t *testing.T) {
	snap := buildSnapshot(t,
		database.Student{ID: 1, RollNo: "S1", Name: "Anna", Encoding: []float32{0, 0}},
		database.Student{ID: 2, RollNo: "S2", Name: "Ben", Encoding: []float32{5, 0}},
	)

	detections := []Detection{
		{Region: Region{X: 10}, Encoding: []float32{0.1, 0}},
		{Region: Region{X: 200}, Encoding: []float32{5, 0.1}},
		{Region: Region{X: 400}, Encoding: []float32{2.5, 0}}, // far from both
	}

	results := MatchAll(detections, snap, 0.6)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].StudentID != 1 {
		t.Errorf("face 0 matched student %d, want 1", results[0].StudentID)
	}
	if results[1].StudentID != 2 {
		t.Errorf("face 1 matched student %d, want 2", results[1].StudentID)
	}
	if results[2].Matched() {
		t.Errorf("face 2 should be unknown, matched student %d", results[2].StudentID)
	}
	if results[0].Region.X != 10 || results[1].Region.X != 200 {
		t.Error("regions not carried through to results")
	}
}

func TestMatch_EmptyGalleryIsUnknown(t *testing.T) {
	snap := buildSnapshot(t)

	result := Match([]float32{1, 2}, snap, 0.6)

	if result.Matched() {
		t.Error("expected unknown against empty gallery")
	}
}
