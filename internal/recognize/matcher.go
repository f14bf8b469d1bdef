package recognize

import (
	"github.com/rollcall-dev/rollcall/internal/gallery"
)

// MatchResult is the outcome of comparing one observed encoding to the
// gallery. An unmatched face is a valid outcome, not an error; Distance is
// reported either way for diagnostics.
type MatchResult struct {
	Region    Region
	StudentID int64  // 0 when unmatched
	RollNo    string // empty when unmatched
	Name      string // empty when unmatched
	Distance  float64
}

// Matched reports whether the observed face resolved to a known identity.
func (r MatchResult) Matched() bool {
	return r.StudentID != 0
}

// Match resolves one observed encoding against the gallery snapshot. The
// nearest identity is accepted when its Euclidean distance is within the
// threshold; otherwise the result is unmatched with the distance still set.
func Match(observed []float32, snap *gallery.Snapshot, threshold float64) MatchResult {
	entry, distance, ok := snap.Nearest(observed)
	if !ok {
		return MatchResult{Distance: distance}
	}
	if distance > threshold {
		return MatchResult{Distance: distance}
	}
	return MatchResult{
		StudentID: entry.StudentID,
		RollNo:    entry.RollNo,
		Name:      entry.Name,
		Distance:  distance,
	}
}

// MatchAll matches every detection independently, one result per face.
func MatchAll(detections []Detection, snap *gallery.Snapshot, threshold float64) []MatchResult {
	results := make([]MatchResult, len(detections))
	for i, d := range detections {
		results[i] = Match(d.Encoding, snap, threshold)
		results[i].Region = d.Region
	}
	return results
}
