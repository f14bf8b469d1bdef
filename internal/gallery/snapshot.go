package gallery

import (
	"math"

	"github.com/coder/hnsw"
	"github.com/rollcall-dev/rollcall/internal/database"
)

// Entry is one enrolled identity in a gallery snapshot.
type Entry struct {
	StudentID int64
	RollNo    string
	Name      string
	Encoding  []float32
}

// Snapshot is an immutable view of the gallery. Readers hold a snapshot for
// the duration of a matching pass; a concurrent Reload never mutates it.
type Snapshot struct {
	entries []Entry
	graph   *hnsw.Graph[int64]
	byID    map[int64]int // student ID -> entries index
}

func newSnapshot(students []database.Student) *Snapshot {
	s := &Snapshot{
		entries: make([]Entry, 0, len(students)),
		byID:    make(map[int64]int, len(students)),
	}
	for _, st := range students {
		if len(st.Encoding) == 0 {
			continue
		}
		s.byID[st.ID] = len(s.entries)
		s.entries = append(s.entries, Entry{
			StudentID: st.ID,
			RollNo:    st.RollNo,
			Name:      st.Name,
			Encoding:  st.Encoding,
		})
	}

	// Small galleries are scanned exactly; the graph only pays off at scale.
	if len(s.entries) >= database.HNSWMinGallery {
		g := hnsw.NewGraph[int64]()
		g.M = database.HNSWMaxNeighbors
		g.Ml = 1.0 / float64(database.HNSWMaxNeighbors) // Standard HNSW formula
		g.Distance = hnsw.EuclideanDistance
		for _, e := range s.entries {
			g.Add(hnsw.MakeNode(e.StudentID, e.Encoding))
		}
		s.graph = g
	}
	return s
}

// Entries returns the snapshot contents in gallery iteration order.
// Callers must not mutate the returned slice.
func (s *Snapshot) Entries() []Entry {
	return s.entries
}

// Len returns the number of enrolled identities in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.entries)
}

// Nearest returns the gallery entry with the minimum Euclidean distance to
// the query, and that distance. When two entries are equidistant the one
// encountered first in gallery iteration order wins; callers must not rely
// on tie ordering beyond reproducibility within a process run.
// ok is false for an empty gallery.
func (s *Snapshot) Nearest(query []float32) (best Entry, distance float64, ok bool) {
	if len(s.entries) == 0 {
		return Entry{}, math.Inf(1), false
	}

	if s.graph != nil {
		return s.nearestHNSW(query)
	}

	bestIdx := 0
	bestDist := database.EuclideanDistance(query, s.entries[0].Encoding)
	for i := 1; i < len(s.entries); i++ {
		if d := database.EuclideanDistance(query, s.entries[i].Encoding); d < bestDist {
			bestDist = d
			bestIdx = i
		}
	}
	return s.entries[bestIdx], bestDist, true
}

// nearestHNSW asks the graph for a candidate pool and re-ranks it exactly,
// so the approximate index never changes which identity wins.
func (s *Snapshot) nearestHNSW(query []float32) (Entry, float64, bool) {
	k := database.HNSWSearchMultiplier * database.HNSWMaxNeighbors
	neighbors := s.graph.Search(query, k)
	if len(neighbors) == 0 {
		return Entry{}, math.Inf(1), false
	}

	bestIdx := -1
	bestDist := math.Inf(1)
	for _, n := range neighbors {
		idx, found := s.byID[n.Key]
		if !found {
			continue
		}
		d := database.EuclideanDistance(query, s.entries[idx].Encoding)
		if d < bestDist || (d == bestDist && (bestIdx == -1 || idx < bestIdx)) {
			bestDist = d
			bestIdx = idx
		}
	}
	if bestIdx == -1 {
		return Entry{}, math.Inf(1), false
	}
	return s.entries[bestIdx], bestDist, true
}
