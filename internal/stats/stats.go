// Package stats summarizes attendance over the ledger.
package stats

import (
	"context"
	"fmt"

	"github.com/rollcall-dev/rollcall/internal/database"
)

// Summary is an attendance breakdown over one consistent store snapshot.
type Summary struct {
	Total      int            `json:"total"`
	Present    int            `json:"present"`
	Absent     int            `json:"absent"`
	Percentage float64        `json:"percentage"`
	BySubject  map[string]int `json:"by_subject"`
	ByBranch   map[string]int `json:"by_branch"`
}

// Aggregator computes attendance summaries.
type Aggregator struct {
	store database.AttendanceStore
}

// New creates an aggregator over the given attendance store.
func New(store database.AttendanceStore) *Aggregator {
	return &Aggregator{store: store}
}

// Summarize computes the attendance breakdown for the filter. Total counts
// students in scope regardless of attendance; Present counts distinct
// students with a present record matching the filter; Absent is the
// difference, so an unmarked student counts as absent.
func (a *Aggregator) Summarize(ctx context.Context, f database.AttendanceFilter) (*Summary, error) {
	s, err := a.store.Stats(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("computing attendance stats: %w", err)
	}

	sum := &Summary{
		Total:     s.Total,
		Present:   s.Present,
		Absent:    s.Absent,
		BySubject: s.BySubject,
		ByBranch:  s.ByBranch,
	}
	if sum.Total > 0 {
		sum.Percentage = float64(sum.Present) / float64(sum.Total) * 100
	}
	return sum, nil
}
