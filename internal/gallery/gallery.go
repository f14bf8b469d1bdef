// Package gallery maintains the in-memory index of enrolled face encodings
// used by the matcher. The student store is the source of truth; the index
// is a read-mostly cache rebuilt by Reload.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rollcall-dev/rollcall/internal/database"
)

// ErrUnavailable is returned when a reload could not read the student store.
// The previous snapshot stays active; the index never serves a partial load.
var ErrUnavailable = errors.New("gallery unavailable")

// Index owns the current gallery snapshot. It is constructed once and passed
// to every consumer; Reload is the only mutation entry point.
type Index struct {
	store database.StudentStore

	mu      sync.RWMutex
	current *Snapshot
}

// New creates an empty gallery index backed by the given student store.
// Call Reload to populate it.
func New(store database.StudentStore) *Index {
	return &Index{
		store:   store,
		current: newSnapshot(nil),
	}
}

// Reload re-reads all enrolled students and replaces the snapshot
// atomically. A matcher in progress sees either the old or the fully-new
// snapshot, never a mix. Returns the number of identities loaded; on store
// failure the previous snapshot is retained and the count is zero.
func (g *Index) Reload(ctx context.Context) (int, error) {
	students, err := g.store.ListEnrolled(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	snap := newSnapshot(students)

	g.mu.Lock()
	g.current = snap
	g.mu.Unlock()

	return snap.Len(), nil
}

// Snapshot returns the current gallery snapshot. Never nil.
func (g *Index) Snapshot() *Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current
}
