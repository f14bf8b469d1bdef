// Package reconciler pushes pending attendance records to the report
// transport and marks them synced only after confirmed delivery. Records
// never leave the pending set on a failed send, so interrupted syncs are
// retried whole on the next run.
package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/rollcall-dev/rollcall/internal/database"
	"github.com/rollcall-dev/rollcall/internal/transport"
)

// Result summarizes one reconcile run.
type Result struct {
	Synced int      // batches delivered and marked synced
	Failed int      // batches that could not be delivered
	Errors []string // one entry per failed batch
}

// Reconciler drains pending attendance records batch by batch.
type Reconciler struct {
	store     database.AttendanceStore
	transport transport.Transport
	now       func() time.Time
}

// New creates a reconciler over the given store and transport.
func New(store database.AttendanceStore, tr transport.Transport) *Reconciler {
	return &Reconciler{store: store, transport: tr, now: time.Now}
}

// ReconcileAll sends every pending batch. A failed batch is recorded and
// skipped; later batches are still attempted, so one bad report cannot
// wedge the whole queue. The records of a failed batch keep their pending
// state untouched.
func (r *Reconciler) ReconcileAll(ctx context.Context) (*Result, error) {
	pending, err := r.store.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing pending attendance: %w", err)
	}

	result := &Result{}
	for _, batch := range partition(pending) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := r.reconcileBatch(ctx, batch); err != nil {
			result.Failed++
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s %s: %v", batch.Date, batch.SubjectCode, err))
			continue
		}
		result.Synced++
	}
	return result, nil
}

// reconcileBatch delivers one report and flips its records to synced.
// The order matters: a crash between send and mark leaves the records
// pending, and the next run re-sends the report. Duplicate reports are
// acceptable; silently lost ones are not.
func (r *Reconciler) reconcileBatch(ctx context.Context, batch Batch) error {
	if err := r.transport.Send(ctx, renderReport(batch, r.now())); err != nil {
		return err
	}

	ids := make([]int64, len(batch.Records))
	for i, rec := range batch.Records {
		ids[i] = rec.ID
	}
	if err := r.store.MarkSynced(ctx, ids); err != nil {
		return fmt.Errorf("marking records synced after delivery: %w", err)
	}
	return nil
}
