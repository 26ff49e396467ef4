// Package reconcile repairs the two directions of reservation/ledger
// divergence that a crash between the paired writes can leave behind:
// a reservation with no live appointment (leaked slot) and a live
// appointment with no reservation (double-booking exposure).
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// grace keeps the reconciler away from bookings that are mid-flight
// between the reserve and the ledger insert.
const grace = time.Minute

type Report struct {
	OrphanedReleased int64 // reservations dropped because no live appointment backs them
	MissingRestored  int64 // reservations re-inserted for live appointments
}

type Reconciler struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

func NewReconciler(pool *pgxpool.Pool, log zerolog.Logger) *Reconciler {
	return &Reconciler{pool: pool, log: log}
}

// Run performs one repair pass and reports what it fixed.
func (r *Reconciler) Run(ctx context.Context) (Report, error) {
	var report Report

	released, err := r.pool.Exec(ctx, `
		DELETE FROM slot_reservations sr
		WHERE sr.created_at < now() - $1::interval
		  AND NOT EXISTS (
			SELECT 1 FROM appointments a
			WHERE a.practitioner_id = sr.practitioner_id
			  AND a.slot_date = sr.slot_date
			  AND a.slot_time = sr.slot_time
			  AND NOT a.cancelled
		  )
	`, grace.String())
	if err != nil {
		return report, fmt.Errorf("release orphaned reservations: %w", err)
	}
	report.OrphanedReleased = released.RowsAffected()

	restored, err := r.pool.Exec(ctx, `
		INSERT INTO slot_reservations (practitioner_id, slot_date, slot_time, created_at)
		SELECT a.practitioner_id, a.slot_date, a.slot_time, now()
		FROM appointments a
		WHERE NOT a.cancelled
		  AND a.created_at < now() - $1::interval
		  AND NOT EXISTS (
			SELECT 1 FROM slot_reservations sr
			WHERE sr.practitioner_id = a.practitioner_id
			  AND sr.slot_date = a.slot_date
			  AND sr.slot_time = a.slot_time
		  )
		ON CONFLICT (practitioner_id, slot_date, slot_time) DO NOTHING
	`, grace.String())
	if err != nil {
		return report, fmt.Errorf("restore missing reservations: %w", err)
	}
	report.MissingRestored = restored.RowsAffected()

	if report.OrphanedReleased > 0 || report.MissingRestored > 0 {
		r.log.Warn().
			Int64("orphaned_released", report.OrphanedReleased).
			Int64("missing_restored", report.MissingRestored).
			Msg("reservation divergence repaired")
	}

	return report, nil
}
