package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is one row of the append-only lifecycle log. It is best-effort
// observability, not a source of truth: losing an event never fails the
// operation that produced it.
type Event struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

// EventRecorder appends lifecycle events.
type EventRecorder interface {
	InsertEvent(ctx context.Context, ev Event) error
}

func (l *PgLedger) InsertEvent(ctx context.Context, ev Event) error {
	_, err := l.pool.Exec(ctx, `
		INSERT INTO appointment_events (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert appointment event: %w", err)
	}
	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (l *MemLedger) InsertEvent(_ context.Context, ev Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	ev.ID = int64(len(l.events) + 1)
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	l.events = append(l.events, ev)
	return nil
}

// Events returns a copy of the recorded events, oldest first.
func (l *MemLedger) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}
