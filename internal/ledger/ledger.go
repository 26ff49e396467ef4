// Package ledger is the durable record of appointments and the enforcer of
// their status state machine: booked, then completed or cancelled, both
// terminal. The payment flag is independent of attendance and may be set
// even on a cancelled appointment (refund pending).
package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("appointment not found")
	ErrUnauthorized    = errors.New("appointment belongs to someone else")
	ErrAlreadyTerminal = errors.New("appointment is already completed or cancelled")
	ErrDuplicateSlot   = errors.New("slot already has a live appointment")
)

// Ledger contains every appointment interaction the services need.
type Ledger interface {
	// Create persists a new appointment, backfilling ID, CreatedAt and
	// UpdatedAt on the passed record. It fails with ErrDuplicateSlot if a
	// non-cancelled appointment already holds the same
	// (practitioner, date, time) triple. That check is defense in depth:
	// the availability store normally rejects the double booking first.
	Create(ctx context.Context, appt *Appointment) (uuid.UUID, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// Cancel flips cancelled after verifying the requesting patient owns
	// the appointment. Terminal appointments fail with ErrAlreadyTerminal.
	Cancel(ctx context.Context, id, requestingPatientID uuid.UUID) (*Appointment, error)

	// Complete flips isCompleted after verifying the requesting
	// practitioner owns the appointment.
	Complete(ctx context.Context, id, requestingPractitionerID uuid.UUID) (*Appointment, error)

	// MarkPaid sets the payment flag. Allowed in any state; reconciling a
	// payment against a cancelled visit is the refund path.
	MarkPaid(ctx context.Context, id uuid.UUID) (*Appointment, error)

	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error)
	ListByPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]Appointment, error)
	All(ctx context.Context) ([]Appointment, error)

	// Latest returns the n most recently created appointments, newest
	// first.
	Latest(ctx context.Context, n int) ([]Appointment, error)
}
