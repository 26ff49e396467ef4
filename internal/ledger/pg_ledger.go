package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the Postgres error code raised by the partial unique
// index on live (practitioner_id, slot_date, slot_time) triples.
const uniqueViolation = "23505"

const appointmentColumns = `
	id, patient_id, practitioner_id, slot_date, slot_time, amount,
	cancelled, is_completed, payment,
	patient_snapshot, practitioner_snapshot,
	created_at, updated_at`

type PgLedger struct {
	pool *pgxpool.Pool
}

func NewPgLedger(pool *pgxpool.Pool) *PgLedger {
	return &PgLedger{pool: pool}
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.PractitionerID,
		&a.SlotDate,
		&a.SlotTime,
		&a.Amount,
		&a.Cancelled,
		&a.IsCompleted,
		&a.Payment,
		&a.Patient,
		&a.Practitioner,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (l *PgLedger) Create(ctx context.Context, appt *Appointment) (uuid.UUID, error) {
	id := uuid.New()

	err := l.pool.QueryRow(ctx, `
		INSERT INTO appointments (
			id, patient_id, practitioner_id, slot_date, slot_time, amount,
			cancelled, is_completed, payment,
			patient_snapshot, practitioner_snapshot,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, false, false, false, $7, $8, now(), now())
		RETURNING created_at, updated_at
	`, id, appt.PatientID, appt.PractitionerID, appt.SlotDate, appt.SlotTime,
		appt.Amount, appt.Patient, appt.Practitioner).Scan(&appt.CreatedAt, &appt.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return uuid.Nil, ErrDuplicateSlot
		}
		return uuid.Nil, fmt.Errorf("insert appointment: %w", err)
	}

	appt.ID = id
	return id, nil
}

func (l *PgLedger) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := l.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (l *PgLedger) Cancel(ctx context.Context, id, requestingPatientID uuid.UUID) (*Appointment, error) {
	appt, err := l.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.PatientID != requestingPatientID {
		return nil, ErrUnauthorized
	}

	// Compare-and-set on the non-terminal state so a concurrent complete
	// or cancel cannot slip in between the read and the write.
	row := l.pool.QueryRow(ctx, `
		UPDATE appointments
		SET cancelled = true,
		    updated_at = now()
		WHERE id = $1
		  AND NOT cancelled
		  AND NOT is_completed
		RETURNING `+appointmentColumns, id)

	updated, err := scanAppointment(row)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrAlreadyTerminal
	}
	return updated, err
}

func (l *PgLedger) Complete(ctx context.Context, id, requestingPractitionerID uuid.UUID) (*Appointment, error) {
	appt, err := l.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.PractitionerID != requestingPractitionerID {
		return nil, ErrUnauthorized
	}

	row := l.pool.QueryRow(ctx, `
		UPDATE appointments
		SET is_completed = true,
		    updated_at = now()
		WHERE id = $1
		  AND NOT cancelled
		  AND NOT is_completed
		RETURNING `+appointmentColumns, id)

	updated, err := scanAppointment(row)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrAlreadyTerminal
	}
	return updated, err
}

func (l *PgLedger) MarkPaid(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := l.pool.QueryRow(ctx, `
		UPDATE appointments
		SET payment = true,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns, id)
	return scanAppointment(row)
}

func (l *PgLedger) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1
		ORDER BY created_at
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list appointments by patient: %w", err)
	}
	return collectAppointments(rows)
}

func (l *PgLedger) ListByPractitioner(ctx context.Context, practitionerID uuid.UUID) ([]Appointment, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE practitioner_id = $1
		ORDER BY created_at
	`, practitionerID)
	if err != nil {
		return nil, fmt.Errorf("list appointments by practitioner: %w", err)
	}
	return collectAppointments(rows)
}

func (l *PgLedger) All(ctx context.Context) ([]Appointment, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return collectAppointments(rows)
}

func (l *PgLedger) Latest(ctx context.Context, n int) ([]Appointment, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		ORDER BY created_at DESC
		LIMIT $1
	`, n)
	if err != nil {
		return nil, fmt.Errorf("list latest appointments: %w", err)
	}
	return collectAppointments(rows)
}
