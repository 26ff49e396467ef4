package availability

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore keeps reservations in a normalized slot_reservations table whose
// primary key is the (practitioner_id, slot_date, slot_time) triple, so the
// database itself rejects a second reservation of the same slot.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) IsReserved(ctx context.Context, practitionerID uuid.UUID, dateKey, timeKey string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM slot_reservations
			WHERE practitioner_id = $1 AND slot_date = $2 AND slot_time = $3
		)
	`, practitionerID, dateKey, timeKey).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check reservation: %w", err)
	}
	return exists, nil
}

func (s *PgStore) Reserve(ctx context.Context, practitionerID uuid.UUID, dateKey, timeKey string) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO slot_reservations (practitioner_id, slot_date, slot_time, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (practitioner_id, slot_date, slot_time) DO NOTHING
	`, practitionerID, dateKey, timeKey)
	if err != nil {
		return fmt.Errorf("reserve slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyReserved
	}
	return nil
}

func (s *PgStore) Release(ctx context.Context, practitionerID uuid.UUID, dateKey, timeKey string) error {
	// Deleting a row that is not there is the idempotent no-op we want.
	_, err := s.pool.Exec(ctx, `
		DELETE FROM slot_reservations
		WHERE practitioner_id = $1 AND slot_date = $2 AND slot_time = $3
	`, practitionerID, dateKey, timeKey)
	if err != nil {
		return fmt.Errorf("release slot: %w", err)
	}
	return nil
}

func (s *PgStore) ReservedTimes(ctx context.Context, practitionerID uuid.UUID) (map[string][]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT slot_date, slot_time
		FROM slot_reservations
		WHERE practitioner_id = $1
	`, practitionerID)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	booked := make(map[string][]string)
	for rows.Next() {
		var date, t string
		if err := rows.Scan(&date, &t); err != nil {
			return nil, err
		}
		booked[date] = append(booked[date], t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return booked, nil
}

func (s *PgStore) IsAvailable(ctx context.Context, practitionerID uuid.UUID) (bool, error) {
	var available bool
	err := s.pool.QueryRow(ctx, `
		SELECT available FROM practitioners WHERE id = $1
	`, practitionerID).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrPractitionerNotFound
		}
		return false, fmt.Errorf("load availability: %w", err)
	}
	return available, nil
}

func (s *PgStore) SetAvailable(ctx context.Context, practitionerID uuid.UUID, available bool) (bool, error) {
	var previous bool
	err := s.pool.QueryRow(ctx, `
		WITH prev AS (
			SELECT available FROM practitioners WHERE id = $1 FOR UPDATE
		)
		UPDATE practitioners
		SET available = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING (SELECT available FROM prev)
	`, practitionerID, available).Scan(&previous)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrPractitionerNotFound
		}
		return false, fmt.Errorf("set availability: %w", err)
	}
	return previous, nil
}
