package practitioner

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const practitionerColumns = `
	id, name, email, speciality, degree, experience, about,
	image_url, address, fees, available, created_at, updated_at`

func scanPractitioner(row pgx.Row) (*Practitioner, error) {
	var p Practitioner
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.Speciality,
		&p.Degree,
		&p.Experience,
		&p.About,
		&p.ImageURL,
		&p.Address,
		&p.Fees,
		&p.Available,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Practitioner, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+practitionerColumns+`
		FROM practitioners
		WHERE id = $1
	`, id)
	return scanPractitioner(row)
}

func collectPractitioners(rows pgx.Rows) ([]Practitioner, error) {
	defer rows.Close()

	var result []Practitioner
	for rows.Next() {
		p, err := scanPractitioner(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) List(ctx context.Context) ([]Practitioner, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+practitionerColumns+`
		FROM practitioners
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list practitioners: %w", err)
	}
	return collectPractitioners(rows)
}

func (r *PgRepository) SearchByName(ctx context.Context, query string) ([]Practitioner, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+practitionerColumns+`
		FROM practitioners
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY name
	`, query)
	if err != nil {
		return nil, fmt.Errorf("search practitioners: %w", err)
	}
	return collectPractitioners(rows)
}

func (r *PgRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM practitioners`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count practitioners: %w", err)
	}
	return n, nil
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var p Patient
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Email, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PgRepository) Follow(ctx context.Context, patientID, practitionerID uuid.UUID) error {
	if _, err := r.GetByID(ctx, practitionerID); err != nil {
		return err
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO practitioner_followers (practitioner_id, patient_id, created_at)
		VALUES ($1, $2, now())
	`, practitionerID, patientID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAlreadyFollowing
		}
		return fmt.Errorf("follow practitioner: %w", err)
	}
	return nil
}

func (r *PgRepository) ListFollowers(ctx context.Context, practitionerID uuid.UUID) ([]Follower, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.email
		FROM practitioner_followers f
		JOIN patients p ON p.id = f.patient_id
		WHERE f.practitioner_id = $1
	`, practitionerID)
	if err != nil {
		return nil, fmt.Errorf("list followers: %w", err)
	}
	defer rows.Close()

	var result []Follower
	for rows.Next() {
		var f Follower
		if err := rows.Scan(&f.PatientID, &f.Name, &f.Email); err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
