// Package practitioner reads the people directory (practitioners,
// patients) and owns the follower sets. Account creation, credentials and
// profile editing belong to the external identity collaborator.
package practitioner

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("practitioner not found")
	ErrPatientNotFound  = errors.New("patient not found")
	ErrAlreadyFollowing = errors.New("already following this practitioner")
)

// Repository contains the directory reads and follower writes the
// services need.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Practitioner, error)
	List(ctx context.Context) ([]Practitioner, error)

	// SearchByName filters the directory by a case-insensitive substring
	// match on the name. An empty query behaves like List.
	SearchByName(ctx context.Context, query string) ([]Practitioner, error)

	Count(ctx context.Context) (int, error)

	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	// Follow adds the patient to the practitioner's follower set.
	// Following twice is an explicit ErrAlreadyFollowing, not a no-op.
	Follow(ctx context.Context, patientID, practitionerID uuid.UUID) error
	ListFollowers(ctx context.Context, practitionerID uuid.UUID) ([]Follower, error)
}
