// Package availability is the single source of truth for which
// (practitioner, date, time) triples are reserved, and for the
// practitioner's accepting-bookings flag.
package availability

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrAlreadyReserved      = errors.New("slot is already reserved")
	ErrPractitionerNotFound = errors.New("practitioner not found")
)

// Store owns slot reservations and the accepting-bookings flag; booking
// decisions must read both from here so the pair stays one coordinated
// resource. Reserve must be atomic with respect to concurrent callers for
// the same triple: exactly one succeeds, the rest get ErrAlreadyReserved.
// Release is idempotent.
type Store interface {
	IsReserved(ctx context.Context, practitionerID uuid.UUID, dateKey, timeKey string) (bool, error)
	Reserve(ctx context.Context, practitionerID uuid.UUID, dateKey, timeKey string) error
	Release(ctx context.Context, practitionerID uuid.UUID, dateKey, timeKey string) error

	// ReservedTimes returns the reserved time keys grouped by date key.
	ReservedTimes(ctx context.Context, practitionerID uuid.UUID) (map[string][]string, error)

	// IsAvailable reports the accepting-bookings flag.
	IsAvailable(ctx context.Context, practitionerID uuid.UUID) (bool, error)

	// SetAvailable flips the accepting-bookings flag and returns the prior
	// value, so callers can detect a false-to-true transition without a
	// separate read.
	SetAvailable(ctx context.Context, practitionerID uuid.UUID, available bool) (previous bool, err error)
}
