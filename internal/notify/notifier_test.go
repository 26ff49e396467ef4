package notify_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careslot/careslot/internal/notify"
	"github.com/careslot/careslot/internal/practitioner"
)

// flakySender fails delivery for the addresses in reject and records the
// rest.
type flakySender struct {
	mu     sync.Mutex
	reject map[string]bool
	sent   []string
}

func (s *flakySender) Send(recipient, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reject[recipient] {
		return errors.New("mailbox unavailable")
	}
	s.sent = append(s.sent, recipient)
	return nil
}

func seedPractitioner(repo *practitioner.MemRepository) uuid.UUID {
	id := uuid.New()
	repo.AddPractitioner(practitioner.Practitioner{
		ID:        id,
		Name:      "Dr. Arizona Robbins",
		Available: true,
	})
	return id
}

func seedFollower(t *testing.T, repo *practitioner.MemRepository, praID uuid.UUID, email string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	repo.AddPatient(practitioner.Patient{ID: id, Name: "Follower " + email, Email: email})
	require.NoError(t, repo.Follow(context.Background(), id, praID))
	return id
}

func TestFollow(t *testing.T) {
	ctx := context.Background()
	repo := practitioner.NewMemRepository()
	praID := seedPractitioner(repo)
	n := notify.NewNotifier(repo, &flakySender{}, zerolog.Nop())

	patientID := uuid.New()
	repo.AddPatient(practitioner.Patient{ID: patientID, Name: "Izzie Stevens", Email: "izzie@example.com"})

	require.NoError(t, n.Follow(ctx, patientID, praID))

	t.Run("duplicate follow is rejected", func(t *testing.T) {
		err := n.Follow(ctx, patientID, praID)
		assert.ErrorIs(t, err, practitioner.ErrAlreadyFollowing)
	})

	t.Run("unknown patient", func(t *testing.T) {
		err := n.Follow(ctx, uuid.New(), praID)
		assert.ErrorIs(t, err, practitioner.ErrPatientNotFound)
	})

	t.Run("unknown practitioner", func(t *testing.T) {
		err := n.Follow(ctx, patientID, uuid.New())
		assert.ErrorIs(t, err, practitioner.ErrNotFound)
	})
}

func TestNotifyBecameAvailableDeliversToAllFollowers(t *testing.T) {
	ctx := context.Background()
	repo := practitioner.NewMemRepository()
	praID := seedPractitioner(repo)

	seedFollower(t, repo, praID, "a@example.com")
	seedFollower(t, repo, praID, "b@example.com")
	seedFollower(t, repo, praID, "c@example.com")

	sender := &flakySender{}
	n := notify.NewNotifier(repo, sender, zerolog.Nop())

	report, err := n.NotifyBecameAvailable(ctx, praID)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Attempted)
	assert.Equal(t, 3, report.Delivered)
	assert.Empty(t, report.Failed)
	assert.ElementsMatch(t, []string{"a@example.com", "b@example.com", "c@example.com"}, sender.sent)
}

func TestNotifyBecameAvailableContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	repo := practitioner.NewMemRepository()
	praID := seedPractitioner(repo)

	seedFollower(t, repo, praID, "a@example.com")
	failing := seedFollower(t, repo, praID, "b@example.com")
	seedFollower(t, repo, praID, "c@example.com")

	sender := &flakySender{reject: map[string]bool{"b@example.com": true}}
	n := notify.NewNotifier(repo, sender, zerolog.Nop())

	report, err := n.NotifyBecameAvailable(ctx, praID)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Attempted)
	assert.Equal(t, 2, report.Delivered)
	assert.Equal(t, []uuid.UUID{failing}, report.Failed)
	assert.ElementsMatch(t, []string{"a@example.com", "c@example.com"}, sender.sent)
}

func TestNotifyBecameAvailableNoFollowers(t *testing.T) {
	ctx := context.Background()
	repo := practitioner.NewMemRepository()
	praID := seedPractitioner(repo)

	n := notify.NewNotifier(repo, &flakySender{}, zerolog.Nop())
	report, err := n.NotifyBecameAvailable(ctx, praID)
	require.NoError(t, err)
	assert.Zero(t, report.Attempted)
}
