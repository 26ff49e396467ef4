package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAppointment(patientID, praID uuid.UUID) *Appointment {
	return &Appointment{
		PatientID:      patientID,
		PractitionerID: praID,
		SlotDate:       "15_6_2025",
		SlotTime:       "10:00 AM",
		Amount:         10000,
		Patient:        PatientSnapshot{Name: "Ada Lovelace"},
		Practitioner:   PractitionerSnapshot{Name: "Dr. Gregory House", Speciality: "Diagnostics"},
	}
}

func TestCreateBackfillsRecord(t *testing.T) {
	l := NewMemLedger()
	appt := newAppointment(uuid.New(), uuid.New())

	id, err := l.Create(context.Background(), appt)
	require.NoError(t, err)

	// The caller's record carries the stored identity and timestamps, so
	// a freshly booked appointment serializes like any later read.
	assert.Equal(t, id, appt.ID)
	assert.False(t, appt.CreatedAt.IsZero())
	assert.False(t, appt.UpdatedAt.IsZero())
}

func TestCreateRejectsDuplicateLiveSlot(t *testing.T) {
	l := NewMemLedger()
	ctx := context.Background()
	praID := uuid.New()

	_, err := l.Create(ctx, newAppointment(uuid.New(), praID))
	require.NoError(t, err)

	_, err = l.Create(ctx, newAppointment(uuid.New(), praID))
	assert.ErrorIs(t, err, ErrDuplicateSlot)

	// A different practitioner can hold the same (date, time).
	_, err = l.Create(ctx, newAppointment(uuid.New(), uuid.New()))
	assert.NoError(t, err)
}

func TestCancelledSlotCanBeRebooked(t *testing.T) {
	l := NewMemLedger()
	ctx := context.Background()
	patientID, praID := uuid.New(), uuid.New()

	id, err := l.Create(ctx, newAppointment(patientID, praID))
	require.NoError(t, err)

	_, err = l.Cancel(ctx, id, patientID)
	require.NoError(t, err)

	_, err = l.Create(ctx, newAppointment(uuid.New(), praID))
	assert.NoError(t, err)
}

func TestCancelAuthorization(t *testing.T) {
	l := NewMemLedger()
	ctx := context.Background()
	patientID, praID := uuid.New(), uuid.New()

	id, err := l.Create(ctx, newAppointment(patientID, praID))
	require.NoError(t, err)

	_, err = l.Cancel(ctx, id, uuid.New())
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = l.Cancel(ctx, uuid.New(), patientID)
	assert.ErrorIs(t, err, ErrNotFound)

	appt, err := l.Cancel(ctx, id, patientID)
	require.NoError(t, err)
	assert.True(t, appt.Cancelled)
}

func TestTerminalStatesAreImmutable(t *testing.T) {
	ctx := context.Background()

	t.Run("after cancel", func(t *testing.T) {
		l := NewMemLedger()
		patientID, praID := uuid.New(), uuid.New()
		id, err := l.Create(ctx, newAppointment(patientID, praID))
		require.NoError(t, err)

		_, err = l.Cancel(ctx, id, patientID)
		require.NoError(t, err)

		_, err = l.Cancel(ctx, id, patientID)
		assert.ErrorIs(t, err, ErrAlreadyTerminal)
		_, err = l.Complete(ctx, id, praID)
		assert.ErrorIs(t, err, ErrAlreadyTerminal)

		appt, err := l.GetByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, appt.Cancelled)
		assert.False(t, appt.IsCompleted)
	})

	t.Run("after complete", func(t *testing.T) {
		l := NewMemLedger()
		patientID, praID := uuid.New(), uuid.New()
		id, err := l.Create(ctx, newAppointment(patientID, praID))
		require.NoError(t, err)

		_, err = l.Complete(ctx, id, praID)
		require.NoError(t, err)

		_, err = l.Complete(ctx, id, praID)
		assert.ErrorIs(t, err, ErrAlreadyTerminal)
		_, err = l.Cancel(ctx, id, patientID)
		assert.ErrorIs(t, err, ErrAlreadyTerminal)

		appt, err := l.GetByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, appt.IsCompleted)
		assert.False(t, appt.Cancelled)
	})
}

func TestCompleteAuthorization(t *testing.T) {
	l := NewMemLedger()
	ctx := context.Background()
	patientID, praID := uuid.New(), uuid.New()

	id, err := l.Create(ctx, newAppointment(patientID, praID))
	require.NoError(t, err)

	_, err = l.Complete(ctx, id, uuid.New())
	assert.ErrorIs(t, err, ErrUnauthorized)

	appt, err := l.Complete(ctx, id, praID)
	require.NoError(t, err)
	assert.True(t, appt.IsCompleted)
}

func TestMarkPaidWorksInAnyState(t *testing.T) {
	l := NewMemLedger()
	ctx := context.Background()
	patientID, praID := uuid.New(), uuid.New()

	_, err := l.MarkPaid(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	id, err := l.Create(ctx, newAppointment(patientID, praID))
	require.NoError(t, err)

	_, err = l.Cancel(ctx, id, patientID)
	require.NoError(t, err)

	// Payment on a cancelled appointment is the refund-pending state.
	appt, err := l.MarkPaid(ctx, id)
	require.NoError(t, err)
	assert.True(t, appt.Payment)
	assert.True(t, appt.Cancelled)
}

func TestLatestReturnsNewestFirst(t *testing.T) {
	l := NewMemLedger()
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 4; i++ {
		a := newAppointment(uuid.New(), uuid.New())
		id, err := l.Create(ctx, a)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	latest, err := l.Latest(ctx, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, ids[3], latest[0].ID)
	assert.Equal(t, ids[2], latest[1].ID)

	all, err := l.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestListByPatientAndPractitioner(t *testing.T) {
	l := NewMemLedger()
	ctx := context.Background()
	patientID, praID := uuid.New(), uuid.New()

	_, err := l.Create(ctx, newAppointment(patientID, praID))
	require.NoError(t, err)

	other := newAppointment(uuid.New(), uuid.New())
	other.SlotTime = "11:00 AM"
	_, err = l.Create(ctx, other)
	require.NoError(t, err)

	mine, err := l.ListByPatient(ctx, patientID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := l.ListByPractitioner(ctx, praID)
	require.NoError(t, err)
	assert.Len(t, theirs, 1)
	assert.Equal(t, praID, theirs[0].PractitionerID)
}
