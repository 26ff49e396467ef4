package dashboard_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careslot/careslot/internal/dashboard"
	"github.com/careslot/careslot/internal/ledger"
	"github.com/careslot/careslot/internal/practitioner"
)

func seedAppointment(t *testing.T, l *ledger.MemLedger, patientID, praID uuid.UUID, slotTime string, amount int64) *ledger.Appointment {
	t.Helper()
	appt := &ledger.Appointment{
		PatientID:      patientID,
		PractitionerID: praID,
		SlotDate:       "15_6_2025",
		SlotTime:       slotTime,
		Amount:         amount,
	}
	id, err := l.Create(context.Background(), appt)
	require.NoError(t, err)
	appt.ID = id
	return appt
}

func TestPractitionerStatsEarnings(t *testing.T) {
	ctx := context.Background()
	appts := ledger.NewMemLedger()
	directory := practitioner.NewMemRepository()
	praID := uuid.New()
	patientID := uuid.New()

	completed := seedAppointment(t, appts, patientID, praID, "10:00 AM", 100)
	paid := seedAppointment(t, appts, patientID, praID, "10:30 AM", 200)
	completedAndPaid := seedAppointment(t, appts, patientID, praID, "11:00 AM", 400)
	seedAppointment(t, appts, patientID, praID, "11:30 AM", 800) // neither

	_, err := appts.Complete(ctx, completed.ID, praID)
	require.NoError(t, err)
	_, err = appts.MarkPaid(ctx, paid.ID)
	require.NoError(t, err)
	_, err = appts.Complete(ctx, completedAndPaid.ID, praID)
	require.NoError(t, err)
	_, err = appts.MarkPaid(ctx, completedAndPaid.ID)
	require.NoError(t, err)

	stats, err := dashboard.NewAggregator(appts, directory).PractitionerStats(ctx, praID, 0)
	require.NoError(t, err)

	// 100 completed + 200 paid + 400 both (counted once), 800 excluded.
	assert.Equal(t, int64(700), stats.Earnings)
	assert.Equal(t, 4, stats.Appointments)
	assert.Equal(t, 1, stats.Patients)
}

func TestPractitionerStatsLatestNewestFirst(t *testing.T) {
	ctx := context.Background()
	appts := ledger.NewMemLedger()
	directory := practitioner.NewMemRepository()
	praID := uuid.New()
	otherPra := uuid.New()

	seedAppointment(t, appts, uuid.New(), praID, "10:00 AM", 100)
	seedAppointment(t, appts, uuid.New(), otherPra, "10:00 AM", 100)
	second := seedAppointment(t, appts, uuid.New(), praID, "10:30 AM", 100)
	third := seedAppointment(t, appts, uuid.New(), praID, "11:00 AM", 100)

	stats, err := dashboard.NewAggregator(appts, directory).PractitionerStats(ctx, praID, 2)
	require.NoError(t, err)

	require.Len(t, stats.Latest, 2)
	assert.Equal(t, third.ID, stats.Latest[0].ID)
	assert.Equal(t, second.ID, stats.Latest[1].ID)
	assert.Equal(t, 3, stats.Appointments)
	assert.Equal(t, 3, stats.Patients)
}

func TestAdminStats(t *testing.T) {
	ctx := context.Background()
	appts := ledger.NewMemLedger()
	directory := practitioner.NewMemRepository()

	praA := uuid.New()
	praB := uuid.New()
	directory.AddPractitioner(practitioner.Practitioner{ID: praA, Name: "Dr. A"})
	directory.AddPractitioner(practitioner.Practitioner{ID: praB, Name: "Dr. B"})

	sharedPatient := uuid.New()
	seedAppointment(t, appts, sharedPatient, praA, "10:00 AM", 100)
	seedAppointment(t, appts, sharedPatient, praB, "10:00 AM", 100)
	newest := seedAppointment(t, appts, uuid.New(), praA, "10:30 AM", 100)

	stats, err := dashboard.NewAggregator(appts, directory).AdminStats(ctx, 0)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Practitioners)
	assert.Equal(t, 3, stats.Appointments)
	assert.Equal(t, 2, stats.Patients, "patients are counted distinct")
	require.NotEmpty(t, stats.Latest)
	assert.Equal(t, newest.ID, stats.Latest[0].ID)
}

func TestAdminStatsEmpty(t *testing.T) {
	stats, err := dashboard.NewAggregator(ledger.NewMemLedger(), practitioner.NewMemRepository()).AdminStats(context.Background(), 0)
	require.NoError(t, err)

	assert.Zero(t, stats.Practitioners)
	assert.Zero(t, stats.Appointments)
	assert.Zero(t, stats.Patients)
	assert.Empty(t, stats.Latest)
}
