// Package dashboard computes the read-only projections behind the admin
// and practitioner views. Everything here folds over the ledger; nothing
// is cached or mutated.
package dashboard

import (
	"context"

	"github.com/google/uuid"

	"github.com/careslot/careslot/internal/ledger"
	"github.com/careslot/careslot/internal/practitioner"
)

// DefaultLatest is how many recent appointments the dashboards show.
const DefaultLatest = 5

type AdminStats struct {
	Practitioners int
	Appointments  int
	Patients      int // distinct patients across all appointments
	Latest        []ledger.Appointment
}

type PractitionerStats struct {
	// Earnings sums the amount of every appointment that is completed or
	// paid. An appointment that is both counts once.
	Earnings     int64
	Appointments int
	Patients     int
	Latest       []ledger.Appointment
}

type Aggregator struct {
	appts     ledger.Ledger
	directory practitioner.Repository
}

func NewAggregator(appts ledger.Ledger, directory practitioner.Repository) *Aggregator {
	return &Aggregator{appts: appts, directory: directory}
}

func (a *Aggregator) AdminStats(ctx context.Context, latestN int) (*AdminStats, error) {
	if latestN <= 0 {
		latestN = DefaultLatest
	}

	praCount, err := a.directory.Count(ctx)
	if err != nil {
		return nil, err
	}

	appts, err := a.appts.All(ctx)
	if err != nil {
		return nil, err
	}

	patients := make(map[uuid.UUID]struct{})
	for _, appt := range appts {
		patients[appt.PatientID] = struct{}{}
	}

	latest, err := a.appts.Latest(ctx, latestN)
	if err != nil {
		return nil, err
	}

	return &AdminStats{
		Practitioners: praCount,
		Appointments:  len(appts),
		Patients:      len(patients),
		Latest:        latest,
	}, nil
}

func (a *Aggregator) PractitionerStats(ctx context.Context, practitionerID uuid.UUID, latestN int) (*PractitionerStats, error) {
	if latestN <= 0 {
		latestN = DefaultLatest
	}

	appts, err := a.appts.ListByPractitioner(ctx, practitionerID)
	if err != nil {
		return nil, err
	}

	stats := &PractitionerStats{Appointments: len(appts)}
	patients := make(map[uuid.UUID]struct{})
	for _, appt := range appts {
		patients[appt.PatientID] = struct{}{}
		if appt.IsCompleted || appt.Payment {
			stats.Earnings += appt.Amount
		}
	}
	stats.Patients = len(patients)

	// Latest N of this practitioner only, newest first.
	for i := len(appts) - 1; i >= 0 && len(stats.Latest) < latestN; i-- {
		stats.Latest = append(stats.Latest, appts[i])
	}

	return stats, nil
}
