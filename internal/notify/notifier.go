// Package notify manages practitioner follower sets and fans out a
// notification to every follower when a practitioner starts accepting
// bookings again.
package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careslot/careslot/internal/practitioner"
)

// FanOutReport says what happened to each recipient of one fan-out.
// Partial failure is expected: one bad address must not starve the rest.
type FanOutReport struct {
	Attempted int
	Delivered int
	Failed    []uuid.UUID // patient IDs whose send failed
}

type Notifier struct {
	directory practitioner.Repository
	sender    Sender
	log       zerolog.Logger
}

func NewNotifier(directory practitioner.Repository, sender Sender, log zerolog.Logger) *Notifier {
	return &Notifier{
		directory: directory,
		sender:    sender,
		log:       log,
	}
}

// Follow subscribes the patient to the practitioner's availability
// notifications. Following twice surfaces practitioner.ErrAlreadyFollowing.
func (n *Notifier) Follow(ctx context.Context, patientID, practitionerID uuid.UUID) error {
	if _, err := n.directory.GetPatientByID(ctx, patientID); err != nil {
		return err
	}
	return n.directory.Follow(ctx, patientID, practitionerID)
}

// NotifyBecameAvailable sends one message per follower. Each send is
// independent; failures are collected into the report, never returned as
// an error that would abort the remaining recipients.
func (n *Notifier) NotifyBecameAvailable(ctx context.Context, practitionerID uuid.UUID) (FanOutReport, error) {
	pra, err := n.directory.GetByID(ctx, practitionerID)
	if err != nil {
		return FanOutReport{}, err
	}

	followers, err := n.directory.ListFollowers(ctx, practitionerID)
	if err != nil {
		return FanOutReport{}, fmt.Errorf("list followers: %w", err)
	}

	subject := fmt.Sprintf("%s is now accepting bookings", pra.Name)
	body := fmt.Sprintf("%s (%s) is accepting appointments again. Book your slot before it fills up.", pra.Name, pra.Speciality)

	report := FanOutReport{Attempted: len(followers)}
	for _, f := range followers {
		if err := n.sender.Send(f.Email, subject, body); err != nil {
			report.Failed = append(report.Failed, f.PatientID)
			n.log.Warn().
				Err(err).
				Str("practitioner_id", practitionerID.String()).
				Str("patient_id", f.PatientID.String()).
				Msg("follower notification failed")
			continue
		}
		report.Delivered++
	}

	return report, nil
}
