// Package booking orchestrates the calendar, the availability store and
// the appointment ledger. It is the only writer of slot reservations, and
// the component responsible for the no-double-booking guarantee.
package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careslot/careslot/internal/availability"
	"github.com/careslot/careslot/internal/calendar"
	"github.com/careslot/careslot/internal/ledger"
	"github.com/careslot/careslot/internal/notify"
	"github.com/careslot/careslot/internal/practitioner"
	redisclient "github.com/careslot/careslot/internal/redis"
)

const (
	EventBooked              = "APPOINTMENT_BOOKED"
	EventCancelled           = "APPOINTMENT_CANCELLED"
	EventCompleted           = "APPOINTMENT_COMPLETED"
	EventPaid                = "APPOINTMENT_PAID"
	EventAvailabilityChanged = "AVAILABILITY_CHANGED"
)

var (
	ErrPractitionerUnavailable = errors.New("practitioner is not accepting bookings")
	ErrInvalidSlot             = errors.New("slot is not in the bookable window")
	ErrSlotTaken               = errors.New("slot is already taken")
	ErrBookingContended        = errors.New("practitioner is busy with another booking, please retry")
)

// AvailabilityNotifier is the follower fan-out hook fired when a
// practitioner flips back to available.
type AvailabilityNotifier interface {
	NotifyBecameAvailable(ctx context.Context, practitionerID uuid.UUID) (notify.FanOutReport, error)
}

type Service struct {
	directory practitioner.Repository
	slots     availability.Store
	appts     ledger.Ledger
	events    ledger.EventRecorder
	locker    redisclient.Locker
	notifier  AvailabilityNotifier
	policy    calendar.Policy
	now       func() time.Time
	log       zerolog.Logger
}

func NewService(
	directory practitioner.Repository,
	slots availability.Store,
	appts ledger.Ledger,
	events ledger.EventRecorder,
	locker redisclient.Locker,
	notifier AvailabilityNotifier,
	policy calendar.Policy,
	log zerolog.Logger,
) *Service {
	return &Service{
		directory: directory,
		slots:     slots,
		appts:     appts,
		events:    events,
		locker:    locker,
		notifier:  notifier,
		policy:    policy,
		now:       time.Now,
		log:       log,
	}
}

// WithClock overrides the service clock so the bookable window can be
// pinned to a fixed instant.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Book reserves the slot and writes the appointment record under the
// practitioner's lock. If the ledger write fails after the slot was
// reserved, the reservation is rolled back so the slot cannot leak.
func (s *Service) Book(ctx context.Context, patientID, practitionerID uuid.UUID, dateKey, timeKey string) (*ledger.Appointment, error) {
	pra, err := s.directory.GetByID(ctx, practitionerID)
	if err != nil {
		return nil, err
	}

	// The flag is read from the availability store, not the directory
	// snapshot, so a SetAvailability flip takes effect immediately.
	available, err := s.slots.IsAvailable(ctx, practitionerID)
	if err != nil {
		if errors.Is(err, availability.ErrPractitionerNotFound) {
			return nil, practitioner.ErrNotFound
		}
		return nil, err
	}
	if !available {
		return nil, ErrPractitionerUnavailable
	}

	if !s.policy.Contains(s.now(), dateKey, timeKey) {
		return nil, ErrInvalidSlot
	}

	patient, err := s.directory.GetPatientByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	appt := &ledger.Appointment{
		PatientID:      patientID,
		PractitionerID: practitionerID,
		SlotDate:       dateKey,
		SlotTime:       timeKey,
		Amount:         pra.Fees,
		Patient: ledger.PatientSnapshot{
			Name:  patient.Name,
			Email: patient.Email,
		},
		Practitioner: ledger.PractitionerSnapshot{
			Name:       pra.Name,
			Speciality: pra.Speciality,
			ImageURL:   pra.ImageURL,
			Address:    pra.Address,
		},
	}

	err = s.locker.WithPractitionerLock(ctx, practitionerID, func(lockCtx context.Context) error {
		if err := s.slots.Reserve(lockCtx, practitionerID, dateKey, timeKey); err != nil {
			if errors.Is(err, availability.ErrAlreadyReserved) {
				return ErrSlotTaken
			}
			return fmt.Errorf("reserve slot: %w", err)
		}

		if _, err := s.appts.Create(lockCtx, appt); err != nil {
			// The single most important recovery path: without this
			// release the slot stays reserved with no appointment behind
			// it and is unbookable forever.
			if relErr := s.slots.Release(lockCtx, practitionerID, dateKey, timeKey); relErr != nil {
				s.log.Error().
					Err(relErr).
					Str("practitioner_id", practitionerID.String()).
					Str("slot_date", dateKey).
					Str("slot_time", timeKey).
					Msg("rollback release failed, reconciler will repair")
			}
			if errors.Is(err, ledger.ErrDuplicateSlot) {
				return ErrSlotTaken
			}
			return fmt.Errorf("create appointment: %w", err)
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrBookingContended
		}
		return nil, err
	}

	s.recordEvent(ctx, appt.ID, EventBooked, map[string]any{
		"patient_id":      patientID.String(),
		"practitioner_id": practitionerID.String(),
		"slot_date":       dateKey,
		"slot_time":       timeKey,
		"amount":          appt.Amount,
	})

	return appt, nil
}

// Cancel flips the appointment to cancelled and releases its slot. The
// two writes are one logical unit: a failed release after a successful
// cancel is logged and repaired by the reconciler pass.
func (s *Service) Cancel(ctx context.Context, patientID, appointmentID uuid.UUID) (*ledger.Appointment, error) {
	appt, err := s.appts.Cancel(ctx, appointmentID, patientID)
	if err != nil {
		return nil, err
	}

	if err := s.slots.Release(ctx, appt.PractitionerID, appt.SlotDate, appt.SlotTime); err != nil {
		s.log.Error().
			Err(err).
			Str("appointment_id", appointmentID.String()).
			Str("slot_date", appt.SlotDate).
			Str("slot_time", appt.SlotTime).
			Msg("slot release failed after cancel, reconciler will repair")
	}

	s.recordEvent(ctx, appt.ID, EventCancelled, map[string]any{
		"slot_date": appt.SlotDate,
		"slot_time": appt.SlotTime,
	})

	return appt, nil
}

// Complete marks the visit as done. The slot stays reserved: a completed
// visit keeps its slot historically.
func (s *Service) Complete(ctx context.Context, practitionerID, appointmentID uuid.UUID) (*ledger.Appointment, error) {
	appt, err := s.appts.Complete(ctx, appointmentID, practitionerID)
	if err != nil {
		return nil, err
	}

	s.recordEvent(ctx, appt.ID, EventCompleted, nil)
	return appt, nil
}

// MarkPaid records a provider-confirmed payment. Allowed in any state;
// payment against a cancelled appointment represents a pending refund.
func (s *Service) MarkPaid(ctx context.Context, appointmentID uuid.UUID) (*ledger.Appointment, error) {
	appt, err := s.appts.MarkPaid(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	s.recordEvent(ctx, appt.ID, EventPaid, nil)
	return appt, nil
}

// SetAvailability flips the accepting-bookings flag. A false-to-true
// transition triggers the follower fan-out in the background; the fan-out
// can neither block nor fail the flip.
func (s *Service) SetAvailability(ctx context.Context, practitionerID uuid.UUID, available bool) error {
	previous, err := s.slots.SetAvailable(ctx, practitionerID, available)
	if err != nil {
		if errors.Is(err, availability.ErrPractitionerNotFound) {
			return practitioner.ErrNotFound
		}
		return err
	}

	s.recordEvent(ctx, uuid.Nil, EventAvailabilityChanged, map[string]any{
		"practitioner_id": practitionerID.String(),
		"available":       available,
	})

	if !previous && available && s.notifier != nil {
		go func() {
			fanCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
			defer cancel()

			report, err := s.notifier.NotifyBecameAvailable(fanCtx, practitionerID)
			if err != nil {
				s.log.Warn().
					Err(err).
					Str("practitioner_id", practitionerID.String()).
					Msg("follower fan-out failed")
				return
			}
			s.log.Info().
				Str("practitioner_id", practitionerID.String()).
				Int("attempted", report.Attempted).
				Int("delivered", report.Delivered).
				Int("failed", len(report.Failed)).
				Msg("follower fan-out complete")
		}()
	}

	return nil
}

// OpenSlots returns the bookable window for a practitioner with the
// already-reserved slots filtered out, one slice per day.
func (s *Service) OpenSlots(ctx context.Context, practitionerID uuid.UUID) ([][]calendar.Slot, error) {
	if _, err := s.directory.GetByID(ctx, practitionerID); err != nil {
		return nil, err
	}

	booked, err := s.slots.ReservedTimes(ctx, practitionerID)
	if err != nil {
		return nil, fmt.Errorf("load reservations: %w", err)
	}

	taken := make(map[string]map[string]bool, len(booked))
	for date, times := range booked {
		taken[date] = make(map[string]bool, len(times))
		for _, t := range times {
			taken[date][t] = true
		}
	}

	now := s.now()
	days := make([][]calendar.Slot, 0, s.policy.WindowDays)
	for _, day := range s.policy.Window(now) {
		var open []calendar.Slot
		for slot := range day {
			if !taken[slot.DateKey][slot.TimeKey] {
				open = append(open, slot)
			}
		}
		days = append(days, open)
	}
	return days, nil
}

func (s *Service) recordEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	if s.events == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn().Err(err).Str("event_type", eventType).Msg("marshal event payload failed")
		data = nil
	}

	ev := ledger.Event{
		EventType: eventType,
		Payload:   data,
		CreatedAt: time.Now(),
	}
	if appointmentID != uuid.Nil {
		id := appointmentID
		ev.AppointmentID = &id
	}

	if err := s.events.InsertEvent(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("event_type", eventType).Msg("insert event failed")
	}
}
