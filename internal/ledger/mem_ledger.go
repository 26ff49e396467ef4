package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemLedger is an in-process Ledger for tests and single-node development.
// Appointments are kept in creation order.
type MemLedger struct {
	mu     sync.Mutex
	order  []uuid.UUID
	byID   map[uuid.UUID]*Appointment
	events []Event

	// CreateErr, when set, makes the next Create fail with that error.
	// Tests use it to exercise the reserve-then-rollback path.
	CreateErr error
}

func NewMemLedger() *MemLedger {
	return &MemLedger{byID: make(map[uuid.UUID]*Appointment)}
}

func (l *MemLedger) Create(_ context.Context, appt *Appointment) (uuid.UUID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.CreateErr != nil {
		err := l.CreateErr
		l.CreateErr = nil
		return uuid.Nil, err
	}

	for _, id := range l.order {
		existing := l.byID[id]
		if !existing.Cancelled &&
			existing.PractitionerID == appt.PractitionerID &&
			existing.SlotDate == appt.SlotDate &&
			existing.SlotTime == appt.SlotTime {
			return uuid.Nil, ErrDuplicateSlot
		}
	}

	now := time.Now()
	appt.ID = uuid.New()
	appt.CreatedAt = now
	appt.UpdatedAt = now

	stored := *appt
	l.byID[stored.ID] = &stored
	l.order = append(l.order, stored.ID)
	return stored.ID, nil
}

func (l *MemLedger) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.get(id)
}

func (l *MemLedger) get(id uuid.UUID) (*Appointment, error) {
	appt, ok := l.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *appt
	return &cp, nil
}

func (l *MemLedger) Cancel(_ context.Context, id, requestingPatientID uuid.UUID) (*Appointment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	appt, ok := l.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if appt.PatientID != requestingPatientID {
		return nil, ErrUnauthorized
	}
	if appt.Terminal() {
		return nil, ErrAlreadyTerminal
	}

	appt.Cancelled = true
	appt.UpdatedAt = time.Now()
	cp := *appt
	return &cp, nil
}

func (l *MemLedger) Complete(_ context.Context, id, requestingPractitionerID uuid.UUID) (*Appointment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	appt, ok := l.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if appt.PractitionerID != requestingPractitionerID {
		return nil, ErrUnauthorized
	}
	if appt.Terminal() {
		return nil, ErrAlreadyTerminal
	}

	appt.IsCompleted = true
	appt.UpdatedAt = time.Now()
	cp := *appt
	return &cp, nil
}

func (l *MemLedger) MarkPaid(_ context.Context, id uuid.UUID) (*Appointment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	appt, ok := l.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	appt.Payment = true
	appt.UpdatedAt = time.Now()
	cp := *appt
	return &cp, nil
}

func (l *MemLedger) ListByPatient(_ context.Context, patientID uuid.UUID) ([]Appointment, error) {
	return l.filter(func(a *Appointment) bool { return a.PatientID == patientID }), nil
}

func (l *MemLedger) ListByPractitioner(_ context.Context, practitionerID uuid.UUID) ([]Appointment, error) {
	return l.filter(func(a *Appointment) bool { return a.PractitionerID == practitionerID }), nil
}

func (l *MemLedger) All(_ context.Context) ([]Appointment, error) {
	return l.filter(func(*Appointment) bool { return true }), nil
}

func (l *MemLedger) Latest(_ context.Context, n int) ([]Appointment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var result []Appointment
	for i := len(l.order) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, *l.byID[l.order[i]])
	}
	return result, nil
}

func (l *MemLedger) filter(keep func(*Appointment) bool) []Appointment {
	l.mu.Lock()
	defer l.mu.Unlock()

	var result []Appointment
	for _, id := range l.order {
		if appt := l.byID[id]; keep(appt) {
			result = append(result, *appt)
		}
	}
	return result
}
