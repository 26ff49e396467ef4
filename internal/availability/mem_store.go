package availability

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MemStore is an in-process Store for tests and single-node development.
// Each practitioner gets its own entry guarded by the store mutex; the
// critical sections are short map operations, so one lock is enough to
// serialize reserve/release without starving readers.
type MemStore struct {
	mu    sync.Mutex
	byPra map[uuid.UUID]*praState
}

type praState struct {
	available bool
	booked    map[string]map[string]struct{} // dateKey -> set of timeKeys
}

func NewMemStore() *MemStore {
	return &MemStore{byPra: make(map[uuid.UUID]*praState)}
}

// AddPractitioner registers a practitioner with the given initial flag.
// Unknown practitioners fail SetAvailable, mirroring the Pg behaviour.
func (s *MemStore) AddPractitioner(id uuid.UUID, available bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state(id).available = available
}

func (s *MemStore) state(id uuid.UUID) *praState {
	st, ok := s.byPra[id]
	if !ok {
		st = &praState{booked: make(map[string]map[string]struct{})}
		s.byPra[id] = st
	}
	return st
}

func (s *MemStore) IsReserved(_ context.Context, practitionerID uuid.UUID, dateKey, timeKey string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.byPra[practitionerID]
	if !ok {
		return false, nil
	}
	_, taken := st.booked[dateKey][timeKey]
	return taken, nil
}

func (s *MemStore) Reserve(_ context.Context, practitionerID uuid.UUID, dateKey, timeKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(practitionerID)
	times, ok := st.booked[dateKey]
	if !ok {
		times = make(map[string]struct{})
		st.booked[dateKey] = times
	}
	if _, taken := times[timeKey]; taken {
		return ErrAlreadyReserved
	}
	times[timeKey] = struct{}{}
	return nil
}

func (s *MemStore) Release(_ context.Context, practitionerID uuid.UUID, dateKey, timeKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.byPra[practitionerID]
	if !ok {
		return nil
	}
	delete(st.booked[dateKey], timeKey)
	return nil
}

func (s *MemStore) ReservedTimes(_ context.Context, practitionerID uuid.UUID) (map[string][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	booked := make(map[string][]string)
	st, ok := s.byPra[practitionerID]
	if !ok {
		return booked, nil
	}
	for date, times := range st.booked {
		for t := range times {
			booked[date] = append(booked[date], t)
		}
		slices.Sort(booked[date])
	}
	return booked, nil
}

func (s *MemStore) IsAvailable(_ context.Context, practitionerID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.byPra[practitionerID]
	if !ok {
		return false, ErrPractitionerNotFound
	}
	return st.available, nil
}

func (s *MemStore) SetAvailable(_ context.Context, practitionerID uuid.UUID, available bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.byPra[practitionerID]
	if !ok {
		return false, ErrPractitionerNotFound
	}
	previous := st.available
	st.available = available
	return previous, nil
}
