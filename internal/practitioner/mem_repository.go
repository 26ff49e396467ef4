package practitioner

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemRepository is an in-process Repository for tests and single-node
// development.
type MemRepository struct {
	mu            sync.Mutex
	practitioners map[uuid.UUID]*Practitioner
	patients      map[uuid.UUID]*Patient
	followers     map[uuid.UUID]map[uuid.UUID]struct{} // practitioner -> patient set
}

func NewMemRepository() *MemRepository {
	return &MemRepository{
		practitioners: make(map[uuid.UUID]*Practitioner),
		patients:      make(map[uuid.UUID]*Patient),
		followers:     make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

func (r *MemRepository) AddPractitioner(p Practitioner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.practitioners[p.ID] = &p
}

func (r *MemRepository) AddPatient(p Patient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patients[p.ID] = &p
}

func (r *MemRepository) GetByID(_ context.Context, id uuid.UUID) (*Practitioner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.practitioners[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MemRepository) List(_ context.Context) ([]Practitioner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]Practitioner, 0, len(r.practitioners))
	for _, p := range r.practitioners {
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *MemRepository) SearchByName(ctx context.Context, query string) ([]Practitioner, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	var result []Practitioner
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.Name), q) {
			result = append(result, p)
		}
	}
	return result, nil
}

func (r *MemRepository) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.practitioners), nil
}

func (r *MemRepository) GetPatientByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MemRepository) Follow(_ context.Context, patientID, practitionerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.practitioners[practitionerID]; !ok {
		return ErrNotFound
	}

	set, ok := r.followers[practitionerID]
	if !ok {
		set = make(map[uuid.UUID]struct{})
		r.followers[practitionerID] = set
	}
	if _, dup := set[patientID]; dup {
		return ErrAlreadyFollowing
	}
	set[patientID] = struct{}{}
	return nil
}

func (r *MemRepository) ListFollowers(_ context.Context, practitionerID uuid.UUID) ([]Follower, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []Follower
	for patientID := range r.followers[practitionerID] {
		f := Follower{PatientID: patientID}
		if p, ok := r.patients[patientID]; ok {
			f.Name = p.Name
			f.Email = p.Email
		}
		result = append(result, f)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}
