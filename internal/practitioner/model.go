package practitioner

import (
	"time"

	"github.com/google/uuid"
)

// Practitioner is the marketplace-facing record. Identity and credentials
// live with the external identity collaborator; this core only reads the
// profile and mutates the available flag. Fees are minor units.
type Practitioner struct {
	ID         uuid.UUID
	Name       string
	Email      string
	Speciality string
	Degree     string
	Experience string
	About      string
	ImageURL   string
	Address    string
	Fees       int64
	Available  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Patient is the minimal read model this core needs: enough to snapshot
// display data onto an appointment and to address a notification.
type Patient struct {
	ID        uuid.UUID
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Follower is one entry of a practitioner's follower set, hydrated with
// the contact details the notifier needs.
type Follower struct {
	PatientID uuid.UUID
	Name      string
	Email     string
}
