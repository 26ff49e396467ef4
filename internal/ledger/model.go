package ledger

import (
	"time"

	"github.com/google/uuid"
)

// PatientSnapshot is the patient display data captured when the
// appointment is booked, so later profile edits do not rewrite history.
type PatientSnapshot struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// PractitionerSnapshot is the practitioner display data captured at
// booking time, including the fee that was charged.
type PractitionerSnapshot struct {
	Name       string `json:"name"`
	Speciality string `json:"speciality,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
	Address    string `json:"address,omitempty"`
}

// Appointment is one booked visit. PatientID, PractitionerID and the slot
// identity are immutable after creation; the three booleans are one-way
// flips. Records are never deleted.
type Appointment struct {
	ID             uuid.UUID
	PatientID      uuid.UUID
	PractitionerID uuid.UUID
	SlotDate       string // canonical date key, day_month_year
	SlotTime       string // canonical time key, h:mm AM/PM
	Amount         int64  // fee snapshot in minor units
	Cancelled      bool
	IsCompleted    bool
	Payment        bool
	Patient        PatientSnapshot
	Practitioner   PractitionerSnapshot
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Terminal reports whether the appointment reached a terminal state.
// Completed and cancelled are mutually exclusive; either one blocks any
// further transition.
func (a *Appointment) Terminal() bool {
	return a.Cancelled || a.IsCompleted
}
