package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/careslot/careslot/internal/calendar"
	"github.com/careslot/careslot/internal/ledger"
	"github.com/careslot/careslot/internal/practitioner"
)

type AdminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AdminLoginResponse struct {
	Token string `json:"token"`
}

type BookAppointmentRequest struct {
	PractitionerID string `json:"practitioner_id"`
	SlotDate       string `json:"slot_date"`
	SlotTime       string `json:"slot_time"`
}

type SetAvailabilityRequest struct {
	Available bool `json:"available"`
}

type AppointmentResponse struct {
	ID             uuid.UUID `json:"id"`
	PatientID      uuid.UUID `json:"patient_id"`
	PractitionerID uuid.UUID `json:"practitioner_id"`
	SlotDate       string    `json:"slot_date"`
	SlotTime       string    `json:"slot_time"`
	Amount         int64     `json:"amount"`
	Cancelled      bool      `json:"cancelled"`
	IsCompleted    bool      `json:"is_completed"`
	Payment        bool      `json:"payment"`
	PatientName    string    `json:"patient_name,omitempty"`
	Practitioner   string    `json:"practitioner_name,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func toAppointmentResponse(a *ledger.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:             a.ID,
		PatientID:      a.PatientID,
		PractitionerID: a.PractitionerID,
		SlotDate:       a.SlotDate,
		SlotTime:       a.SlotTime,
		Amount:         a.Amount,
		Cancelled:      a.Cancelled,
		IsCompleted:    a.IsCompleted,
		Payment:        a.Payment,
		PatientName:    a.Patient.Name,
		Practitioner:   a.Practitioner.Name,
		CreatedAt:      a.CreatedAt,
	}
}

func toAppointmentResponses(appts []ledger.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(appts))
	for i := range appts {
		out = append(out, toAppointmentResponse(&appts[i]))
	}
	return out
}

// PractitionerResponse is the public directory entry. Contact details are
// omitted unless the caller is the admin.
type PractitionerResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Speciality string    `json:"speciality"`
	Degree     string    `json:"degree,omitempty"`
	Experience string    `json:"experience,omitempty"`
	About      string    `json:"about,omitempty"`
	ImageURL   string    `json:"image_url,omitempty"`
	Address    string    `json:"address,omitempty"`
	Fees       int64     `json:"fees"`
	Available  bool      `json:"available"`
}

func toPractitionerResponse(p *practitioner.Practitioner, includeContact bool) PractitionerResponse {
	resp := PractitionerResponse{
		ID:         p.ID,
		Name:       p.Name,
		Speciality: p.Speciality,
		Degree:     p.Degree,
		Experience: p.Experience,
		About:      p.About,
		ImageURL:   p.ImageURL,
		Address:    p.Address,
		Fees:       p.Fees,
		Available:  p.Available,
	}
	if includeContact {
		resp.Email = p.Email
	}
	return resp
}

type SlotResponse struct {
	DateKey string `json:"slot_date"`
	TimeKey string `json:"slot_time"`
}

type DaySlotsResponse struct {
	Slots []SlotResponse `json:"slots"`
}

func toDaySlots(days [][]calendar.Slot) []DaySlotsResponse {
	out := make([]DaySlotsResponse, 0, len(days))
	for _, day := range days {
		resp := DaySlotsResponse{Slots: make([]SlotResponse, 0, len(day))}
		for _, s := range day {
			resp.Slots = append(resp.Slots, SlotResponse{DateKey: s.DateKey, TimeKey: s.TimeKey})
		}
		out = append(out, resp)
	}
	return out
}

type AdminDashboardResponse struct {
	Practitioners int                   `json:"practitioners"`
	Appointments  int                   `json:"appointments"`
	Patients      int                   `json:"patients"`
	Latest        []AppointmentResponse `json:"latest_appointments"`
}

type PractitionerDashboardResponse struct {
	Earnings     int64                 `json:"earnings"`
	Appointments int                   `json:"appointments"`
	Patients     int                   `json:"patients"`
	Latest       []AppointmentResponse `json:"latest_appointments"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
