package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/careslot/careslot/internal/auth"
	"github.com/careslot/careslot/internal/booking"
	"github.com/careslot/careslot/internal/dashboard"
	"github.com/careslot/careslot/internal/ledger"
	"github.com/careslot/careslot/internal/notify"
	"github.com/careslot/careslot/internal/practitioner"
)

const adminTokenTTL = 24 * time.Hour

func adminLoginHandler(verifier auth.AdminCredentialVerifier, authn auth.TokenAuthenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminLoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "missing_credentials", "email and password are required")
			return
		}

		if !verifier.Verify(req.Email, req.Password) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "admin credentials are incorrect")
			return
		}

		token, err := authn.Issue(auth.Claims{Role: auth.RoleAdmin, SubjectID: uuid.Nil}, adminTokenTTL)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, AdminLoginResponse{Token: token})
	}
}

func listPractitionersHandler(repo practitioner.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			pras []practitioner.Practitioner
			err  error
		)
		if q := r.URL.Query().Get("q"); q != "" {
			pras, err = repo.SearchByName(r.Context(), q)
		} else {
			pras, err = repo.List(r.Context())
		}
		if err != nil {
			writeServiceError(w, err)
			return
		}

		claims, _ := GetClaims(r.Context())
		includeContact := claims.Role == auth.RoleAdmin

		out := make([]PractitionerResponse, 0, len(pras))
		for i := range pras {
			out = append(out, toPractitionerResponse(&pras[i], includeContact))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func practitionerSlotsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_practitioner_id", "id must be a valid UUID")
			return
		}

		days, err := svc.OpenSlots(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toDaySlots(days))
	}
}

func bookAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireRole(w, r, auth.RolePatient)
		if !ok {
			return
		}

		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		practitionerID, err := uuid.Parse(req.PractitionerID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_practitioner_id", "practitioner_id must be a valid UUID")
			return
		}
		if req.SlotDate == "" || req.SlotTime == "" {
			writeError(w, http.StatusBadRequest, "missing_slot", "slot_date and slot_time are required")
			return
		}

		appt, err := svc.Book(r.Context(), claims.SubjectID, practitionerID, req.SlotDate, req.SlotTime)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func listAppointmentsHandler(appts ledger.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireRole(w, r, auth.RolePatient, auth.RolePractitioner, auth.RoleAdmin)
		if !ok {
			return
		}

		var (
			list []ledger.Appointment
			err  error
		)
		switch claims.Role {
		case auth.RolePatient:
			list, err = appts.ListByPatient(r.Context(), claims.SubjectID)
		case auth.RolePractitioner:
			list, err = appts.ListByPractitioner(r.Context(), claims.SubjectID)
		default:
			list, err = appts.All(r.Context())
		}
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponses(list))
	}
}

func cancelAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireRole(w, r, auth.RolePatient)
		if !ok {
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.Cancel(r.Context(), claims.SubjectID, id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func completeAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireRole(w, r, auth.RolePractitioner)
		if !ok {
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.Complete(r.Context(), claims.SubjectID, id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

// payAppointmentHandler is called by the payment-confirmation flow once
// the provider reports success. The provider's word is trusted as-is.
func payAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireRole(w, r, auth.RolePatient, auth.RoleAdmin); !ok {
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.MarkPaid(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func setAvailabilityHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireRole(w, r, auth.RolePractitioner, auth.RoleAdmin)
		if !ok {
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_practitioner_id", "id must be a valid UUID")
			return
		}

		// Practitioners may only flip their own flag; admins may flip any.
		if claims.Role == auth.RolePractitioner && claims.SubjectID != id {
			writeError(w, http.StatusForbidden, "not_owner", "practitioners can only change their own availability")
			return
		}

		var req SetAvailabilityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if err := svc.SetAvailability(r.Context(), id, req.Available); err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"available": req.Available})
	}
}

func followPractitionerHandler(notifier *notify.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireRole(w, r, auth.RolePatient)
		if !ok {
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_practitioner_id", "id must be a valid UUID")
			return
		}

		if err := notifier.Follow(r.Context(), claims.SubjectID, id); err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "following"})
	}
}

func adminDashboardHandler(agg *dashboard.Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireRole(w, r, auth.RoleAdmin); !ok {
			return
		}

		stats, err := agg.AdminStats(r.Context(), dashboard.DefaultLatest)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, AdminDashboardResponse{
			Practitioners: stats.Practitioners,
			Appointments:  stats.Appointments,
			Patients:      stats.Patients,
			Latest:        toAppointmentResponses(stats.Latest),
		})
	}
}

func practitionerDashboardHandler(agg *dashboard.Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireRole(w, r, auth.RolePractitioner)
		if !ok {
			return
		}

		stats, err := agg.PractitionerStats(r.Context(), claims.SubjectID, dashboard.DefaultLatest)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, PractitionerDashboardResponse{
			Earnings:     stats.Earnings,
			Appointments: stats.Appointments,
			Patients:     stats.Patients,
			Latest:       toAppointmentResponses(stats.Latest),
		})
	}
}
