package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-scheduling/internal/appointment"
	"github.com/clinicdesk/clinic-scheduling/internal/interval"
	redisclient "github.com/clinicdesk/clinic-scheduling/internal/redis"
)

func bookAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		booking, ok := parseBookingRequest(w, req)
		if !ok {
			return
		}

		appt, err := svc.BookAppointment(r.Context(), booking)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func updateAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		booking, ok := parseBookingRequest(w, req)
		if !ok {
			return
		}

		appt, err := svc.UpdateAppointment(r.Context(), id, booking)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func getAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		detail, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentDetailResponse(detail))
	}
}

func listAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		if staffIDStr := q.Get("staff_id"); staffIDStr != "" {
			staffID, err := uuid.Parse(staffIDStr)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_staff_id", "staff_id must be a valid UUID")
				return
			}
			date, err := time.Parse(dateLayout, q.Get("date"))
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
				return
			}

			appts, err := svc.ListAppointmentsForStaffDate(r.Context(), staffID, date)
			if err != nil {
				handleDomainError(w, err)
				return
			}

			resp := make([]AppointmentResponse, 0, len(appts))
			for i := range appts {
				resp = append(resp, toAppointmentResponse(&appts[i]))
			}
			writeJSON(w, http.StatusOK, resp)
			return
		}

		patientIDStr := q.Get("patient_id")
		if patientIDStr == "" {
			writeError(w, http.StatusBadRequest, "missing_filter", "staff_id+date or patient_id is required")
			return
		}
		patientID, err := uuid.Parse(patientIDStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}

		limit := parseIntParam(q.Get("limit"), 20)
		offset := parseIntParam(q.Get("offset"), 0)

		details, err := svc.ListAppointmentsByPatient(r.Context(), patientID, limit, offset)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]AppointmentDetailResponse, 0, len(details))
		for i := range details {
			resp = append(resp, toAppointmentDetailResponse(&details[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func updateStatusHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req UpdateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.ChangeStatus(r.Context(), id, appointment.Status(req.Status))
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func cancelAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req CancelAppointmentRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
				return
			}
		}

		appt, err := svc.CancelAppointment(r.Context(), id, req.Reason)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func deleteAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		if err := svc.DeleteAppointment(r.Context(), id); err != nil {
			handleDomainError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func createScheduleHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		sr, ok := parseScheduleRequest(w, req)
		if !ok {
			return
		}

		window, err := svc.CreateSchedule(r.Context(), sr)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toScheduleResponse(window))
	}
}

func updateScheduleHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req ScheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		sr, ok := parseScheduleRequest(w, req)
		if !ok {
			return
		}

		window, err := svc.UpdateSchedule(r.Context(), id, sr)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toScheduleResponse(window))
	}
}

func listSchedulesHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		staffID, err := uuid.Parse(r.URL.Query().Get("staff_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_staff_id", "staff_id must be a valid UUID")
			return
		}

		windows, err := svc.ListSchedulesByStaff(r.Context(), staffID)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]ScheduleResponse, 0, len(windows))
		for i := range windows {
			resp = append(resp, toScheduleResponse(&windows[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func deleteScheduleHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		if err := svc.DeleteSchedule(r.Context(), id); err != nil {
			handleDomainError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// Request parsing helpers

func parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func parseIntParam(s string, def int) int {
	if s == "" {
		return def
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return def
		}
		n = n*10 + int(c-'0')
	}
	return n
}

func parseBookingRequest(w http.ResponseWriter, req BookAppointmentRequest) (appointment.BookingRequest, bool) {
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
		return appointment.BookingRequest{}, false
	}

	staffID, err := uuid.Parse(req.StaffID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_staff_id", "staff_id must be a valid UUID")
		return appointment.BookingRequest{}, false
	}

	date, err := time.Parse(dateLayout, req.AppointmentDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "appointment_date must be YYYY-MM-DD")
		return appointment.BookingRequest{}, false
	}

	booking := appointment.BookingRequest{
		PatientID: patientID,
		StaffID:   staffID,
		Date:      date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Status:    req.Status,
	}

	if req.ConsultationRoomID != "" {
		roomID, err := uuid.Parse(req.ConsultationRoomID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_room_id", "consultation_room_id must be a valid UUID")
			return appointment.BookingRequest{}, false
		}
		booking.ConsultationRoomID = &roomID
	}

	if req.Notes != "" {
		notes := req.Notes
		booking.Notes = &notes
	}

	return booking, true
}

func parseScheduleRequest(w http.ResponseWriter, req ScheduleRequest) (appointment.ScheduleRequest, bool) {
	staffID, err := uuid.Parse(req.StaffID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_staff_id", "staff_id must be a valid UUID")
		return appointment.ScheduleRequest{}, false
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}

	return appointment.ScheduleRequest{
		StaffID:   staffID,
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Available: available,
	}, true
}

// handleDomainError maps domain rejections to HTTP statuses. Every branch is
// an expected outcome surfaced verbatim to the caller; nothing here is
// retried server-side.
func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, interval.ErrInvalidTimeFormat):
		writeError(w, http.StatusBadRequest, "invalid_time_format", err.Error())
	case errors.Is(err, interval.ErrInvalidInterval):
		writeError(w, http.StatusBadRequest, "invalid_interval", err.Error())
	case errors.Is(err, appointment.ErrUnknownStatus):
		writeError(w, http.StatusBadRequest, "unknown_status", err.Error())
	case errors.Is(err, appointment.ErrInvalidDayOfWeek):
		writeError(w, http.StatusBadRequest, "invalid_day_of_week", err.Error())
	case errors.Is(err, appointment.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, appointment.ErrStaffNotFound):
		writeError(w, http.StatusNotFound, "staff_not_found", err.Error())
	case errors.Is(err, appointment.ErrRoomNotFound):
		writeError(w, http.StatusNotFound, "room_not_found", err.Error())
	case errors.Is(err, appointment.ErrScheduleNotFound):
		writeError(w, http.StatusNotFound, "schedule_not_found", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, appointment.ErrPatientInactive):
		writeError(w, http.StatusConflict, "patient_inactive", err.Error())
	case errors.Is(err, appointment.ErrStaffInactive):
		writeError(w, http.StatusConflict, "staff_inactive", err.Error())
	case errors.Is(err, appointment.ErrRoomInactive):
		writeError(w, http.StatusConflict, "room_inactive", err.Error())
	case errors.Is(err, appointment.ErrStaffUnavailable):
		writeError(w, http.StatusConflict, "staff_unavailable", err.Error())
	case errors.Is(err, appointment.ErrAppointmentConflict):
		writeError(w, http.StatusConflict, "appointment_conflict", err.Error())
	case errors.Is(err, appointment.ErrWindowOverlap):
		writeError(w, http.StatusConflict, "schedule_overlap", err.Error())
	case errors.Is(err, appointment.ErrImmutableAppointment):
		writeError(w, http.StatusConflict, "appointment_immutable", err.Error())
	case errors.Is(err, appointment.ErrAlreadyCancelled):
		writeError(w, http.StatusConflict, "already_cancelled", err.Error())
	case errors.Is(err, appointment.ErrTerminalState):
		writeError(w, http.StatusConflict, "terminal_status", err.Error())
	case errors.Is(err, appointment.ErrBookingInProgress),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "booking_in_progress", "another booking for this staff and date is in progress, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
