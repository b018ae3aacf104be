package api

import (
	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-scheduling/internal/appointment"
)

const dateLayout = "2006-01-02"

type BookAppointmentRequest struct {
	PatientID          string `json:"patient_id"`
	StaffID            string `json:"staff_id"`
	AppointmentDate    string `json:"appointment_date"` // YYYY-MM-DD
	StartTime          string `json:"start_time"`       // HH:MM
	EndTime            string `json:"end_time"`         // HH:MM
	Status             string `json:"status,omitempty"`
	ConsultationRoomID string `json:"consultation_room_id,omitempty"`
	Notes              string `json:"notes,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason,omitempty"`
}

type ScheduleRequest struct {
	StaffID   string `json:"staff_id"`
	DayOfWeek int    `json:"day_of_week"` // 0 = Sunday .. 6 = Saturday
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Available *bool  `json:"available,omitempty"` // defaults to true
}

type AppointmentResponse struct {
	ID                 uuid.UUID  `json:"id"`
	PatientID          uuid.UUID  `json:"patient_id"`
	StaffID            uuid.UUID  `json:"staff_id"`
	AppointmentDate    string     `json:"appointment_date"`
	StartTime          string     `json:"start_time"`
	EndTime            string     `json:"end_time"`
	Status             string     `json:"status"`
	ConsultationRoomID *uuid.UUID `json:"consultation_room_id,omitempty"`
	Notes              *string    `json:"notes,omitempty"`
}

type AppointmentDetailResponse struct {
	AppointmentResponse
	PatientName string  `json:"patient_name,omitempty"`
	StaffName   string  `json:"staff_name,omitempty"`
	RoomCode    *string `json:"room_code,omitempty"`
}

type ScheduleResponse struct {
	ID        uuid.UUID `json:"id"`
	StaffID   uuid.UUID `json:"staff_id"`
	DayOfWeek int       `json:"day_of_week"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Available bool      `json:"available"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:                 a.ID,
		PatientID:          a.PatientID,
		StaffID:            a.StaffID,
		AppointmentDate:    a.Date.Format(dateLayout),
		StartTime:          a.Slot.Start.String(),
		EndTime:            a.Slot.End.String(),
		Status:             string(a.Status),
		ConsultationRoomID: a.ConsultationRoomID,
		Notes:              a.Notes,
	}
}

func toAppointmentDetailResponse(d *appointment.AppointmentDetail) AppointmentDetailResponse {
	resp := AppointmentDetailResponse{
		AppointmentResponse: toAppointmentResponse(&d.Appointment),
	}
	if d.Patient != nil {
		resp.PatientName = d.Patient.Name
	}
	if d.Staff != nil {
		resp.StaffName = d.Staff.Name
	}
	if d.Room != nil {
		code := d.Room.Code
		resp.RoomCode = &code
	}
	return resp
}

func toScheduleResponse(w *appointment.ScheduleWindow) ScheduleResponse {
	return ScheduleResponse{
		ID:        w.ID,
		StaffID:   w.StaffID,
		DayOfWeek: w.DayOfWeek,
		StartTime: w.Slot.Start.String(),
		EndTime:   w.Slot.End.String(),
		Available: w.Available,
	}
}
