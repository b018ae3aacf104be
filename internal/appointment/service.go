package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-scheduling/internal/interval"
	redisclient "github.com/clinicdesk/clinic-scheduling/internal/redis"
)

const (
	EventAppointmentBooked        = "APPOINTMENT_BOOKED"
	EventAppointmentUpdated       = "APPOINTMENT_UPDATED"
	EventAppointmentStatusChanged = "APPOINTMENT_STATUS_CHANGED"
	EventAppointmentCancelled     = "APPOINTMENT_CANCELLED"
	EventAppointmentDeleted       = "APPOINTMENT_DELETED"
	EventAppointmentNoShow        = "APPOINTMENT_MARKED_NO_SHOW"
)

var (
	ErrPatientInactive   = errors.New("patient is inactive")
	ErrStaffInactive     = errors.New("staff member is inactive")
	ErrRoomInactive      = errors.New("consultation room is inactive")
	ErrBookingInProgress = errors.New("another booking for this staff and date is in progress, please retry")
)

// BookingRequest carries the raw inputs for creating or updating an
// appointment. Times arrive as "HH:MM" strings and are parsed here.
type BookingRequest struct {
	PatientID          uuid.UUID
	StaffID            uuid.UUID
	Date               time.Time
	StartTime          string
	EndTime            string
	Status             string // optional, defaults to pending
	ConsultationRoomID *uuid.UUID
	Notes              *string
}

// ScheduleRequest carries the raw inputs for a weekly availability window.
type ScheduleRequest struct {
	StaffID   uuid.UUID
	DayOfWeek int
	StartTime string
	EndTime   string
	Available bool
}

type Service struct {
	repo   Repository
	locker redisclient.Locker
}

func NewService(repo Repository, locker redisclient.Locker) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
	}
}

// BookAppointment validates and creates a new appointment. The conflict
// check and the insert run inside a per-staff-day lock so concurrent
// requests for the same staff and date cannot both pass validation.
func (s *Service) BookAppointment(ctx context.Context, req BookingRequest) (*Appointment, error) {
	slot, err := interval.Parse(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	status := StatusPending
	if req.Status != "" {
		status, err = ParseStatus(req.Status)
		if err != nil {
			return nil, err
		}
	}

	if err := s.checkReferences(ctx, req.PatientID, req.StaffID, req.ConsultationRoomID); err != nil {
		return nil, err
	}

	date := NormalizeDate(req.Date)

	var created *Appointment

	err = s.locker.WithStaffDayLock(ctx, req.StaffID, date, func(lockCtx context.Context) error {
		if err := s.validateCandidate(lockCtx, Candidate{StaffID: req.StaffID, Date: date, Slot: slot}, uuid.Nil); err != nil {
			return err
		}

		appt, err := s.repo.CreateAppointment(lockCtx, Appointment{
			PatientID:          req.PatientID,
			StaffID:            req.StaffID,
			Date:               date,
			Slot:               slot,
			Status:             status,
			ConsultationRoomID: req.ConsultationRoomID,
			Notes:              req.Notes,
		})
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		created = appt

		s.logEvent(lockCtx, appt.ID, EventAppointmentBooked, map[string]any{
			"patient_id": req.PatientID.String(),
			"staff_id":   req.StaffID.String(),
			"date":       date.Format("2006-01-02"),
			"slot":       slot.String(),
		})

		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrBookingInProgress
		}
		return nil, err
	}

	return created, nil
}

// UpdateAppointment re-validates and applies an edit to an existing
// appointment. Completed and cancelled appointments reject the edit before
// any scheduling check runs; the appointment's own slot is excluded from the
// conflict scan so an unchanged time still validates.
func (s *Service) UpdateAppointment(ctx context.Context, id uuid.UUID, req BookingRequest) (*Appointment, error) {
	current, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanEditTimes(current.Status) {
		return nil, ErrImmutableAppointment
	}

	slot, err := interval.Parse(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	status := current.Status
	if req.Status != "" {
		status, err = ParseStatus(req.Status)
		if err != nil {
			return nil, err
		}
	}

	if err := s.checkReferences(ctx, req.PatientID, req.StaffID, req.ConsultationRoomID); err != nil {
		return nil, err
	}

	date := NormalizeDate(req.Date)

	var updated *Appointment

	err = s.locker.WithStaffDayLock(ctx, req.StaffID, date, func(lockCtx context.Context) error {
		if err := s.validateCandidate(lockCtx, Candidate{StaffID: req.StaffID, Date: date, Slot: slot}, id); err != nil {
			return err
		}

		appt, err := s.repo.UpdateAppointment(lockCtx, Appointment{
			ID:                 id,
			PatientID:          req.PatientID,
			StaffID:            req.StaffID,
			Date:               date,
			Slot:               slot,
			Status:             status,
			ConsultationRoomID: req.ConsultationRoomID,
			Notes:              req.Notes,
		})
		if err != nil {
			return fmt.Errorf("update appointment: %w", err)
		}

		updated = appt

		s.logEvent(lockCtx, appt.ID, EventAppointmentUpdated, map[string]any{
			"date": date.Format("2006-01-02"),
			"slot": slot.String(),
		})

		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrBookingInProgress
		}
		return nil, err
	}

	return updated, nil
}

// validateCandidate reads fresh snapshots and runs the pure booking
// validator. Callers that persist must invoke it inside the staff-day lock.
func (s *Service) validateCandidate(ctx context.Context, c Candidate, excludeID uuid.UUID) error {
	windows, err := s.repo.ListSchedulesByStaffDay(ctx, c.StaffID, int(c.Date.Weekday()))
	if err != nil {
		return fmt.Errorf("load schedule windows: %w", err)
	}

	existing, err := s.repo.ListAppointmentsForStaffDate(ctx, c.StaffID, c.Date)
	if err != nil {
		return fmt.Errorf("load existing appointments: %w", err)
	}

	return ValidateBooking(c, windows, existing, excludeID)
}

// ChangeStatus applies an explicit lifecycle transition.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, target Status) (*Appointment, error) {
	current, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := Transition(current.Status, target)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, current.Status, next, nil)
	if err != nil {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventAppointmentStatusChanged, map[string]any{
		"from": string(current.Status),
		"to":   string(next),
	})

	return updated, nil
}

// CancelAppointment cancels a non-terminal appointment. A non-empty reason
// is appended to the appointment's notes with the cancellation marker.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID, reason string) (*Appointment, error) {
	current, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := Transition(current.Status, StatusCancelled); err != nil {
		return nil, err
	}

	notes := AppendCancelReason(current.Notes, reason)

	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, current.Status, StatusCancelled, notes)
	if err != nil {
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventAppointmentCancelled, map[string]any{
		"reason": reason,
	})

	return updated, nil
}

// DeleteAppointment hard-deletes regardless of status. Appointments have no
// downstream dependents in this domain.
func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteAppointment(ctx, id); err != nil {
		return err
	}

	s.logEvent(ctx, appt.ID, EventAppointmentDeleted, map[string]any{
		"status": string(appt.Status),
	})

	return nil
}

// GetAppointment retrieves a fully hydrated appointment by ID.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	detail, err := s.repo.GetAppointmentDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// ListAppointmentsByPatient retrieves appointments for a specific patient.
func (s *Service) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]AppointmentDetail, error) {
	if limit <= 0 {
		limit = 20 // default
	}
	if limit > 100 {
		limit = 100 // max
	}
	if offset < 0 {
		offset = 0
	}

	appointments, err := s.repo.ListAppointmentsByPatient(ctx, patientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list appointments by patient: %w", err)
	}
	return appointments, nil
}

// ListAppointmentsForStaffDate retrieves one staff member's book for a date.
func (s *Service) ListAppointmentsForStaffDate(ctx context.Context, staffID uuid.UUID, date time.Time) ([]Appointment, error) {
	appointments, err := s.repo.ListAppointmentsForStaffDate(ctx, staffID, NormalizeDate(date))
	if err != nil {
		return nil, fmt.Errorf("list appointments for staff date: %w", err)
	}
	return appointments, nil
}

// MarkOverduePendingNoShow is intended to be called by the worker
// periodically: pending appointments whose date and end time have passed
// without confirmation are marked no_show.
func (s *Service) MarkOverduePendingNoShow(ctx context.Context) error {
	overdue, err := s.repo.FindOverduePending(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("find overdue pending appointments: %w", err)
	}

	for _, appt := range overdue {
		_, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, StatusPending, StatusNoShow, nil)
		if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
			log.Printf("failed to mark appointment %s as no_show: %v", appt.ID, err)
			continue
		}
		s.logEvent(ctx, appt.ID, EventAppointmentNoShow, map[string]any{
			"reason": "worker",
		})
	}

	return nil
}

// Schedule windows

// CreateSchedule adds a weekly availability window after checking it does
// not overlap the staff member's existing windows for that day.
func (s *Service) CreateSchedule(ctx context.Context, req ScheduleRequest) (*ScheduleWindow, error) {
	return s.saveSchedule(ctx, uuid.Nil, req)
}

// UpdateSchedule edits an existing window, excluding it from its own
// overlap check.
func (s *Service) UpdateSchedule(ctx context.Context, id uuid.UUID, req ScheduleRequest) (*ScheduleWindow, error) {
	if _, err := s.repo.GetScheduleByID(ctx, id); err != nil {
		return nil, err
	}
	return s.saveSchedule(ctx, id, req)
}

func (s *Service) saveSchedule(ctx context.Context, id uuid.UUID, req ScheduleRequest) (*ScheduleWindow, error) {
	slot, err := interval.Parse(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	staff, err := s.repo.GetStaffByID(ctx, req.StaffID)
	if err != nil {
		return nil, err
	}
	if !staff.Active {
		return nil, ErrStaffInactive
	}

	candidate := ScheduleWindow{
		ID:        id,
		StaffID:   req.StaffID,
		DayOfWeek: req.DayOfWeek,
		Slot:      slot,
		Available: req.Available,
	}

	existing, err := s.repo.ListSchedulesByStaffDay(ctx, req.StaffID, req.DayOfWeek)
	if err != nil {
		return nil, fmt.Errorf("load schedule windows: %w", err)
	}

	if err := ValidateWindow(candidate, existing, id); err != nil {
		return nil, err
	}

	if id == uuid.Nil {
		return s.repo.CreateSchedule(ctx, candidate)
	}
	return s.repo.UpdateSchedule(ctx, candidate)
}

func (s *Service) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteSchedule(ctx, id)
}

func (s *Service) ListSchedulesByStaff(ctx context.Context, staffID uuid.UUID) ([]ScheduleWindow, error) {
	windows, err := s.repo.ListSchedulesByStaff(ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("list schedules by staff: %w", err)
	}
	return windows, nil
}

// checkReferences verifies the patient, staff and optional room exist and
// are active before any scheduling check runs.
func (s *Service) checkReferences(ctx context.Context, patientID, staffID uuid.UUID, roomID *uuid.UUID) error {
	patient, err := s.repo.GetPatientByID(ctx, patientID)
	if err != nil {
		return err
	}
	if !patient.Active {
		return ErrPatientInactive
	}

	staff, err := s.repo.GetStaffByID(ctx, staffID)
	if err != nil {
		return err
	}
	if !staff.Active {
		return ErrStaffInactive
	}

	if roomID != nil {
		room, err := s.repo.GetRoomByID(ctx, *roomID)
		if err != nil {
			return err
		}
		if !room.Active {
			return ErrRoomInactive
		}
	}

	return nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal event payload for %s: %v", eventType, err)
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		log.Printf("failed to insert event log %s for appointment %s: %v", eventType, appointmentID, err)
	}
}
