package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound     = errors.New("patient not found")
	ErrStaffNotFound       = errors.New("staff member not found")
	ErrRoomNotFound        = errors.New("consultation room not found")
	ErrScheduleNotFound    = errors.New("schedule window not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetStaffByID(ctx context.Context, id uuid.UUID) (*Staff, error)
	GetRoomByID(ctx context.Context, id uuid.UUID) (*ConsultationRoom, error)

	// Weekly availability windows
	GetScheduleByID(ctx context.Context, id uuid.UUID) (*ScheduleWindow, error)
	ListSchedulesByStaffDay(ctx context.Context, staffID uuid.UUID, dayOfWeek int) ([]ScheduleWindow, error)
	ListSchedulesByStaff(ctx context.Context, staffID uuid.UUID) ([]ScheduleWindow, error)
	CreateSchedule(ctx context.Context, w ScheduleWindow) (*ScheduleWindow, error)
	UpdateSchedule(ctx context.Context, w ScheduleWindow) (*ScheduleWindow, error)
	DeleteSchedule(ctx context.Context, id uuid.UUID) error

	// Appointments
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error)
	ListAppointmentsForStaffDate(ctx context.Context, staffID uuid.UUID, date time.Time) ([]Appointment, error)
	ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]AppointmentDetail, error)
	CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error)
	UpdateAppointment(ctx context.Context, a Appointment) (*Appointment, error)
	// UpdateAppointmentStatus is a compare-and-set on status; notes, when
	// non-nil, replaces the stored notes in the same statement.
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status, notes *string) (*Appointment, error)
	DeleteAppointment(ctx context.Context, id uuid.UUID) error

	// No-show worker
	FindOverduePending(ctx context.Context, now time.Time) ([]Appointment, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
