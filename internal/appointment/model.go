package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-scheduling/internal/interval"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

type Patient struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Staff struct {
	ID        uuid.UUID
	Name      string
	Specialty *string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ConsultationRoom struct {
	ID        uuid.UUID
	Code      string
	Name      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ScheduleWindow is one weekly recurring availability row for a staff member.
// A staff member may have several windows per day (non-contiguous shifts).
type ScheduleWindow struct {
	ID        uuid.UUID
	StaffID   uuid.UUID
	DayOfWeek int // 0 = Sunday .. 6 = Saturday
	Slot      interval.Interval
	Available bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Appointment is one dated booking. Date is a calendar date (midnight UTC,
// no time component); the time of day lives in Slot.
type Appointment struct {
	ID                 uuid.UUID
	PatientID          uuid.UUID
	StaffID            uuid.UUID
	Date               time.Time
	Slot               interval.Interval
	Status             Status
	ConsultationRoomID *uuid.UUID
	Notes              *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type AppointmentDetail struct {
	Appointment
	Patient *Patient
	Staff   *Staff
	Room    *ConsultationRoom
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

// NormalizeDate strips any time component, keeping the calendar date in UTC.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether two timestamps fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
