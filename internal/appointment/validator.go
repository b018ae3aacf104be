package appointment

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-scheduling/internal/interval"
)

var (
	ErrStaffUnavailable    = errors.New("staff has no availability window covering the requested time")
	ErrAppointmentConflict = errors.New("requested time conflicts with an existing appointment")
	ErrWindowOverlap       = errors.New("schedule window overlaps an existing window for this staff and day")
	ErrInvalidDayOfWeek    = errors.New("day of week must be between 0 (Sunday) and 6 (Saturday)")
)

// ConflictError identifies the existing appointment a candidate overlaps.
// It matches ErrAppointmentConflict under errors.Is.
type ConflictError struct {
	AppointmentID uuid.UUID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("requested time conflicts with appointment %s", e.AppointmentID)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrAppointmentConflict
}

// Candidate is a proposed appointment placement to be checked against a
// staff member's availability and existing bookings.
type Candidate struct {
	StaffID uuid.UUID
	Date    time.Time
	Slot    interval.Interval
}

// ValidateBooking decides whether the candidate may be placed. It is a pure
// check over caller-supplied snapshots and performs no I/O:
//
//  1. the candidate must fit entirely inside at least one available window
//     for the staff member on that weekday, else ErrStaffUnavailable;
//  2. it must not overlap any pending or confirmed appointment for the same
//     staff and date, else a ConflictError naming the blocker.
//
// excludeID skips the appointment being updated so it does not conflict with
// its own prior state; pass uuid.Nil when validating a new booking.
//
// The check is advisory with respect to persistence: writers must re-run it
// inside the per-staff-day critical section before committing.
func ValidateBooking(c Candidate, windows []ScheduleWindow, existing []Appointment, excludeID uuid.UUID) error {
	dayOfWeek := int(c.Date.Weekday())

	covered := false
	for _, w := range windows {
		if w.StaffID != c.StaffID || w.DayOfWeek != dayOfWeek || !w.Available {
			continue
		}
		if w.Slot.Contains(c.Slot) {
			covered = true
			break
		}
	}
	if !covered {
		return ErrStaffUnavailable
	}

	for _, a := range existing {
		if a.StaffID != c.StaffID || !SameDate(a.Date, c.Date) {
			continue
		}
		if !a.Status.CountsTowardConflicts() {
			continue
		}
		if excludeID != uuid.Nil && a.ID == excludeID {
			continue
		}
		if a.Slot.Overlaps(c.Slot) {
			return &ConflictError{AppointmentID: a.ID}
		}
	}

	return nil
}

// ValidateWindow checks a new or updated weekly window against the existing
// rows for the same staff and day. Overlap is rejected regardless of either
// row's available flag; excludeID skips the window being updated.
func ValidateWindow(candidate ScheduleWindow, existing []ScheduleWindow, excludeID uuid.UUID) error {
	if candidate.DayOfWeek < 0 || candidate.DayOfWeek > 6 {
		return ErrInvalidDayOfWeek
	}

	for _, w := range existing {
		if w.StaffID != candidate.StaffID || w.DayOfWeek != candidate.DayOfWeek {
			continue
		}
		if excludeID != uuid.Nil && w.ID == excludeID {
			continue
		}
		if w.Slot.Overlaps(candidate.Slot) {
			return fmt.Errorf("%w: window %s (%s)", ErrWindowOverlap, w.ID, w.Slot)
		}
	}

	return nil
}
