package appointment

import (
	"errors"
	"fmt"
	"strings"
)

// cancelMarker prefixes a cancellation reason when it is folded into the
// appointment's free-text notes.
const cancelMarker = "[CANCELLED]: "

var (
	ErrUnknownStatus        = errors.New("unknown appointment status")
	ErrTerminalState        = errors.New("appointment is in a terminal status")
	ErrAlreadyCancelled     = errors.New("appointment is already cancelled")
	ErrImmutableAppointment = errors.New("cannot modify a completed or cancelled appointment")
)

// ParseStatus validates a raw status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// IsTerminal reports whether no further transition is permitted from s.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// CountsTowardConflicts reports whether an appointment in this status blocks
// other bookings in its time range. Cancelled, completed and no-show
// appointments are historical records and may coexist with rebookings.
func (s Status) CountsTowardConflicts() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Transition validates a status change and returns the resulting status.
// From pending or confirmed any target is permitted; terminal statuses admit
// no transition at all, cancelled distinguishing the repeat-cancel case.
func Transition(current, target Status) (Status, error) {
	if _, err := ParseStatus(string(target)); err != nil {
		return "", err
	}
	if current == StatusCancelled {
		if target == StatusCancelled {
			return "", ErrAlreadyCancelled
		}
		return "", ErrTerminalState
	}
	if current.IsTerminal() {
		return "", ErrTerminalState
	}
	return target, nil
}

// CanEditTimes reports whether the appointment's date, times, staff or
// patient may still be changed.
func CanEditTimes(s Status) bool {
	return s != StatusCompleted && s != StatusCancelled
}

// AppendCancelReason folds a cancellation reason into the notes field using
// the fixed marker prefix. An empty reason leaves the notes untouched.
func AppendCancelReason(notes *string, reason string) *string {
	if reason == "" {
		return notes
	}
	existing := ""
	if notes != nil {
		existing = *notes
	}
	combined := strings.TrimSpace(existing + "\n" + cancelMarker + reason)
	return &combined
}
