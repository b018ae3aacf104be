package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/clinicdesk/clinic-scheduling/internal/interval"
)

// PgxIface is the subset of pgxpool.Pool the repository uses. It exists so
// tests can substitute a pgxmock pool.
type PgxIface interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PgRepository struct {
	db PgxIface
}

func NewPgRepository(db PgxIface) *PgRepository {
	return &PgRepository{db: db}
}

// pgtype helpers: TIME columns carry microseconds since midnight, DATE
// columns a date-only timestamp.

func timeOfDayToPg(t interval.TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: int64(t.Minutes()) * 60 * 1_000_000, Valid: true}
}

func timeOfDayFromPg(t pgtype.Time) interval.TimeOfDay {
	return interval.TimeOfDay(t.Microseconds / (60 * 1_000_000))
}

func dateToPg(d time.Time) pgtype.Date {
	return pgtype.Date{Time: NormalizeDate(d), Valid: true}
}

// Scan helpers

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanStaff(row pgx.Row) (*Staff, error) {
	var s Staff
	err := row.Scan(&s.ID, &s.Name, &s.Specialty, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}
	return &s, nil
}

func scanRoom(row pgx.Row) (*ConsultationRoom, error) {
	var r ConsultationRoom
	err := row.Scan(&r.ID, &r.Code, &r.Name, &r.Active, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &r, nil
}

func scanSchedule(row pgx.Row) (*ScheduleWindow, error) {
	var (
		w          ScheduleWindow
		start, end pgtype.Time
	)
	err := row.Scan(&w.ID, &w.StaffID, &w.DayOfWeek, &start, &end, &w.Available, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	w.Slot = interval.Interval{Start: timeOfDayFromPg(start), End: timeOfDayFromPg(end)}
	return &w, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		a          Appointment
		date       pgtype.Date
		start, end pgtype.Time
	)
	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.StaffID,
		&date,
		&start,
		&end,
		&a.Status,
		&a.ConsultationRoomID,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	a.Date = NormalizeDate(date.Time)
	a.Slot = interval.Interval{Start: timeOfDayFromPg(start), End: timeOfDayFromPg(end)}
	return &a, nil
}

const appointmentColumns = `id, patient_id, staff_id, appointment_date, start_time, end_time, status, consultation_room_id, notes, created_at, updated_at`

const scheduleColumns = `id, staff_id, day_of_week, start_time, end_time, available, created_at, updated_at`

// Reference entities

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, email, active, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) GetStaffByID(ctx context.Context, id uuid.UUID) (*Staff, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, specialty, active, created_at, updated_at
		FROM staff
		WHERE id = $1
	`, id)
	return scanStaff(row)
}

func (r *PgRepository) GetRoomByID(ctx context.Context, id uuid.UUID) (*ConsultationRoom, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, code, name, active, created_at, updated_at
		FROM consultation_rooms
		WHERE id = $1
	`, id)
	return scanRoom(row)
}

// Schedule windows

func (r *PgRepository) GetScheduleByID(ctx context.Context, id uuid.UUID) (*ScheduleWindow, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+scheduleColumns+`
		FROM schedules
		WHERE id = $1
	`, id)
	return scanSchedule(row)
}

func (r *PgRepository) ListSchedulesByStaffDay(ctx context.Context, staffID uuid.UUID, dayOfWeek int) ([]ScheduleWindow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+scheduleColumns+`
		FROM schedules
		WHERE staff_id = $1 AND day_of_week = $2
		ORDER BY start_time
	`, staffID, dayOfWeek)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSchedules(rows)
}

func (r *PgRepository) ListSchedulesByStaff(ctx context.Context, staffID uuid.UUID) ([]ScheduleWindow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+scheduleColumns+`
		FROM schedules
		WHERE staff_id = $1
		ORDER BY day_of_week, start_time
	`, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSchedules(rows)
}

func collectSchedules(rows pgx.Rows) ([]ScheduleWindow, error) {
	var result []ScheduleWindow
	for rows.Next() {
		w, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) CreateSchedule(ctx context.Context, w ScheduleWindow) (*ScheduleWindow, error) {
	id := w.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO schedules (id, staff_id, day_of_week, start_time, end_time, available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING `+scheduleColumns+`
	`, id, w.StaffID, w.DayOfWeek, timeOfDayToPg(w.Slot.Start), timeOfDayToPg(w.Slot.End), w.Available)
	return scanSchedule(row)
}

func (r *PgRepository) UpdateSchedule(ctx context.Context, w ScheduleWindow) (*ScheduleWindow, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE schedules
		SET staff_id = $2,
		    day_of_week = $3,
		    start_time = $4,
		    end_time = $5,
		    available = $6,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+scheduleColumns+`
	`, w.ID, w.StaffID, w.DayOfWeek, timeOfDayToPg(w.Slot.Start), timeOfDayToPg(w.Slot.End), w.Available)
	return scanSchedule(row)
}

func (r *PgRepository) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

// Appointments

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	appt, err := r.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &AppointmentDetail{Appointment: *appt}

	if detail.Patient, err = r.GetPatientByID(ctx, appt.PatientID); err != nil {
		return nil, err
	}
	if detail.Staff, err = r.GetStaffByID(ctx, appt.StaffID); err != nil {
		return nil, err
	}
	if appt.ConsultationRoomID != nil {
		if detail.Room, err = r.GetRoomByID(ctx, *appt.ConsultationRoomID); err != nil {
			return nil, err
		}
	}

	return detail, nil
}

func (r *PgRepository) ListAppointmentsForStaffDate(ctx context.Context, staffID uuid.UUID, date time.Time) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE staff_id = $1 AND appointment_date = $2
		ORDER BY start_time
	`, staffID, dateToPg(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]AppointmentDetail, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1
		ORDER BY appointment_date DESC, start_time DESC
		LIMIT $2 OFFSET $3
	`, patientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]AppointmentDetail, 0, len(appts))
	for _, a := range appts {
		d, err := r.GetAppointmentDetail(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, nil
}

func (r *PgRepository) CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error) {
	id := a.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, staff_id, appointment_date, start_time, end_time, status, consultation_room_id, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING `+appointmentColumns+`
	`, id, a.PatientID, a.StaffID, dateToPg(a.Date), timeOfDayToPg(a.Slot.Start), timeOfDayToPg(a.Slot.End), a.Status, a.ConsultationRoomID, a.Notes)
	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointment(ctx context.Context, a Appointment) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET patient_id = $2,
		    staff_id = $3,
		    appointment_date = $4,
		    start_time = $5,
		    end_time = $6,
		    status = $7,
		    consultation_room_id = $8,
		    notes = $9,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`, a.ID, a.PatientID, a.StaffID, dateToPg(a.Date), timeOfDayToPg(a.Slot.Start), timeOfDayToPg(a.Slot.End), a.Status, a.ConsultationRoomID, a.Notes)
	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status, notes *string) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    notes = COALESCE($4, notes),
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from, notes)
	return scanAppointment(row)
}

func (r *PgRepository) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) FindOverduePending(ctx context.Context, now time.Time) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = 'pending'
		  AND appointment_date + end_time < $1
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}
	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
