package appointment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory Repository used by tests and local demos.
// It applies the same not-found and compare-and-set semantics as the
// Postgres implementation.
type MemoryRepository struct {
	mu           sync.RWMutex
	patients     map[uuid.UUID]Patient
	staff        map[uuid.UUID]Staff
	rooms        map[uuid.UUID]ConsultationRoom
	schedules    map[uuid.UUID]ScheduleWindow
	appointments map[uuid.UUID]Appointment
	events       []EventLog
	nextEventID  int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		patients:     make(map[uuid.UUID]Patient),
		staff:        make(map[uuid.UUID]Staff),
		rooms:        make(map[uuid.UUID]ConsultationRoom),
		schedules:    make(map[uuid.UUID]ScheduleWindow),
		appointments: make(map[uuid.UUID]Appointment),
	}
}

// Seed helpers

func (m *MemoryRepository) AddPatient(p Patient) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patients[p.ID] = p
}

func (m *MemoryRepository) AddStaff(s Staff) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staff[s.ID] = s
}

func (m *MemoryRepository) AddRoom(r ConsultationRoom) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[r.ID] = r
}

func (m *MemoryRepository) AddSchedule(w ScheduleWindow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules[w.ID] = w
}

func (m *MemoryRepository) AddAppointment(a Appointment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appointments[a.ID] = a
}

// Events returns a copy of the recorded event log.
func (m *MemoryRepository) Events() []EventLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]EventLog, len(m.events))
	copy(out, m.events)
	return out
}

// Repository implementation

func (m *MemoryRepository) GetPatientByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return &p, nil
}

func (m *MemoryRepository) GetStaffByID(_ context.Context, id uuid.UUID) (*Staff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.staff[id]
	if !ok {
		return nil, ErrStaffNotFound
	}
	return &s, nil
}

func (m *MemoryRepository) GetRoomByID(_ context.Context, id uuid.UUID) (*ConsultationRoom, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return &r, nil
}

func (m *MemoryRepository) GetScheduleByID(_ context.Context, id uuid.UUID) (*ScheduleWindow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.schedules[id]
	if !ok {
		return nil, ErrScheduleNotFound
	}
	return &w, nil
}

func (m *MemoryRepository) ListSchedulesByStaffDay(_ context.Context, staffID uuid.UUID, dayOfWeek int) ([]ScheduleWindow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []ScheduleWindow
	for _, w := range m.schedules {
		if w.StaffID == staffID && w.DayOfWeek == dayOfWeek {
			result = append(result, w)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Slot.Start < result[j].Slot.Start })
	return result, nil
}

func (m *MemoryRepository) ListSchedulesByStaff(_ context.Context, staffID uuid.UUID) ([]ScheduleWindow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []ScheduleWindow
	for _, w := range m.schedules {
		if w.StaffID == staffID {
			result = append(result, w)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DayOfWeek != result[j].DayOfWeek {
			return result[i].DayOfWeek < result[j].DayOfWeek
		}
		return result[i].Slot.Start < result[j].Slot.Start
	})
	return result, nil
}

func (m *MemoryRepository) CreateSchedule(_ context.Context, w ScheduleWindow) (*ScheduleWindow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	now := time.Now()
	w.CreatedAt = now
	w.UpdatedAt = now
	m.schedules[w.ID] = w
	return &w, nil
}

func (m *MemoryRepository) UpdateSchedule(_ context.Context, w ScheduleWindow) (*ScheduleWindow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.schedules[w.ID]
	if !ok {
		return nil, ErrScheduleNotFound
	}
	w.CreatedAt = existing.CreatedAt
	w.UpdatedAt = time.Now()
	m.schedules[w.ID] = w
	return &w, nil
}

func (m *MemoryRepository) DeleteSchedule(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[id]; !ok {
		return ErrScheduleNotFound
	}
	delete(m.schedules, id)
	return nil
}

func (m *MemoryRepository) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (m *MemoryRepository) GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	appt, err := m.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &AppointmentDetail{Appointment: *appt}

	if detail.Patient, err = m.GetPatientByID(ctx, appt.PatientID); err != nil {
		return nil, err
	}
	if detail.Staff, err = m.GetStaffByID(ctx, appt.StaffID); err != nil {
		return nil, err
	}
	if appt.ConsultationRoomID != nil {
		if detail.Room, err = m.GetRoomByID(ctx, *appt.ConsultationRoomID); err != nil {
			return nil, err
		}
	}

	return detail, nil
}

func (m *MemoryRepository) ListAppointmentsForStaffDate(_ context.Context, staffID uuid.UUID, date time.Time) ([]Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []Appointment
	for _, a := range m.appointments {
		if a.StaffID == staffID && SameDate(a.Date, date) {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Slot.Start < result[j].Slot.Start })
	return result, nil
}

func (m *MemoryRepository) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]AppointmentDetail, error) {
	m.mu.RLock()
	var appts []Appointment
	for _, a := range m.appointments {
		if a.PatientID == patientID {
			appts = append(appts, a)
		}
	}
	m.mu.RUnlock()

	sort.Slice(appts, func(i, j int) bool {
		if !appts[i].Date.Equal(appts[j].Date) {
			return appts[i].Date.After(appts[j].Date)
		}
		return appts[i].Slot.Start > appts[j].Slot.Start
	})

	if offset >= len(appts) {
		return nil, nil
	}
	appts = appts[offset:]
	if limit < len(appts) {
		appts = appts[:limit]
	}

	result := make([]AppointmentDetail, 0, len(appts))
	for _, a := range appts {
		d, err := m.GetAppointmentDetail(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, nil
}

func (m *MemoryRepository) CreateAppointment(_ context.Context, a Appointment) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	m.appointments[a.ID] = a
	return &a, nil
}

func (m *MemoryRepository) UpdateAppointment(_ context.Context, a Appointment) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.appointments[a.ID]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = time.Now()
	m.appointments[a.ID] = a
	return &a, nil
}

func (m *MemoryRepository) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, from, to Status, notes *string) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	if notes != nil {
		a.Notes = notes
	}
	a.UpdatedAt = time.Now()
	m.appointments[id] = a
	return &a, nil
}

func (m *MemoryRepository) DeleteAppointment(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appointments[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(m.appointments, id)
	return nil
}

func (m *MemoryRepository) FindOverduePending(_ context.Context, now time.Time) ([]Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []Appointment
	for _, a := range m.appointments {
		if a.Status != StatusPending {
			continue
		}
		endsAt := a.Date.Add(time.Duration(a.Slot.End.Minutes()) * time.Minute)
		if endsAt.Before(now) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *MemoryRepository) InsertEvent(_ context.Context, ev EventLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextEventID++
	ev.ID = m.nextEventID
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	m.events = append(m.events, ev)
	return nil
}
