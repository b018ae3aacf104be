package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinic-scheduling/internal/appointment"
	"github.com/clinicdesk/clinic-scheduling/internal/interval"
	redisclient "github.com/clinicdesk/clinic-scheduling/internal/redis"
)

type apiFixture struct {
	handler http.Handler
	repo    *appointment.MemoryRepository
	patient appointment.Patient
	staff   appointment.Staff
}

// testDate is a Monday, matching the fixture's day-1 schedule window.
const testDate = "2026-01-05"

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := appointment.NewMemoryRepository()
	svc := appointment.NewService(repo, redisclient.NewRedisStaffDayLocker(client, 2*time.Second))

	f := &apiFixture{
		repo:    repo,
		patient: appointment.Patient{ID: uuid.New(), Name: "Ana Torres", Active: true},
		staff:   appointment.Staff{ID: uuid.New(), Name: "Dr. Luis Vega", Active: true},
	}
	repo.AddPatient(f.patient)
	repo.AddStaff(f.staff)

	shift, err := interval.Parse("09:00", "17:00")
	require.NoError(t, err)
	repo.AddSchedule(appointment.ScheduleWindow{
		ID:        uuid.New(),
		StaffID:   f.staff.ID,
		DayOfWeek: 1,
		Slot:      shift,
		Available: true,
	})

	f.handler = NewRouter(RouterConfig{Service: svc, Env: "test", Version: "test"})
	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) bookBody(start, end string) BookAppointmentRequest {
	return BookAppointmentRequest{
		PatientID:       f.patient.ID.String(),
		StaffID:         f.staff.ID.String(),
		AppointmentDate: testDate,
		StartTime:       start,
		EndTime:         end,
	}
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestHealthEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/health/live", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeJSON[HealthResponse](t, rec).Status)

	// No pool or lock store wired into the fixture: both checks are skipped.
	rec = f.do(t, http.MethodGet, "/health/ready", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ready := decodeJSON[HealthResponse](t, rec)
	assert.Equal(t, "ok", ready.Status)
	assert.Equal(t, "skipped", ready.Dependencies["postgres"])
	assert.Equal(t, "skipped", ready.Dependencies["redis"])
}

func TestBookAppointmentEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/appointments", f.bookBody("09:00", "10:00"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decodeJSON[AppointmentResponse](t, rec)
	assert.Equal(t, f.patient.ID, resp.PatientID)
	assert.Equal(t, testDate, resp.AppointmentDate)
	assert.Equal(t, "09:00", resp.StartTime)
	assert.Equal(t, "10:00", resp.EndTime)
	assert.Equal(t, "pending", resp.Status)
}

func TestBookAppointmentEndpointRejectsBadTime(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/appointments", f.bookBody("9:00", "10:00"))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeJSON[ErrorResponse](t, rec)
	assert.Equal(t, "invalid_time_format", resp.Error)
}

func TestBookAppointmentEndpointConflict(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/appointments", f.bookBody("09:00", "10:00"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/appointments", f.bookBody("09:30", "10:30"))
	require.Equal(t, http.StatusConflict, rec.Code)

	resp := decodeJSON[ErrorResponse](t, rec)
	assert.Equal(t, "appointment_conflict", resp.Error)
}

func TestBookAppointmentEndpointOutsideSchedule(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/appointments", f.bookBody("18:00", "19:00"))
	require.Equal(t, http.StatusConflict, rec.Code)

	resp := decodeJSON[ErrorResponse](t, rec)
	assert.Equal(t, "staff_unavailable", resp.Error)
}

func TestGetAppointmentEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	created := decodeJSON[AppointmentResponse](t,
		f.do(t, http.MethodPost, "/appointments", f.bookBody("09:00", "10:00")))

	rec := f.do(t, http.MethodGet, "/appointments/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	detail := decodeJSON[AppointmentDetailResponse](t, rec)
	assert.Equal(t, created.ID, detail.ID)
	assert.Equal(t, "Ana Torres", detail.PatientName)
	assert.Equal(t, "Dr. Luis Vega", detail.StaffName)
}

func TestGetAppointmentEndpointBadID(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/appointments/not-a-uuid", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_id", decodeJSON[ErrorResponse](t, rec).Error)

	rec = f.do(t, http.MethodGet, "/appointments/"+uuid.NewString(), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "appointment_not_found", decodeJSON[ErrorResponse](t, rec).Error)
}

func TestStatusAndCancelEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	created := decodeJSON[AppointmentResponse](t,
		f.do(t, http.MethodPost, "/appointments", f.bookBody("09:00", "10:00")))
	path := "/appointments/" + created.ID.String()

	rec := f.do(t, http.MethodPost, path+"/status", UpdateStatusRequest{Status: "confirmed"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "confirmed", decodeJSON[AppointmentResponse](t, rec).Status)

	rec = f.do(t, http.MethodPost, path+"/cancel", CancelAppointmentRequest{Reason: "patient requested"})
	require.Equal(t, http.StatusOK, rec.Code)
	cancelled := decodeJSON[AppointmentResponse](t, rec)
	assert.Equal(t, "cancelled", cancelled.Status)
	require.NotNil(t, cancelled.Notes)
	assert.Contains(t, *cancelled.Notes, "[CANCELLED]: patient requested")

	rec = f.do(t, http.MethodPost, path+"/cancel", CancelAppointmentRequest{Reason: "again"})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_cancelled", decodeJSON[ErrorResponse](t, rec).Error)
}

func TestUpdateAppointmentEndpointImmutable(t *testing.T) {
	f := newAPIFixture(t)

	created := decodeJSON[AppointmentResponse](t,
		f.do(t, http.MethodPost, "/appointments", f.bookBody("09:00", "10:00")))
	path := "/appointments/" + created.ID.String()

	rec := f.do(t, http.MethodPost, path+"/status", UpdateStatusRequest{Status: "completed"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPut, path, f.bookBody("11:00", "12:00"))
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "appointment_immutable", decodeJSON[ErrorResponse](t, rec).Error)
}

func TestDeleteAppointmentEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	created := decodeJSON[AppointmentResponse](t,
		f.do(t, http.MethodPost, "/appointments", f.bookBody("09:00", "10:00")))
	path := "/appointments/" + created.ID.String()

	rec := f.do(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListAppointmentsEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/appointments", f.bookBody("09:00", "10:00"))
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("by staff and date", func(t *testing.T) {
		url := fmt.Sprintf("/appointments?staff_id=%s&date=%s", f.staff.ID, testDate)
		rec := f.do(t, http.MethodGet, url, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeJSON[[]AppointmentResponse](t, rec), 1)
	})

	t.Run("by patient", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/appointments?patient_id="+f.patient.ID.String(), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		details := decodeJSON[[]AppointmentDetailResponse](t, rec)
		require.Len(t, details, 1)
		assert.Equal(t, "Ana Torres", details[0].PatientName)
	})

	t.Run("missing filter", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/appointments", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "missing_filter", decodeJSON[ErrorResponse](t, rec).Error)
	})
}

func TestScheduleEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	body := ScheduleRequest{
		StaffID:   f.staff.ID.String(),
		DayOfWeek: 2,
		StartTime: "09:00",
		EndTime:   "13:00",
	}

	rec := f.do(t, http.MethodPost, "/schedules", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeJSON[ScheduleResponse](t, rec)
	assert.True(t, created.Available, "available defaults to true")

	overlap := body
	overlap.StartTime = "12:00"
	overlap.EndTime = "16:00"
	rec = f.do(t, http.MethodPost, "/schedules", overlap)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "schedule_overlap", decodeJSON[ErrorResponse](t, rec).Error)

	rec = f.do(t, http.MethodGet, "/schedules?staff_id="+f.staff.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeJSON[[]ScheduleResponse](t, rec), 2)

	rec = f.do(t, http.MethodDelete, "/schedules/"+created.ID.String(), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodDelete, "/schedules/"+created.ID.String(), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScheduleEndpointRejectsBadDay(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/schedules", ScheduleRequest{
		StaffID:   f.staff.ID.String(),
		DayOfWeek: 7,
		StartTime: "09:00",
		EndTime:   "13:00",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_day_of_week", decodeJSON[ErrorResponse](t, rec).Error)
}
