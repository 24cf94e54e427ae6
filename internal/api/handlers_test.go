package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smileworks/dental-booking-service/internal/booking"
	redisclient "github.com/smileworks/dental-booking-service/internal/redis"
	"github.com/smileworks/dental-booking-service/internal/store"
)

type testServer struct {
	handler http.Handler
	store   *store.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st := store.NewMemoryStore()
	svc := booking.NewService(booking.NewRepository(st), redisclient.PassthroughLocker{}, zap.NewNop())

	handler := NewRouter(RouterConfig{
		Service:        svc,
		Logger:         zap.NewNop(),
		Env:            "test",
		Version:        "test",
		AllowedOrigins: []string{"*"},
	})
	return &testServer{handler: handler, store: st}
}

func (s *testServer) seedDentist(t *testing.T) string {
	t.Helper()
	id, err := s.store.Insert(context.Background(), store.CollectionDentists, booking.Dentist{
		FirstName:      "Ana",
		LastName:       "Moreno",
		Specialization: "Orthodontics",
	})
	require.NoError(t, err)
	return id
}

func (s *testServer) seedSlot(t *testing.T, dentistID, dayOfWeek, slotTime string) string {
	t.Helper()
	id, err := s.store.Insert(context.Background(), store.CollectionAvailability, booking.AvailabilitySlot{
		DentistID:   dentistID,
		DayOfWeek:   dayOfWeek,
		SlotTime:    slotTime,
		IsAvailable: true,
	})
	require.NoError(t, err)
	return id
}

func (s *testServer) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func bookingBody(dentistID, date, slotTime string) map[string]any {
	return map[string]any{
		"dentist_id": dentistID,
		"date":       date,
		"time":       slotTime,
		"patient": map[string]any{
			"first_name":   "Jane",
			"last_name":    "Doe",
			"phone_number": "555-1111",
		},
	}
}

func TestHealthLive(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/health/live", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestListDentistsAndSlots(t *testing.T) {
	srv := newTestServer(t)
	dentistID := srv.seedDentist(t)
	srv.seedSlot(t, dentistID, "monday", "10:30")
	srv.seedSlot(t, dentistID, "monday", "09:00")
	srv.seedSlot(t, dentistID, "tuesday", "09:00")

	rec := srv.do(t, http.MethodGet, "/dentists", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var dentists []booking.Dentist
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dentists))
	require.Len(t, dentists, 1)
	require.Equal(t, dentistID, dentists[0].ID)

	monday, ok := booking.NextDateForWeekday("monday", time.Now())
	require.True(t, ok)

	rec = srv.do(t, http.MethodGet, "/dentists/"+dentistID+"/slots?date="+monday, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var slots []booking.AvailabilitySlot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &slots))
	require.Len(t, slots, 2)
	require.Equal(t, "09:00", slots[0].SlotTime, "sorted by time")
	require.Equal(t, "10:30", slots[1].SlotTime)

	// Unknown dentist yields an empty list, not an error.
	rec = srv.do(t, http.MethodGet, "/dentists/nope/slots?date="+monday, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "[]", rec.Body.String())
}

func TestGetDentist_NotFound(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/dentists/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	require.Equal(t, "dentist_not_found", errResp.Error)
}

func TestBookAppointment(t *testing.T) {
	srv := newTestServer(t)
	dentistID := srv.seedDentist(t)
	slotID := srv.seedSlot(t, dentistID, "monday", "09:00")

	monday, _ := booking.NextDateForWeekday("monday", time.Now())

	rec := srv.do(t, http.MethodPost, "/appointments", bookingBody(dentistID, monday, "09:00"))
	require.Equal(t, http.StatusCreated, rec.Code)

	var appt AppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &appt))
	require.NotEmpty(t, appt.ID)
	require.Equal(t, slotID, appt.SlotID)
	require.Equal(t, "scheduled", appt.Status)
	require.Equal(t, "General Consultation", appt.ProcedureType)

	// Same slot again: conflict.
	rec = srv.do(t, http.MethodPost, "/appointments", bookingBody(dentistID, monday, "09:00"))
	require.Equal(t, http.StatusConflict, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	require.Equal(t, "slot_unavailable", errResp.Error)
}

func TestBookAppointment_Validation(t *testing.T) {
	srv := newTestServer(t)
	dentistID := srv.seedDentist(t)

	body := bookingBody(dentistID, "not-a-date", "09:00")
	rec := srv.do(t, http.MethodPost, "/appointments", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	require.Equal(t, "validation_failed", errResp.Error)
}

func TestBookAppointment_BadJSON(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/appointments", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelAppointment(t *testing.T) {
	srv := newTestServer(t)
	dentistID := srv.seedDentist(t)
	srv.seedSlot(t, dentistID, "monday", "09:00")

	monday, _ := booking.NextDateForWeekday("monday", time.Now())

	rec := srv.do(t, http.MethodPost, "/appointments", bookingBody(dentistID, monday, "09:00"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var appt AppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &appt))

	cancel := map[string]any{"date": monday, "time": "09:00", "dentist_id": dentistID}
	rec = srv.do(t, http.MethodPost, "/appointments/"+appt.ID+"/cancel", cancel)
	require.Equal(t, http.StatusOK, rec.Code)

	// Slot is free again.
	rec = srv.do(t, http.MethodPost, "/appointments", bookingBody(dentistID, monday, "09:00"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = srv.do(t, http.MethodPost, "/appointments/unknown/cancel", cancel)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAppointmentsByPhone(t *testing.T) {
	srv := newTestServer(t)
	dentistID := srv.seedDentist(t)
	srv.seedSlot(t, dentistID, "monday", "09:00")

	monday, _ := booking.NextDateForWeekday("monday", time.Now())
	rec := srv.do(t, http.MethodPost, "/appointments", bookingBody(dentistID, monday, "09:00"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = srv.do(t, http.MethodGet, "/appointments?phone=555-1111", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var details []booking.AppointmentDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &details))
	require.Len(t, details, 1)
	require.NotNil(t, details[0].Dentist)
	require.Equal(t, dentistID, details[0].Dentist.ID)

	rec = srv.do(t, http.MethodGet, "/appointments?phone=555-0000", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodGet, "/appointments", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStoreFailureMapsToServiceUnavailable(t *testing.T) {
	srv := newTestServer(t)
	dentistID := srv.seedDentist(t)
	srv.seedSlot(t, dentistID, "monday", "09:00")

	srv.store.Intercept = func(op, collection string) error {
		if collection == store.CollectionDentists {
			return context.DeadlineExceeded
		}
		return nil
	}

	rec := srv.do(t, http.MethodGet, "/dentists", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
