package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filipinovation/clinic-booking/internal/appointments"
	"github.com/filipinovation/clinic-booking/internal/booking"
	"github.com/filipinovation/clinic-booking/internal/dates"
	"github.com/filipinovation/clinic-booking/internal/directory"
	"github.com/filipinovation/clinic-booking/internal/observability/metrics"
	"github.com/filipinovation/clinic-booking/internal/patients"
	"github.com/filipinovation/clinic-booking/internal/schedule"
	"github.com/filipinovation/clinic-booking/pkg/logging"
)

type mockResolver struct {
	avail *schedule.Availability
	err   error
}

func (m *mockResolver) ListAvailable(ctx context.Context, selector, rawDate string) (*schedule.Availability, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.avail, nil
}

type mockBooker struct {
	req    booking.Request
	result *booking.Result
	err    error
}

func (m *mockBooker) Book(ctx context.Context, req booking.Request) (*booking.Result, error) {
	m.req = req
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

type mockPatientReader struct {
	patient patients.Patient
	err     error
}

func (m *mockPatientReader) Get(ctx context.Context, patientID string) (patients.Patient, error) {
	if m.err != nil {
		return patients.Patient{}, m.err
	}
	return m.patient, nil
}

type mockAppointmentLister struct {
	appts []appointments.Appointment
	err   error
}

func (m *mockAppointmentLister) ListByPatient(ctx context.Context, patientID string) ([]appointments.Appointment, error) {
	return m.appts, m.err
}

type mockFinder struct {
	result *directory.NearestResult
	err    error
}

func (m *mockFinder) Nearest(ctx context.Context, lat, lng float64) (*directory.NearestResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func routeWithParams(h http.HandlerFunc, pattern string) *chi.Mux {
	r := chi.NewRouter()
	r.Get(pattern, h)
	return r
}

func TestAvailabilityGet(t *testing.T) {
	avail := &schedule.Availability{
		Date: "2025-05-10",
		Doctors: []schedule.DoctorAvailability{{
			Doctor: schedule.Doctor{ID: "D1", Name: "Dr. Reyes", Field: "Cardiology"},
			Slots:  []schedule.Slot{{Date: "2025-05-10", Time: "9:00 AM", Status: schedule.SlotOpen}},
		}},
	}
	h := NewAvailabilityHandler(&mockResolver{avail: avail}, nil, logging.New("error"))
	router := routeWithParams(h.Get, "/availability/{selector}/{date}")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/availability/cardiology/2025-05-10", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, statusSuccess, env.Status)
	assert.NotNil(t, env.Data)
}

func TestAvailabilityEmptyIsSuccess(t *testing.T) {
	h := NewAvailabilityHandler(&mockResolver{avail: &schedule.Availability{Date: "2025-05-10"}}, nil, logging.New("error"))
	router := routeWithParams(h.Get, "/availability/{selector}/{date}")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/availability/cardiology/2025-05-10", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, statusSuccess, env.Status)
	assert.Contains(t, env.Message, "no open slots")
}

func TestAvailabilityErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantCode   int
		wantStatus string
	}{
		{"invalid date", dates.ErrInvalidDateFormat, http.StatusBadRequest, statusError},
		{"past date", dates.ErrPastDate, http.StatusBadRequest, statusError},
		{"unknown doctor", schedule.ErrDoctorNotFound, http.StatusNotFound, statusError},
		{"storage failure", context.DeadlineExceeded, http.StatusOK, statusError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewAvailabilityHandler(&mockResolver{err: tc.err}, nil, logging.New("error"))
			router := routeWithParams(h.Get, "/availability/{selector}/{date}")

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/availability/cardiology/someday", nil))

			assert.Equal(t, tc.wantCode, rec.Code)
			assert.Equal(t, tc.wantStatus, decodeEnvelope(t, rec).Status)
		})
	}
}

func availabilityLatencyCount(t *testing.T, reg *prometheus.Registry) uint64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == "clinic_booking_availability_latency_seconds" {
			return mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	t.Fatal("availability latency histogram not registered")
	return 0
}

func TestAvailabilityLatencyObservedOnSuccessOnly(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewBookingMetrics(reg)
	resolver := &mockResolver{err: dates.ErrInvalidDateFormat}
	h := NewAvailabilityHandler(resolver, m, logging.New("error"))
	router := routeWithParams(h.Get, "/availability/{selector}/{date}")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/availability/cardiology/someday", nil))
	assert.Equal(t, uint64(0), availabilityLatencyCount(t, reg), "rejected lookup must not land in the histogram")

	resolver.err = nil
	resolver.avail = &schedule.Availability{Date: "2025-05-10"}
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/availability/cardiology/2025-05-10", nil))
	assert.Equal(t, uint64(1), availabilityLatencyCount(t, reg))
}

func bookingResult() *booking.Result {
	return &booking.Result{
		Appointment: appointments.Appointment{
			ID:         "A1",
			PatientID:  "U1",
			DoctorID:   "D1",
			DoctorName: "Dr. Reyes",
			Field:      "Cardiology",
			Date:       "2025-05-10",
			Time:       "9:00 AM",
		},
		NotificationSent: true,
	}
}

func TestBookingCreate(t *testing.T) {
	booker := &mockBooker{result: bookingResult()}
	h := NewBookingHandler(booker, logging.New("error"))

	body := `{"patient_id":"U1","doctor":"cardiology","date":"May 10, 2025","time":"9:00 AM"}`
	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, statusSuccess, env.Status)
	assert.Equal(t, "U1", booker.req.PatientID)
	assert.Equal(t, "cardiology", booker.req.Selector)
}

func TestBookingCreateFromQuery(t *testing.T) {
	booker := &mockBooker{result: bookingResult()}
	h := NewBookingHandler(booker, logging.New("error"))

	rec := httptest.NewRecorder()
	h.CreateFromQuery(rec, httptest.NewRequest(http.MethodGet, "/appointments/book?patient_id=U1&doctor=reyes&date=tomorrow&time=9:00%20AM", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "reyes", booker.req.Selector)
	assert.Equal(t, "tomorrow", booker.req.Date)
}

func TestBookingMissingFields(t *testing.T) {
	h := NewBookingHandler(&mockBooker{result: bookingResult()}, logging.New("error"))

	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(`{"patient_id":"U1"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingInvalidJSON(t *testing.T) {
	h := NewBookingHandler(&mockBooker{result: bookingResult()}, logging.New("error"))

	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader("{")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingLostRaceIsDenied(t *testing.T) {
	h := NewBookingHandler(&mockBooker{err: schedule.ErrSlotUnavailable}, logging.New("error"))

	body := `{"patient_id":"U1","doctor":"cardiology","date":"2025-05-10","time":"9:00 AM"}`
	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body)))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, statusDenied, decodeEnvelope(t, rec).Status)
}

func TestBookingContactMissingRefused(t *testing.T) {
	h := NewBookingHandler(&mockBooker{err: patients.ErrContactMissing}, logging.New("error"))

	body := `{"patient_id":"U2","doctor":"cardiology","date":"2025-05-10","time":"9:00 AM"}`
	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body)))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestBookingWarningStatus(t *testing.T) {
	res := bookingResult()
	res.NotificationSent = false
	res.Warning = "patient has no contact email, confirmation will not be sent"
	h := NewBookingHandler(&mockBooker{result: res}, logging.New("error"))

	body := `{"patient_id":"U2","doctor":"cardiology","date":"2025-05-10","time":"9:00 AM"}`
	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, statusWarning, env.Status)
	assert.Contains(t, env.Message, "no contact email")
}

func TestPatientGet(t *testing.T) {
	reader := &mockPatientReader{patient: patients.Patient{ID: "U1", Name: "Maria Santos", Email: "maria@example.com"}}
	lister := &mockAppointmentLister{appts: []appointments.Appointment{{ID: "A1", PatientID: "U1"}}}
	h := NewPatientHandler(reader, lister, logging.New("error"))
	router := routeWithParams(h.Get, "/patients/{patientID}")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/patients/U1", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, statusSuccess, env.Status)

	raw, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var resp patientResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	assert.Equal(t, "Maria Santos", resp.Patient.Name)
	assert.Len(t, resp.Appointments, 1)
}

func TestPatientGetNotFound(t *testing.T) {
	h := NewPatientHandler(&mockPatientReader{err: patients.ErrPatientNotFound}, nil, logging.New("error"))
	router := routeWithParams(h.Get, "/patients/{patientID}")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/patients/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNearestGet(t *testing.T) {
	h := NewNearestHandler(&mockFinder{result: &directory.NearestResult{
		Doctor:     schedule.Doctor{ID: "D1", Name: "Dr. Reyes"},
		DistanceKm: 4.2,
	}}, logging.New("error"))

	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/doctors/nearest?lat=14.6&lng=121.0", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, statusSuccess, decodeEnvelope(t, rec).Status)
}

func TestNearestBadCoordinates(t *testing.T) {
	h := NewNearestHandler(&mockFinder{}, logging.New("error"))

	for _, query := range []string{"", "lat=abc&lng=121", "lat=14.6", "lat=95&lng=121"} {
		rec := httptest.NewRecorder()
		h.Get(rec, httptest.NewRequest(http.MethodGet, "/doctors/nearest?"+query, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "query %q", query)
	}
}

func TestNearestNoneRegistered(t *testing.T) {
	h := NewNearestHandler(&mockFinder{err: directory.ErrNoDoctorsNearby}, logging.New("error"))

	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/doctors/nearest?lat=14.6&lng=121.0", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, statusSuccess, decodeEnvelope(t, rec).Status)
}
