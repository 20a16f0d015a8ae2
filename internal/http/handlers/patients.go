package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/filipinovation/clinic-booking/internal/appointments"
	"github.com/filipinovation/clinic-booking/internal/patients"
	"github.com/filipinovation/clinic-booking/pkg/logging"
)

// PatientReader looks up patient records.
type PatientReader interface {
	Get(ctx context.Context, patientID string) (patients.Patient, error)
}

// AppointmentLister returns a patient's appointments.
type AppointmentLister interface {
	ListByPatient(ctx context.Context, patientID string) ([]appointments.Appointment, error)
}

// PatientHandler serves patient lookups.
type PatientHandler struct {
	patients PatientReader
	appts    AppointmentLister
	logger   *logging.Logger
}

// NewPatientHandler creates a patient handler.
func NewPatientHandler(pats PatientReader, appts AppointmentLister, logger *logging.Logger) *PatientHandler {
	if pats == nil {
		panic("handlers: patient reader is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PatientHandler{patients: pats, appts: appts, logger: logger}
}

type patientResponse struct {
	Patient      patients.Patient           `json:"patient"`
	Appointments []appointments.Appointment `json:"appointments"`
}

// Get returns a patient and their appointments.
// GET /patients/{patientID}
func (h *PatientHandler) Get(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientID")
	if patientID == "" {
		writeJSON(w, http.StatusBadRequest, envelope{Status: statusError, Message: "patientID is required"})
		return
	}

	patient, err := h.patients.Get(r.Context(), patientID)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := patientResponse{Patient: patient, Appointments: []appointments.Appointment{}}
	if h.appts != nil {
		appts, err := h.appts.ListByPatient(r.Context(), patientID)
		if err != nil {
			h.logger.Warn("failed to list appointments", "patient_id", patientID, "error", err)
		} else {
			resp.Appointments = appts
		}
	}

	respondSuccess(w, http.StatusOK, "patient found", resp)
}
