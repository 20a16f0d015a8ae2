// Package handlers implements the HTTP surface of the booking service.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/filipinovation/clinic-booking/internal/dates"
	"github.com/filipinovation/clinic-booking/internal/directory"
	"github.com/filipinovation/clinic-booking/internal/patients"
	"github.com/filipinovation/clinic-booking/internal/schedule"
)

// envelope is the response body every endpoint returns.
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

const (
	statusSuccess = "success"
	statusWarning = "warning"
	statusDenied  = "denied"
	statusError   = "error"
)

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondSuccess(w http.ResponseWriter, httpStatus int, message string, data any) {
	writeJSON(w, httpStatus, envelope{Status: statusSuccess, Message: message, Data: data})
}

// respondError maps domain errors to the wire. Bad input and missing
// resources are 4xx. A lost slot race is 409 with status "denied".
// Anything else is a caught runtime failure: HTTP 200 with status
// "error" in the body, which is the contract clients already speak.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dates.ErrInvalidDateFormat),
		errors.Is(err, dates.ErrInvalidTimeFormat),
		errors.Is(err, dates.ErrPastDate):
		writeJSON(w, http.StatusBadRequest, envelope{Status: statusError, Message: err.Error()})
	case errors.Is(err, patients.ErrPatientNotFound),
		errors.Is(err, schedule.ErrDoctorNotFound),
		errors.Is(err, schedule.ErrSlotNotFound),
		errors.Is(err, directory.ErrNoDoctorsNearby):
		writeJSON(w, http.StatusNotFound, envelope{Status: statusError, Message: err.Error()})
	case errors.Is(err, patients.ErrContactMissing):
		writeJSON(w, http.StatusUnprocessableEntity, envelope{Status: statusError, Message: err.Error()})
	case errors.Is(err, schedule.ErrSlotUnavailable):
		writeJSON(w, http.StatusConflict, envelope{Status: statusDenied, Message: "slot is no longer available"})
	default:
		writeJSON(w, http.StatusOK, envelope{Status: statusError, Message: "internal error, please retry"})
	}
}
