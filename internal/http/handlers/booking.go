package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/filipinovation/clinic-booking/internal/booking"
	"github.com/filipinovation/clinic-booking/pkg/logging"
)

// Booker runs the booking transaction.
type Booker interface {
	Book(ctx context.Context, req booking.Request) (*booking.Result, error)
}

// BookingHandler serves booking requests. Both a JSON POST and a
// query-parameter GET are accepted; older clients still use the GET form.
type BookingHandler struct {
	booker Booker
	logger *logging.Logger
}

// NewBookingHandler creates a booking handler.
func NewBookingHandler(booker Booker, logger *logging.Logger) *BookingHandler {
	if booker == nil {
		panic("handlers: booker is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingHandler{booker: booker, logger: logger}
}

// Create books an appointment from a JSON body.
// POST /appointments
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req booking.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Status: statusError, Message: "invalid JSON body"})
		return
	}
	h.book(w, r, req)
}

// CreateFromQuery books an appointment from query parameters.
// GET /appointments/book?patient_id=&doctor=&date=&time=
func (h *BookingHandler) CreateFromQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := booking.Request{
		PatientID: q.Get("patient_id"),
		Selector:  q.Get("doctor"),
		Date:      q.Get("date"),
		Time:      q.Get("time"),
	}
	h.book(w, r, req)
}

func (h *BookingHandler) book(w http.ResponseWriter, r *http.Request, req booking.Request) {
	req.PatientID = strings.TrimSpace(req.PatientID)
	req.Selector = strings.TrimSpace(req.Selector)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	if req.PatientID == "" || req.Selector == "" || req.Date == "" || req.Time == "" {
		writeJSON(w, http.StatusBadRequest, envelope{Status: statusError, Message: "patient_id, doctor, date and time are required"})
		return
	}

	res, err := h.booker.Book(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}

	if res.Warning != "" {
		writeJSON(w, http.StatusCreated, envelope{Status: statusWarning, Message: res.Warning, Data: res})
		return
	}
	respondSuccess(w, http.StatusCreated, "appointment confirmed", res)
}
