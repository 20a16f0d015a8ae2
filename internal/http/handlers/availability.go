package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/filipinovation/clinic-booking/internal/observability/metrics"
	"github.com/filipinovation/clinic-booking/internal/schedule"
	"github.com/filipinovation/clinic-booking/pkg/logging"
)

// AvailabilityResolver lists open slots for a doctor selector and date.
type AvailabilityResolver interface {
	ListAvailable(ctx context.Context, selector, rawDate string) (*schedule.Availability, error)
}

// AvailabilityHandler serves open-slot lookups.
type AvailabilityHandler struct {
	resolver AvailabilityResolver
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger
}

// NewAvailabilityHandler creates an availability handler.
func NewAvailabilityHandler(resolver AvailabilityResolver, m *metrics.BookingMetrics, logger *logging.Logger) *AvailabilityHandler {
	if resolver == nil {
		panic("handlers: resolver is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AvailabilityHandler{resolver: resolver, metrics: m, logger: logger}
}

// Get returns open slots for the selector and date.
// GET /availability/{selector}/{date}
func (h *AvailabilityHandler) Get(w http.ResponseWriter, r *http.Request) {
	selector := chi.URLParam(r, "selector")
	rawDate := chi.URLParam(r, "date")
	if selector == "" || rawDate == "" {
		writeJSON(w, http.StatusBadRequest, envelope{Status: statusError, Message: "selector and date are required"})
		return
	}

	start := time.Now()
	avail, err := h.resolver.ListAvailable(r.Context(), selector, rawDate)
	if err != nil {
		h.logger.Warn("availability lookup failed", "selector", selector, "date", rawDate, "error", err)
		respondError(w, err)
		return
	}
	// Failed lookups are mostly fast rejections; keeping them out of the
	// histogram stops them from dragging the latency profile toward zero.
	h.metrics.ObserveAvailabilityLatency(time.Since(start).Seconds())

	if avail.Empty() {
		respondSuccess(w, http.StatusOK, fmt.Sprintf("no open slots for %s on %s", selector, avail.Date), avail)
		return
	}
	respondSuccess(w, http.StatusOK, "open slots found", avail)
}
