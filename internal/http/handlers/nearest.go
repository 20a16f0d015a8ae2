package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/filipinovation/clinic-booking/internal/directory"
	"github.com/filipinovation/clinic-booking/pkg/logging"
)

// NearestFinder locates the doctor closest to a coordinate.
type NearestFinder interface {
	Nearest(ctx context.Context, lat, lng float64) (*directory.NearestResult, error)
}

// NearestHandler serves nearest-doctor lookups.
type NearestHandler struct {
	finder NearestFinder
	logger *logging.Logger
}

// NewNearestHandler creates a nearest-doctor handler.
func NewNearestHandler(finder NearestFinder, logger *logging.Logger) *NearestHandler {
	if finder == nil {
		panic("handlers: finder is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &NearestHandler{finder: finder, logger: logger}
}

// Get returns the doctor nearest to the given coordinates.
// GET /doctors/nearest?lat=&lng=
func (h *NearestHandler) Get(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if errLat != nil || errLng != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Status: statusError, Message: "lat and lng must be decimal coordinates"})
		return
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		writeJSON(w, http.StatusBadRequest, envelope{Status: statusError, Message: "coordinates out of range"})
		return
	}

	res, err := h.finder.Nearest(r.Context(), lat, lng)
	if err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "nearest doctor found", res)
}
