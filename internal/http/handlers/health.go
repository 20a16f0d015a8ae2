package handlers

import "net/http"

// Health reports liveness.
// GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, "ok", map[string]string{"service": "clinic-booking"})
}
