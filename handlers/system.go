package handlers

import (
	"net/http"

	"filevault/models"
)

// Health reports liveness
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} models.APIResponse
// @Router /health [get]
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.SuccessResponse("Server is healthy", nil))
}

// ClientConfig serves the runtime settings the browser client reads on start.
// @Summary Client runtime config
// @Tags system
// @Produce json
// @Success 200 {object} models.ClientConfig
// @Router /config.json [get]
func ClientConfig(cfg models.ClientConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, cfg)
	}
}
