// filepath: internal/api/handlers/cron_handler.go
package handlers

import (
	"net/http"
)

// @Summary Run a status cycle
// @Description Scans backup freshness, updates every repository status and alerts the operator.
// @Tags cron
// @Produce  json
// @Success 200 {object} models.StatusReport
// @Failure 409 {object} ErrorResponse "Scan already running"
// @Failure 500 {object} ErrorResponse "Status cycle failed"
// @Security BearerAuth
// @Router /cron/status [post]
func (h *Handlers) TriggerStatus(w http.ResponseWriter, r *http.Request) {
	report, err := h.Monitor.TriggerStatus(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "run status cycle")
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

// @Summary Run a storage usage cycle
// @Description Refreshes the used bytes of every repository.
// @Tags cron
// @Produce  json
// @Success 200 {object} models.UsageReport
// @Failure 409 {object} ErrorResponse "Scan already running"
// @Failure 500 {object} ErrorResponse "Usage cycle failed"
// @Security BearerAuth
// @Router /cron/storage [post]
func (h *Handlers) TriggerStorage(w http.ResponseWriter, r *http.Request) {
	report, err := h.Monitor.TriggerUsage(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "run usage cycle")
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}
