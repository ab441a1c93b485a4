package handlers

import (
	"context"
	"net/http"

	"sensorfleet/internal/logger"
	"sensorfleet/internal/models"
	"sensorfleet/internal/storage"
)

// AlertReader queries persisted alerts.
type AlertReader interface {
	List(ctx context.Context, sensorID string, limit int) ([]models.Alert, error)
	Stats(ctx context.Context) (*storage.AlertStats, error)
}

// AlertsHandler serves GET /alerts and GET /alerts/stats.
type AlertsHandler struct {
	store AlertReader
}

// NewAlertsHandler creates an alert query handler.
func NewAlertsHandler(store AlertReader) *AlertsHandler {
	return &AlertsHandler{store: store}
}

// List handles GET /alerts?sensor_id=&limit=.
func (h *AlertsHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sensorID := r.URL.Query().Get("sensor_id")
	limit := queryInt(r, "limit", 100)

	alerts, err := h.store.List(r.Context(), sensorID, limit)
	if err != nil {
		logger.WithComponent("alerts_api").Error().Err(err).Msg("alert query failed")
		writeError(w, http.StatusInternalServerError, "failed to query alerts")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}

// Stats handles GET /alerts/stats.
func (h *AlertsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats, err := h.store.Stats(r.Context())
	if err != nil {
		logger.WithComponent("alerts_api").Error().Err(err).Msg("alert stats failed")
		writeError(w, http.StatusInternalServerError, "failed to query alert stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
