package handlers

import (
	"context"
	"net/http"
	"strings"

	"sensorfleet/internal/logger"
	"sensorfleet/internal/models"
)

// ReadingLister queries stored readings.
type ReadingLister interface {
	ListBySensor(ctx context.Context, sensorID string, limit int) ([]models.Reading, error)
}

// ReadingsHandler serves GET /sensor-data/{sensor_id}.
type ReadingsHandler struct {
	readings ReadingLister
}

// NewReadingsHandler creates a reading query handler.
func NewReadingsHandler(readings ReadingLister) *ReadingsHandler {
	return &ReadingsHandler{readings: readings}
}

func (h *ReadingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sensorID := strings.TrimPrefix(r.URL.Path, "/sensor-data/")
	if sensorID == "" || strings.Contains(sensorID, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	limit := queryInt(r, "limit", 100)

	readings, err := h.readings.ListBySensor(r.Context(), sensorID, limit)
	if err != nil {
		logger.WithComponent("readings").Error().Err(err).Msg("reading query failed")
		writeError(w, http.StatusInternalServerError, "failed to query readings")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sensor_id": sensorID,
		"data":      readings,
	})
}
