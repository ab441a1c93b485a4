package handlers

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	"sensorfleet/internal/logger"
	"sensorfleet/internal/models"
	"sensorfleet/internal/storage"
)

// ReadingAggregator runs the aggregation queries behind the analytics API.
type ReadingAggregator interface {
	Averages(ctx context.Context, sensorID string, since time.Time) (*storage.MetricSummary, error)
	Maximums(ctx context.Context, sensorID string, since time.Time) (*storage.MetricSummary, error)
	TopSensors(ctx context.Context, metric string, since time.Time, limit int) ([]storage.SensorRank, error)
	Stats(ctx context.Context, sensorID string, since time.Time) (*storage.SensorStats, error)
}

// AnalyticsHandler serves the read-only aggregation endpoints over stored
// readings.
type AnalyticsHandler struct {
	readings ReadingAggregator
}

// NewAnalyticsHandler creates the analytics handler.
func NewAnalyticsHandler(readings ReadingAggregator) *AnalyticsHandler {
	return &AnalyticsHandler{readings: readings}
}

// Average handles GET /analytics/average?sensor_id=&hours=.
func (h *AnalyticsHandler) Average(w http.ResponseWriter, r *http.Request) {
	h.summary(w, r, "average", h.readings.Averages)
}

// Maximum handles GET /analytics/maximum?sensor_id=&hours=.
func (h *AnalyticsHandler) Maximum(w http.ResponseWriter, r *http.Request) {
	h.summary(w, r, "maximum", h.readings.Maximums)
}

func (h *AnalyticsHandler) summary(
	w http.ResponseWriter,
	r *http.Request,
	field string,
	query func(context.Context, string, time.Time) (*storage.MetricSummary, error),
) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sensorID := r.URL.Query().Get("sensor_id")
	hours := queryInt(r, "hours", 24)
	since := time.Now().Add(-time.Duration(hours) * time.Hour)

	summary, err := query(r.Context(), sensorID, since)
	if err != nil {
		logger.WithComponent("analytics").Error().Err(err).Msg("summary query failed")
		writeError(w, http.StatusInternalServerError, "failed to aggregate readings")
		return
	}

	label := sensorID
	if label == "" {
		label = "all"
	}

	if summary.Empty() {
		writeJSON(w, http.StatusOK, map[string]any{
			"sensor_id": label,
			"message":   "no data",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sensor_id":    label,
		"period_hours": hours,
		field: map[string]float64{
			"temperature": round2(*summary.Temperature),
			"humidity":    round2(*summary.Humidity),
			"vibration":   round2(*summary.Vibration),
			"load":        round2(*summary.Load),
		},
	})
}

// TopSensors handles GET /analytics/top-sensors?metric=&limit=&hours=.
func (h *AnalyticsHandler) TopSensors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	metric := r.URL.Query().Get("metric")
	if metric == "" {
		metric = "load"
	}
	if !models.ValidMetric(metric) {
		writeError(w, http.StatusBadRequest, "invalid metric")
		return
	}

	hours := queryInt(r, "hours", 24)
	limit := queryInt(r, "limit", 10)
	since := time.Now().Add(-time.Duration(hours) * time.Hour)

	ranks, err := h.readings.TopSensors(r.Context(), metric, since, limit)
	if err != nil {
		logger.WithComponent("analytics").Error().Err(err).Msg("top sensors query failed")
		writeError(w, http.StatusInternalServerError, "failed to rank sensors")
		return
	}

	for i := range ranks {
		ranks[i].Average = round2(ranks[i].Average)
		ranks[i].Maximum = round2(ranks[i].Maximum)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"metric":       metric,
		"period_hours": hours,
		"top_sensors":  ranks,
	})
}

// SensorStats handles GET /analytics/sensor-stats/{sensor_id}?hours=.
func (h *AnalyticsHandler) SensorStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sensorID := strings.TrimPrefix(r.URL.Path, "/analytics/sensor-stats/")
	if sensorID == "" || strings.Contains(sensorID, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	hours := queryInt(r, "hours", 24)
	since := time.Now().Add(-time.Duration(hours) * time.Hour)

	stats, err := h.readings.Stats(r.Context(), sensorID, since)
	if err != nil {
		logger.WithComponent("analytics").Error().Err(err).Msg("sensor stats query failed")
		writeError(w, http.StatusInternalServerError, "failed to aggregate readings")
		return
	}

	if stats.Count == 0 {
		writeJSON(w, http.StatusOK, map[string]any{
			"sensor_id": sensorID,
			"message":   "no data",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sensor_id":      sensorID,
		"period_hours":   hours,
		"readings_count": stats.Count,
		"temperature":    metricStats(stats.AvgTemperature, stats.MaxTemperature, stats.MinTemperature),
		"humidity":       metricStats(stats.AvgHumidity, stats.MaxHumidity, stats.MinHumidity),
		"vibration":      metricStats(stats.AvgVibration, stats.MaxVibration, stats.MinVibration),
		"load":           metricStats(stats.AvgLoad, stats.MaxLoad, stats.MinLoad),
	})
}

func metricStats(avg, max, min *float64) map[string]float64 {
	out := map[string]float64{}
	if avg != nil {
		out["avg"] = round2(*avg)
	}
	if max != nil {
		out["max"] = round2(*max)
	}
	if min != nil {
		out["min"] = round2(*min)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
