package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"sensorfleet/internal/logger"
	"sensorfleet/internal/metrics"
	"sensorfleet/internal/models"
)

// ReadingInserter persists validated readings.
type ReadingInserter interface {
	Insert(ctx context.Context, r *models.Reading) error
}

// Enqueuer pushes serialized readings onto the work queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload []byte) error
}

// IngestHandler accepts readings over HTTP, writes them to the reading
// store, and enqueues them for alert evaluation.
type IngestHandler struct {
	readings ReadingInserter
	queue    Enqueuer

	// Max body size (default 1MB)
	maxBodySize int64
}

// IngestConfig holds configuration for the ingest handler.
type IngestConfig struct {
	Readings    ReadingInserter
	Queue       Enqueuer
	MaxBodySize int64
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(cfg IngestConfig) *IngestHandler {
	maxBodySize := cfg.MaxBodySize
	if maxBodySize == 0 {
		maxBodySize = 1 * 1024 * 1024
	}

	return &IngestHandler{
		readings:    cfg.Readings,
		queue:       cfg.Queue,
		maxBodySize: maxBodySize,
	}
}

// readingInput is the wire shape of a reading. Metric fields are pointers so
// a missing field is distinguishable from an explicit zero.
type readingInput struct {
	SensorID    string     `json:"sensor_id"`
	Temperature *float64   `json:"temperature"`
	Humidity    *float64   `json:"humidity"`
	Vibration   *float64   `json:"vibration"`
	Load        *float64   `json:"load"`
	Timestamp   *time.Time `json:"timestamp"`
}

// ServeHTTP handles POST /sensor-data.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var input readingInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		metrics.IngestReadingsTotal.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	reading, err := h.convertInput(input)
	if err != nil {
		metrics.IngestReadingsTotal.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	log := logger.WithComponent("ingest").With().
		Str("sensor_id", reading.SensorID).Logger()

	// The acknowledgment covers the store write only; the enqueue below is
	// best-effort and outside any transaction.
	if err := h.readings.Insert(r.Context(), reading); err != nil {
		metrics.IngestReadingsTotal.WithLabelValues("store_error").Inc()
		log.Error().Err(err).Msg("reading insert failed")
		writeError(w, http.StatusInternalServerError, "failed to store reading")
		return
	}

	payload, err := json.Marshal(reading)
	if err == nil {
		err = h.queue.Enqueue(r.Context(), payload)
	}
	if err != nil {
		// The reading is durable but will never generate an alert. Known
		// limitation: no retry, no compensation.
		metrics.IngestEnqueueFailures.Inc()
		log.Warn().Err(err).Msg("reading stored but not enqueued")
	}

	metrics.IngestReadingsTotal.WithLabelValues("accepted").Inc()
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "data saved",
	})
}

// convertInput validates the wire shape and builds the domain reading.
func (h *IngestHandler) convertInput(input readingInput) (*models.Reading, error) {
	if input.SensorID == "" {
		return nil, models.ErrEmptySensorID
	}
	if input.Temperature == nil || input.Humidity == nil ||
		input.Vibration == nil || input.Load == nil {
		return nil, models.ErrMissingMetric
	}

	ts := time.Now().UTC()
	if input.Timestamp != nil {
		ts = input.Timestamp.UTC()
	}

	reading := &models.Reading{
		SensorID:    input.SensorID,
		Temperature: *input.Temperature,
		Humidity:    *input.Humidity,
		Vibration:   *input.Vibration,
		Load:        *input.Load,
		Timestamp:   ts,
	}

	if err := reading.Validate(); err != nil {
		return nil, err
	}
	return reading, nil
}
