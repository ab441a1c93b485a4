// Package worker runs the alert evaluation loop: dequeue a pending reading,
// evaluate it against the thresholds, persist each resulting alert, and
// publish it on the notification channel.
package worker

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"sensorfleet/internal/evaluator"
	"sensorfleet/internal/logger"
	"sensorfleet/internal/metrics"
	"sensorfleet/internal/models"
	"sensorfleet/internal/queue"
)

// AlertSink persists evaluated alerts.
type AlertSink interface {
	Insert(ctx context.Context, a *models.Alert) error
}

// Worker is the long-lived consumer of the reading queue. Multiple
// instances may run concurrently; the queue's atomic dequeue is the only
// coordination between them.
type Worker struct {
	broker     queue.Broker
	alerts     AlertSink
	thresholds models.Thresholds

	dequeueTimeout time.Duration
	retryAttempts  int
	retryBackoff   time.Duration

	// Metrics
	processed atomic.Uint64
	failed    atomic.Uint64
}

// Config holds worker configuration.
type Config struct {
	Broker     queue.Broker
	Alerts     AlertSink
	Thresholds models.Thresholds

	DequeueTimeout time.Duration
	RetryAttempts  int
	RetryBackoff   time.Duration
}

// New creates a worker with defaults filled in.
func New(cfg Config) *Worker {
	if cfg.DequeueTimeout <= 0 {
		cfg.DequeueTimeout = 5 * time.Second
	}
	if cfg.RetryAttempts < 0 {
		cfg.RetryAttempts = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}

	return &Worker{
		broker:         cfg.Broker,
		alerts:         cfg.Alerts,
		thresholds:     cfg.Thresholds,
		dequeueTimeout: cfg.DequeueTimeout,
		retryAttempts:  cfg.RetryAttempts,
		retryBackoff:   cfg.RetryBackoff,
	}
}

// Run blocks until ctx is cancelled. Cancellation is honored between
// messages only: a dequeued message is always processed to completion, since
// the queue will never redeliver it.
func (w *Worker) Run(ctx context.Context) error {
	log := logger.WithComponent("alert_worker")
	log.Info().
		Dur("dequeue_timeout", w.dequeueTimeout).
		Int("retry_attempts", w.retryAttempts).
		Msg("worker started")
	defer log.Info().Msg("worker stopped")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		payload, ok, err := w.broker.Dequeue(ctx, w.dequeueTimeout)
		metrics.WorkerDequeueDuration.Observe(time.Since(start).Seconds())

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error().Err(err).Msg("dequeue failed")
			// Avoid spinning against an unreachable queue.
			select {
			case <-time.After(w.dequeueTimeout):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		if !ok {
			// Empty poll, back to waiting.
			continue
		}

		w.process(ctx, payload)
	}
}

// process handles one message. Failures are logged, counted, and routed to
// the dead-letter sink; the message itself is never retried.
func (w *Worker) process(ctx context.Context, payload []byte) {
	log := logger.WithComponent("alert_worker")

	// The message is already removed from the queue, so finish it even if
	// shutdown starts mid-flight.
	procCtx := context.WithoutCancel(ctx)

	if err := w.handle(procCtx, payload); err != nil {
		reason := failReason(err)
		w.failed.Add(1)
		metrics.WorkerFailedTotal.WithLabelValues(string(reason)).Inc()
		log.Error().
			Err(err).
			Str("reason", string(reason)).
			Msg("message dropped")

		if dlErr := w.broker.DeadLetter(procCtx, payload); dlErr != nil {
			log.Error().Err(dlErr).Msg("dead-letter publish failed")
		}
		return
	}

	w.processed.Add(1)
	metrics.WorkerProcessedTotal.Inc()
}

func (w *Worker) handle(ctx context.Context, payload []byte) error {
	var reading models.Reading
	if err := json.Unmarshal(payload, &reading); err != nil {
		return &processError{reason: FailDecode, err: err}
	}

	alerts := evaluator.Evaluate(&reading, w.thresholds)
	for i := range alerts {
		a := &alerts[i]

		if err := w.insertWithRetry(ctx, a); err != nil {
			return err
		}
		metrics.WorkerAlertsTotal.WithLabelValues(string(a.AlertType)).Inc()

		// Persist first, then notify. The two writes are not transactional:
		// a crash in between leaves a stored alert that was never notified.
		buf, err := json.Marshal(a)
		if err != nil {
			return &processError{reason: FailNotify, err: err}
		}
		if err := w.broker.Notify(ctx, buf); err != nil {
			return &processError{reason: FailNotify, err: err}
		}
	}

	return nil
}

// insertWithRetry persists one alert, retrying transient store errors with
// linear backoff up to the configured attempt budget.
func (w *Worker) insertWithRetry(ctx context.Context, a *models.Alert) error {
	for attempt := 0; ; attempt++ {
		err := w.alerts.Insert(ctx, a)
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return &processError{reason: FailStorePermanent, err: err}
		}
		if attempt >= w.retryAttempts {
			return &processError{reason: FailStoreTransient, err: err}
		}
		metrics.WorkerRetriesTotal.Inc()

		select {
		case <-time.After(w.retryBackoff * time.Duration(attempt+1)):
		case <-ctx.Done():
			return &processError{reason: FailStoreTransient, err: ctx.Err()}
		}
	}
}

// Stats returns processed/failed message counts.
func (w *Worker) Stats() Stats {
	return Stats{
		Processed: w.processed.Load(),
		Failed:    w.failed.Load(),
	}
}

// Stats holds worker counters.
type Stats struct {
	Processed uint64
	Failed    uint64
}
