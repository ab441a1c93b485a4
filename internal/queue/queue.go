// Package queue provides the named FIFO channels the pipeline runs on: the
// pending-reading work queue, the alert notification channel, and the
// dead-letter sink for messages the worker gave up on.
package queue

import (
	"context"
	"time"
)

// Default channel names.
const (
	DefaultReadingQueue  = "sensor_queue"
	DefaultNotifyChannel = "alert_notifications"
	DefaultDeadLetter    = "sensor_queue_dead"
)

// Broker is the transport between the ingestion gateway and the alert
// worker. Enqueue is at-least-once from the producer side; Dequeue removes
// the message with no acknowledgment or redelivery, so the consumer side is
// at-most-once. Two concurrent Dequeue calls never receive the same message.
type Broker interface {
	// Enqueue appends a serialized reading to the work queue.
	Enqueue(ctx context.Context, payload []byte) error

	// Dequeue blocks for up to timeout waiting for a message. It returns
	// ok=false with a nil error when the timeout elapses with the queue
	// empty; that is a liveness poll, not a failure.
	Dequeue(ctx context.Context, timeout time.Duration) (payload []byte, ok bool, err error)

	// Notify publishes a serialized alert for downstream consumers.
	Notify(ctx context.Context, payload []byte) error

	// DeadLetter records a message the worker failed to process so it can
	// be inspected instead of destroyed.
	DeadLetter(ctx context.Context, payload []byte) error

	Close() error
}
