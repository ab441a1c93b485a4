package queue

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Broker used by tests and local development. It
// keeps the same delivery semantics as the Redis broker: FIFO order, one
// consumer per message, no redelivery.
type Memory struct {
	messages chan []byte

	mu       sync.Mutex
	notified [][]byte
	dead     [][]byte
	closed   bool
}

// NewMemory creates an in-memory broker with the given queue capacity.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Memory{messages: make(chan []byte, capacity)}
}

func (m *Memory) Enqueue(ctx context.Context, payload []byte) error {
	select {
	case m.messages <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Memory) Dequeue(ctx context.Context, timeout time.Duration) ([]byte, bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case payload := <-m.messages:
		return payload, true, nil
	case <-timer.C:
		return nil, false, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

func (m *Memory) Notify(ctx context.Context, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notified = append(m.notified, payload)
	return nil
}

func (m *Memory) DeadLetter(ctx context.Context, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dead = append(m.dead, payload)
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Notified returns a copy of everything published on the notification
// channel so far.
func (m *Memory) Notified() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.notified))
	copy(out, m.notified)
	return out
}

// DeadLettered returns a copy of everything routed to the dead-letter sink.
func (m *Memory) DeadLettered() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.dead))
	copy(out, m.dead)
	return out
}
