package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryFIFO(t *testing.T) {
	m := NewMemory(10)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := m.Enqueue(ctx, []byte(fmt.Sprintf("msg-%d", i))); err != nil {
			t.Fatalf("enqueue failed: %v", err)
		}
	}

	for i := 0; i < 3; i++ {
		payload, ok, err := m.Dequeue(ctx, time.Second)
		if err != nil || !ok {
			t.Fatalf("dequeue %d: ok=%v err=%v", i, ok, err)
		}
		if want := fmt.Sprintf("msg-%d", i); string(payload) != want {
			t.Errorf("expected %s, got %s", want, payload)
		}
	}
}

func TestMemoryDequeueTimeout(t *testing.T) {
	m := NewMemory(10)

	start := time.Now()
	payload, ok, err := m.Dequeue(context.Background(), 50*time.Millisecond)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("timeout must not be an error, got %v", err)
	}
	if ok || payload != nil {
		t.Errorf("expected empty result, got ok=%v payload=%q", ok, payload)
	}
	if elapsed < 50*time.Millisecond {
		t.Errorf("returned before timeout elapsed: %v", elapsed)
	}
}

func TestMemoryDequeueCancellation(t *testing.T) {
	m := NewMemory(10)
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, ok, err := m.Dequeue(ctx, 5*time.Second)
	if ok {
		t.Error("cancelled dequeue must not deliver a message")
	}
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// Each enqueued message must be claimed by exactly one of the concurrent
// consumers, never zero and never more than one.
func TestMemoryConcurrentDequeueExactlyOnce(t *testing.T) {
	const (
		workers  = 8
		messages = 200
	)

	m := NewMemory(messages)
	ctx := context.Background()

	for i := 0; i < messages; i++ {
		if err := m.Enqueue(ctx, []byte(fmt.Sprintf("msg-%d", i))); err != nil {
			t.Fatalf("enqueue failed: %v", err)
		}
	}

	var (
		mu       sync.Mutex
		received = make(map[string]int)
		wg       sync.WaitGroup
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				payload, ok, err := m.Dequeue(ctx, 50*time.Millisecond)
				if err != nil {
					t.Errorf("dequeue error: %v", err)
					return
				}
				if !ok {
					return
				}
				mu.Lock()
				received[string(payload)]++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	if len(received) != messages {
		t.Fatalf("expected %d distinct messages delivered, got %d", messages, len(received))
	}
	for msg, count := range received {
		if count != 1 {
			t.Errorf("message %s delivered %d times", msg, count)
		}
	}
}
