package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sensorfleet/internal/metrics"
)

// RedisOpts configures the Redis-backed broker. Empty channel names fall
// back to the defaults.
type RedisOpts struct {
	Addr          string
	Password      string
	DB            int
	ReadingQueue  string
	NotifyChannel string
	DeadLetter    string
}

// redisBroker implements Broker on Redis lists. LPUSH appends, BRPOP pops
// the oldest entry; BRPOP hands each entry to exactly one blocked client,
// which is the only mutual exclusion the pipeline relies on.
type redisBroker struct {
	rdb    *redis.Client
	queue  string
	notify string
	dead   string
}

// NewRedis connects a Broker to Redis at the given address.
func NewRedis(o RedisOpts) Broker {
	rdb := redis.NewClient(&redis.Options{
		Addr:     o.Addr,
		Password: o.Password,
		DB:       o.DB,
	})
	return &redisBroker{
		rdb:    rdb,
		queue:  firstNonEmpty(o.ReadingQueue, DefaultReadingQueue),
		notify: firstNonEmpty(o.NotifyChannel, DefaultNotifyChannel),
		dead:   firstNonEmpty(o.DeadLetter, DefaultDeadLetter),
	}
}

func (b *redisBroker) Enqueue(ctx context.Context, payload []byte) error {
	if err := b.rdb.LPush(ctx, b.queue, payload).Err(); err != nil {
		metrics.QueuePublishTotal.WithLabelValues(b.queue, "failed").Inc()
		return fmt.Errorf("enqueue on %s: %w", b.queue, err)
	}
	metrics.QueuePublishTotal.WithLabelValues(b.queue, "success").Inc()
	return nil
}

func (b *redisBroker) Dequeue(ctx context.Context, timeout time.Duration) ([]byte, bool, error) {
	res, err := b.rdb.BRPop(ctx, timeout, b.queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Timeout with the queue empty.
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("dequeue from %s: %w", b.queue, err)
	}
	// BRPop returns [key, value].
	if len(res) != 2 {
		return nil, false, fmt.Errorf("dequeue from %s: unexpected reply length %d", b.queue, len(res))
	}
	return []byte(res[1]), true, nil
}

func (b *redisBroker) Notify(ctx context.Context, payload []byte) error {
	if err := b.rdb.LPush(ctx, b.notify, payload).Err(); err != nil {
		metrics.QueuePublishTotal.WithLabelValues(b.notify, "failed").Inc()
		return fmt.Errorf("notify on %s: %w", b.notify, err)
	}
	metrics.QueuePublishTotal.WithLabelValues(b.notify, "success").Inc()
	return nil
}

func (b *redisBroker) DeadLetter(ctx context.Context, payload []byte) error {
	if err := b.rdb.LPush(ctx, b.dead, payload).Err(); err != nil {
		metrics.QueuePublishTotal.WithLabelValues(b.dead, "failed").Inc()
		return fmt.Errorf("dead-letter on %s: %w", b.dead, err)
	}
	metrics.QueuePublishTotal.WithLabelValues(b.dead, "success").Inc()
	return nil
}

func (b *redisBroker) Close() error {
	return b.rdb.Close()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
