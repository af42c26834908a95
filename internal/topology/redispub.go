package topology

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher publishes Records as JSON on a Redis channel named after
// the topic, standing in for the external event log a multi-process
// deployment would fan out through.
type RedisPublisher struct {
	client *redis.Client
	prefix string
}

// NewRedisPublisher wraps an existing client; prefix namespaces channel
// names (e.g. "rosid:").
func NewRedisPublisher(client *redis.Client, prefix string) *RedisPublisher {
	return &RedisPublisher{client: client, prefix: prefix}
}

func (p *RedisPublisher) channel(topic Topic) string { return p.prefix + string(topic) }

// Publish implements Publisher.
func (p *RedisPublisher) Publish(ctx context.Context, topic Topic, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("topology: marshal record: %w", err)
	}
	return p.client.Publish(ctx, p.channel(topic), data).Err()
}

// Subscribe returns a channel of Records observed on topic, forwarding from
// a Redis pub/sub subscription until ctx is cancelled.
func (p *RedisPublisher) Subscribe(ctx context.Context, topic Topic) (<-chan Record, error) {
	sub := p.client.Subscribe(ctx, p.channel(topic))
	if _, err := sub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("topology: subscribe %s: %w", topic, err)
	}

	out := make(chan Record)
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case msg := <-ch:
				if msg == nil {
					return
				}
				var rec Record
				if err := json.Unmarshal([]byte(msg.Payload), &rec); err == nil {
					out <- rec
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
