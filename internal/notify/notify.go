// Package notify implements the NotificationSink external collaborator: a
// place to publish one change-event per resource mutation. The transport
// itself is out of scope; this package provides the Redis-backed concrete
// sink this repository actually wires up.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/acoburn/trellis-rosid/internal/quad"
)

// ChangeEvent is the payload published for every resource mutation,
// following the activity-stream shape of the audit quads the engine records
// (as:Create, prov:generatedAtTime).
type ChangeEvent struct {
	Resource quad.IRI  `json:"resource"`
	Type     string    `json:"type"`
	Actor    quad.IRI  `json:"actor,omitempty"`
	At       time.Time `json:"at"`
}

// Sink is the external collaborator contract a resource service publishes
// change events to.
type Sink interface {
	Publish(ctx context.Context, ev ChangeEvent) error
}

// Redis publishes change events as JSON on a single configurable channel.
type Redis struct {
	client  *redis.Client
	channel string
}

// NewRedis wraps client, publishing to channel.
func NewRedis(client *redis.Client, channel string) *Redis {
	return &Redis{client: client, channel: channel}
}

// Publish implements Sink. A publish failure is the caller's concern to
// log; event-publish failures never roll back the write that produced them.
func (r *Redis) Publish(ctx context.Context, ev ChangeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("notify: marshal event: %w", err)
	}
	return r.client.Publish(ctx, r.channel, data).Err()
}
