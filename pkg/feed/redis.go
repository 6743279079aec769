package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel replicas exchange updates on.
const DefaultChannel = "traffic_lights:updates"

// RedisBus relays junction updates between replicas over Redis pub/sub.
// Nothing is stored in Redis; the channel only carries events.
type RedisBus struct {
	redis   *redis.Client
	channel string
	origin  string
	hub     *Hub
	logger  Logger
}

func NewRedisBus(redisURL, channel string, hub *Hub, logger Logger) (*RedisBus, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisBusWithClient(client, channel, hub, logger), nil
}

// NewRedisBusWithClient wraps an existing client. Each bus gets its own origin id.
func NewRedisBusWithClient(client *redis.Client, channel string, hub *Hub, logger Logger) *RedisBus {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBus{
		redis:   client,
		channel: channel,
		origin:  uuid.NewString(),
		hub:     hub,
		logger:  logger,
	}
}

// Origin identifies events published by this replica.
func (b *RedisBus) Origin() string {
	return b.origin
}

// Publish notifies local subscribers, then the other replicas.
func (b *RedisBus) Publish(ctx context.Context, e Event) error {
	e.Origin = b.origin
	b.hub.Broadcast(e)

	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.redis.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Subscribe returns once Redis has confirmed the subscription, so events
// published afterwards are not missed.
func (b *RedisBus) Subscribe(ctx context.Context) (*redis.PubSub, error) {
	ps := b.redis.Subscribe(ctx, b.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	return ps, nil
}

// Relay applies events from other replicas and rebroadcasts them locally
// until ctx is cancelled or the subscription closes.
func (b *RedisBus) Relay(ctx context.Context, ps *redis.PubSub, apply func(Event)) error {
	defer ps.Close()

	messages := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				b.logger.Error("discarding malformed event", "channel", msg.Channel, "error", err)
				continue
			}
			if e.Origin == b.origin {
				continue
			}
			if apply != nil {
				apply(e)
			}
			b.hub.Broadcast(e)
		}
	}
}

func (b *RedisBus) Close() error {
	return b.redis.Close()
}

var _ Publisher = (*RedisBus)(nil)
