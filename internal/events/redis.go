package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisChannel implements Channel on Redis pub/sub. One Redis channel per
// match keeps fan-out bounded to the two participants plus any spectating
// gateway instances.
type RedisChannel struct {
	client *redis.Client
	prefix string
	logger zerolog.Logger
}

// NewRedisChannel creates a Redis-backed event channel. Topics are named
// "<prefix>:<matchID>".
func NewRedisChannel(client *redis.Client, prefix string, logger zerolog.Logger) *RedisChannel {
	if prefix == "" {
		prefix = "duel:events"
	}
	return &RedisChannel{
		client: client,
		prefix: prefix,
		logger: logger.With().Str("component", "events_redis").Logger(),
	}
}

func (c *RedisChannel) topic(matchID string) string {
	return fmt.Sprintf("%s:%s", c.prefix, matchID)
}

func (c *RedisChannel) Publish(ctx context.Context, matchID string, evt Event) error {
	raw, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := c.client.Publish(ctx, c.topic(matchID), raw).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

func (c *RedisChannel) Subscribe(ctx context.Context, matchID, selfID string) (Subscription, error) {
	pubsub := c.client.Subscribe(ctx, c.topic(matchID))
	// Force the subscription handshake so a failed connection surfaces here
	// rather than as a silent empty feed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe to match events: %w", err)
	}

	sub := &redisSubscription{
		pubsub: pubsub,
		events: make(chan Event, 16),
	}
	go sub.pump(c.logger.With().Str("match_id", matchID).Logger(), selfID)
	return sub, nil
}

type redisSubscription struct {
	pubsub *redis.PubSub
	events chan Event
}

func (s *redisSubscription) pump(logger zerolog.Logger, selfID string) {
	defer close(s.events)
	for msg := range s.pubsub.Channel() {
		var evt Event
		if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
			logger.Warn().Err(err).Msg("dropping malformed match event")
			continue
		}
		if evt.SenderID == selfID {
			continue
		}
		select {
		case s.events <- evt:
		default:
			// Slow consumer. Drop rather than stall the pump; the protocol
			// tolerates lost messages.
			logger.Warn().Str("event_type", evt.Type).Msg("subscriber buffer full, dropping event")
		}
	}
}

func (s *redisSubscription) Events() <-chan Event { return s.events }

func (s *redisSubscription) Close() error { return s.pubsub.Close() }
