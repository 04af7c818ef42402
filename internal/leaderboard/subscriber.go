package leaderboard

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	ws "github.com/axiomduel/platform/pkg/http/ws"
)

// Broadcaster listens for Redis Pub/Sub ranking updates and forwards them
// to every connected client.
type Broadcaster struct {
	redis   *redis.Client
	hub     *ws.Hub
	channel string
	logger  zerolog.Logger
}

func NewBroadcaster(redis *redis.Client, hub *ws.Hub, channel string, logger zerolog.Logger) *Broadcaster {
	if channel == "" {
		channel = "lb:updates"
	}
	return &Broadcaster{
		redis:   redis,
		hub:     hub,
		channel: channel,
		logger:  logger.With().Str("component", "leaderboard_broadcaster").Logger(),
	}
}

// Run subscribes to the update channel and blocks until the context is cancelled.
func (b *Broadcaster) Run(ctx context.Context) error {
	if b.redis == nil || b.hub == nil {
		return nil
	}

	sub := b.redis.Subscribe(ctx, b.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.forward(msg.Payload)
		}
	}
}

func (b *Broadcaster) forward(payload string) {
	var update Update
	if err := json.Unmarshal([]byte(payload), &update); err != nil {
		b.logger.Warn().Err(err).Msg("failed to decode ranking update payload")
		return
	}

	entries := make([]ws.LeaderboardEntry, len(update.Top))
	for i, e := range update.Top {
		entries[i] = ws.LeaderboardEntry{
			Rank:        e.Rank,
			UserID:      e.UserID.String(),
			DisplayName: e.DisplayName,
			Rating:      e.Rating,
			Wins:        e.Wins,
			Losses:      e.Losses,
			Draws:       e.Draws,
		}
	}

	raw, err := json.Marshal(ws.LeaderboardUpdatePayload{Top: entries})
	if err != nil {
		b.logger.Warn().Err(err).Msg("failed to marshal ranking update")
		return
	}

	if err := b.hub.BroadcastAll(ws.Message{Type: ws.TypeLeaderboardUpdate, Payload: raw}); err != nil {
		b.logger.Warn().Err(err).Msg("failed to broadcast ranking update")
	}
}
