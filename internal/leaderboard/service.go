// Package leaderboard maintains the live Elo ranking in Redis. Postgres
// profiles remain the source of truth; the sorted set is a read model that
// can be rebuilt from them at any time.
package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/axiomduel/platform/internal/player"
)

// Entry is one ranked row sent to clients.
type Entry struct {
	Rank        int       `json:"rank"`
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Rating      int       `json:"rating"`
	Wins        int       `json:"wins"`
	Losses      int       `json:"losses"`
	Draws       int       `json:"draws"`
}

// Update is the pub/sub payload emitted after a rating change.
type Update struct {
	Top []Entry `json:"top"`
}

// ServiceOptions configures the ranking service.
type ServiceOptions struct {
	TopN           int
	PubSubChannel  string
	RedisKeyPrefix string
}

// Service keeps the Elo ranking in a Redis sorted set and emits updates
// over Pub/Sub after each recorded result.
type Service struct {
	redis         *redis.Client
	logger        zerolog.Logger
	topN          int
	pubsubChannel string
	prefix        string
}

func NewService(redis *redis.Client, logger zerolog.Logger, opts ServiceOptions) *Service {
	topN := opts.TopN
	if topN <= 0 {
		topN = 50
	}
	channel := opts.PubSubChannel
	if channel == "" {
		channel = "lb:updates"
	}
	prefix := opts.RedisKeyPrefix
	if prefix == "" {
		prefix = "lb"
	}
	return &Service{
		redis:         redis,
		logger:        logger.With().Str("component", "leaderboard").Logger(),
		topN:          topN,
		pubsubChannel: channel,
		prefix:        prefix,
	}
}

// RecordResult writes a player's post-match profile into the ranking.
// Ratings are absolute, so the write is idempotent: replaying the same
// profile leaves the set unchanged.
func (s *Service) RecordResult(ctx context.Context, profile player.Profile) error {
	if err := s.record(ctx, profile); err != nil {
		return err
	}
	go s.publishUpdate(context.Background())
	return nil
}

func (s *Service) record(ctx context.Context, profile player.Profile) error {
	pipe := s.redis.TxPipeline()
	pipe.ZAdd(ctx, s.rankingKey(), redis.Z{
		Score:  float64(profile.EloRating),
		Member: profile.ID.String(),
	})
	pipe.HSet(ctx, s.metaKey(profile.ID), map[string]interface{}{
		"display_name": profile.DisplayName,
		"wins":         profile.TotalWins,
		"losses":       profile.TotalLosses,
		"draws":        profile.TotalDraws,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record rating for %s: %w", profile.ID, err)
	}
	return nil
}

// Rebuild replaces the ranking with the given profiles. Used to recover
// after Redis data loss.
func (s *Service) Rebuild(ctx context.Context, profiles []player.Profile) error {
	for _, p := range profiles {
		if err := s.record(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Top returns the highest-rated players, best first.
func (s *Service) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > s.topN {
		limit = s.topN
	}

	results, err := s.redis.ZRevRangeWithScores(ctx, s.rankingKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch ranking: %w", err)
	}

	entries := make([]Entry, 0, len(results))
	for i, z := range results {
		member, _ := z.Member.(string)
		userID, err := uuid.Parse(member)
		if err != nil {
			s.logger.Warn().Str("member", member).Msg("skipping malformed ranking member")
			continue
		}
		entry, err := s.readMeta(ctx, userID)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to read ranking metadata")
			continue
		}
		entry.Rank = i + 1
		entry.Rating = int(z.Score)
		entries = append(entries, *entry)
	}
	return entries, nil
}

// Rank returns a player's 1-based position, or 0 when unranked.
func (s *Service) Rank(ctx context.Context, userID uuid.UUID) (int, error) {
	rank, err := s.redis.ZRevRank(ctx, s.rankingKey(), userID.String()).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("fetch rank: %w", err)
	}
	return int(rank) + 1, nil
}

func (s *Service) publishUpdate(ctx context.Context) {
	entries, err := s.Top(ctx, 10)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to collect ranking update")
		return
	}
	if len(entries) == 0 {
		return
	}
	data, err := json.Marshal(Update{Top: entries})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal ranking update")
		return
	}
	if err := s.redis.Publish(ctx, s.pubsubChannel, data).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish ranking update")
	}
}

func (s *Service) readMeta(ctx context.Context, userID uuid.UUID) (*Entry, error) {
	data, err := s.redis.HGetAll(ctx, s.metaKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	entry := &Entry{UserID: userID}
	if len(data) == 0 {
		return entry, nil
	}
	entry.DisplayName = data["display_name"]
	entry.Wins = parseInt(data["wins"])
	entry.Losses = parseInt(data["losses"])
	entry.Draws = parseInt(data["draws"])
	return entry, nil
}

func (s *Service) rankingKey() string {
	return fmt.Sprintf("%s:elo", s.prefix)
}

func (s *Service) metaKey(userID uuid.UUID) string {
	return fmt.Sprintf("%s:meta:%s", s.prefix, userID.String())
}

func parseInt(val string) int {
	if val == "" {
		return 0
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return i
}
