package leaderboard

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/axiomduel/platform/internal/player"
)

// ProfileSource supplies profiles for ranking rebuilds.
type ProfileSource interface {
	TopByRating(ctx context.Context, limit int) ([]player.Profile, error)
}

// RebuildWorker periodically re-syncs the Redis ranking from Postgres, so a
// flushed or freshly provisioned Redis converges without manual action.
type RebuildWorker struct {
	svc      *Service
	profiles ProfileSource
	logger   zerolog.Logger
	interval time.Duration
	topN     int
}

func NewRebuildWorker(svc *Service, profiles ProfileSource, interval time.Duration, topN int, logger zerolog.Logger) *RebuildWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if topN <= 0 {
		topN = 500
	}
	return &RebuildWorker{
		svc:      svc,
		profiles: profiles,
		logger:   logger.With().Str("component", "leaderboard_rebuild_worker").Logger(),
		interval: interval,
		topN:     topN,
	}
}

// Run blocks until context cancellation.
func (w *RebuildWorker) Run(ctx context.Context) error {
	if w.svc == nil || w.profiles == nil {
		return nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// run immediately
	w.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *RebuildWorker) tick(ctx context.Context) {
	profiles, err := w.profiles.TopByRating(ctx, w.topN)
	if err != nil {
		w.logger.Warn().Err(err).Msg("ranking rebuild fetch failed")
		return
	}
	if len(profiles) == 0 {
		return
	}
	if err := w.svc.Rebuild(ctx, profiles); err != nil {
		w.logger.Warn().Err(err).Msg("ranking rebuild failed")
		return
	}
	w.logger.Debug().Int("profiles", len(profiles)).Msg("ranking re-synced from database")
}
