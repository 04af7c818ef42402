package challenge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/axiomduel/platform/internal/game/problem"
	"github.com/axiomduel/platform/internal/game/rng"
	"github.com/axiomduel/platform/internal/match"
	"github.com/axiomduel/platform/internal/player"
)

// Service errors.
var (
	ErrNotFound         = errors.New("challenge not found")
	ErrOpponentNotFound = errors.New("opponent not found")
	ErrSelfChallenge    = errors.New("cannot challenge yourself")
	ErrNotChallenged    = errors.New("challenge is addressed to another player")
	ErrNotPending       = errors.New("challenge is no longer pending")
)

// Store is the challenge persistence surface.
type Store interface {
	Insert(ctx context.Context, c Challenge) error
	Get(ctx context.Context, id uuid.UUID) (*Challenge, error)
	// Settle conditionally moves a pending challenge to the given status,
	// optionally attaching a match. Returns false when the challenge is no
	// longer pending.
	Settle(ctx context.Context, id uuid.UUID, status string, matchID *uuid.UUID) (bool, error)
	// PendingFor lists live challenges addressed to the user.
	PendingFor(ctx context.Context, userID uuid.UUID, cutoff time.Time) ([]Challenge, error)
	// ExpireBefore lazily marks old pending challenges expired.
	ExpireBefore(ctx context.Context, cutoff time.Time) error
}

// ProfileStore resolves player profiles.
type ProfileStore interface {
	Get(ctx context.Context, id uuid.UUID) (*player.Profile, error)
	FindByDisplayName(ctx context.Context, name string) (*player.Profile, error)
}

// MatchStore creates matches from accepted challenges.
type MatchStore interface {
	Create(ctx context.Context, m *match.Match) error
}

// Config carries challenge tunables.
type Config struct {
	// TTL bounds how long an unanswered challenge stays acceptable.
	TTL time.Duration
}

// Service manages the challenge lifecycle. Acceptance uses the same
// conditional-update discipline as the queue: a challenge settles exactly
// once no matter how many accept or decline requests race.
type Service struct {
	store    Store
	profiles ProfileStore
	matches  MatchStore
	cfg      Config
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(store Store, profiles ProfileStore, matches MatchStore, cfg Config, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		profiles: profiles,
		matches:  matches,
		cfg:      cfg,
		logger:   logger.With().Str("component", "challenge").Logger(),
		now:      time.Now,
	}
}

// Create issues a challenge to the player using the given display name.
func (s *Service) Create(ctx context.Context, challengerID uuid.UUID, opponentName string, mode problem.Mode) (*Challenge, error) {
	opponent, err := s.profiles.FindByDisplayName(ctx, opponentName)
	if err != nil {
		return nil, fmt.Errorf("resolve opponent: %w", err)
	}
	if opponent == nil {
		return nil, ErrOpponentNotFound
	}
	if opponent.ID == challengerID {
		return nil, ErrSelfChallenge
	}

	c := Challenge{
		ID:           uuid.New(),
		ChallengerID: challengerID,
		ChallengedID: opponent.ID,
		Mode:         mode,
		Status:       StatusPending,
		CreatedAt:    s.now(),
	}
	if err := s.store.Insert(ctx, c); err != nil {
		return nil, fmt.Errorf("create challenge: %w", err)
	}

	s.logger.Info().
		Str("challenge_id", c.ID.String()).
		Str("challenger_id", challengerID.String()).
		Str("challenged_id", opponent.ID.String()).
		Str("mode", string(mode)).
		Msg("challenge created")
	return &c, nil
}

// Accept settles a pending challenge and creates the match. Only the
// challenged player may accept.
func (s *Service) Accept(ctx context.Context, challengeID, userID uuid.UUID) (*match.Match, error) {
	c, err := s.store.Get(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("load challenge: %w", err)
	}
	if c == nil {
		return nil, ErrNotFound
	}
	if c.ChallengedID != userID {
		return nil, ErrNotChallenged
	}
	if c.Status != StatusPending || s.now().Sub(c.CreatedAt) > s.cfg.TTL {
		return nil, ErrNotPending
	}

	challenger, err := s.profiles.Get(ctx, c.ChallengerID)
	if err != nil {
		return nil, fmt.Errorf("load challenger profile: %w", err)
	}
	challenged, err := s.profiles.Get(ctx, c.ChallengedID)
	if err != nil {
		return nil, fmt.Errorf("load challenged profile: %w", err)
	}
	if challenger == nil || challenged == nil {
		return nil, ErrNotPending
	}

	m := &match.Match{
		ID:               uuid.New(),
		Mode:             c.Mode,
		Seed:             rng.NewMatchSeed(),
		Player1ID:        challenger.ID,
		Player2ID:        challenged.ID,
		Player1EloBefore: challenger.EloRating,
		Player2EloBefore: challenged.EloRating,
		Player1EloAfter:  challenger.EloRating,
		Player2EloAfter:  challenged.EloRating,
		Status:           match.StatusInProgress,
		CreatedAt:        s.now(),
	}
	if err := s.matches.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}

	settled, err := s.store.Settle(ctx, challengeID, StatusAccepted, &m.ID)
	if err != nil {
		return nil, fmt.Errorf("settle challenge: %w", err)
	}
	if !settled {
		// A concurrent accept won; surface its match instead of ours.
		c, err = s.store.Get(ctx, challengeID)
		if err == nil && c != nil && c.MatchID != nil {
			s.logger.Info().Str("challenge_id", challengeID.String()).Msg("challenge accepted concurrently")
			return nil, ErrNotPending
		}
		return nil, ErrNotPending
	}

	s.logger.Info().
		Str("challenge_id", challengeID.String()).
		Str("match_id", m.ID.String()).
		Msg("challenge accepted")
	return m, nil
}

// Decline settles a pending challenge without creating a match.
func (s *Service) Decline(ctx context.Context, challengeID, userID uuid.UUID) error {
	c, err := s.store.Get(ctx, challengeID)
	if err != nil {
		return fmt.Errorf("load challenge: %w", err)
	}
	if c == nil {
		return ErrNotFound
	}
	if c.ChallengedID != userID {
		return ErrNotChallenged
	}
	settled, err := s.store.Settle(ctx, challengeID, StatusDeclined, nil)
	if err != nil {
		return fmt.Errorf("settle challenge: %w", err)
	}
	if !settled {
		return ErrNotPending
	}
	return nil
}

// PendingFor lists live challenges addressed to the user, expiring old ones
// lazily the way the queue handles stale entries.
func (s *Service) PendingFor(ctx context.Context, userID uuid.UUID) ([]Challenge, error) {
	cutoff := s.now().Add(-s.cfg.TTL)
	if err := s.store.ExpireBefore(ctx, cutoff); err != nil {
		s.logger.Warn().Err(err).Msg("challenge expiry sweep failed")
	}
	list, err := s.store.PendingFor(ctx, userID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	return list, nil
}
