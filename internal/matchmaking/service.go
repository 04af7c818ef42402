package matchmaking

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

// ErrProfileNotFound means the authenticated user has no player profile.
var ErrProfileNotFound = errors.New("player profile not found")

// QueueStore is the queue persistence surface. Implementations must back
// InsertWaiting with a partial unique index on (user_id, mode) WHERE
// status='waiting' and make ClaimWaiting a conditional update.
type QueueStore interface {
	// EntryForUser returns the user's most recent entry for the mode, or nil.
	EntryForUser(ctx context.Context, userID uuid.UUID, mode problem.Mode) (*Entry, error)
	// WaitingOpponent returns the earliest-enqueued waiting entry for the
	// mode within [minElo, maxElo], excluding the given user, or nil.
	WaitingOpponent(ctx context.Context, mode problem.Mode, minElo, maxElo int, exclude uuid.UUID) (*Entry, error)
	// InsertWaiting adds a waiting entry, returning ErrDuplicateWaiting when
	// the user already has one for the mode.
	InsertWaiting(ctx context.Context, e Entry) error
	// ClaimWaiting flips one entry from waiting to matched and attaches the
	// match id. Returns false when the entry is gone or no longer waiting.
	ClaimWaiting(ctx context.Context, entryID, matchID uuid.UUID) (bool, error)
	// MarkMatchedByUser is the claim retry keyed by user rather than entry
	// id, for when the waiting row was replaced between search and claim.
	MarkMatchedByUser(ctx context.Context, userID uuid.UUID, mode problem.Mode, matchID uuid.UUID) (bool, error)
	// DeleteWaiting removes the user's waiting entries. Matched entries are
	// left alone so a concurrent pairing is never lost.
	DeleteWaiting(ctx context.Context, userID uuid.UUID) error
	// DeleteAll removes every queue entry for the user.
	DeleteAll(ctx context.Context, userID uuid.UUID) error
}

// MatchStore is the match persistence surface matchmaking needs.
type MatchStore interface {
	Create(ctx context.Context, m *match.Match) error
	Get(ctx context.Context, id uuid.UUID) (*match.Match, error)
	// ActiveForPlayer returns the user's in-progress matches, newest first.
	ActiveForPlayer(ctx context.Context, userID uuid.UUID) ([]match.Match, error)
	// ExpireStaleForPlayer closes the user's in-progress matches created
	// before the cutoff.
	ExpireStaleForPlayer(ctx context.Context, userID uuid.UUID, cutoff time.Time) error
}

// ProfileStore resolves player profiles.
type ProfileStore interface {
	Get(ctx context.Context, id uuid.UUID) (*player.Profile, error)
}

// Config carries matchmaking tunables.
type Config struct {
	// EloBand is the maximum rating distance to a pairable opponent.
	EloBand int
	// StalenessWindow bounds how old a match or queue entry may be and still
	// count as live. Anything older is cleaned up lazily on the next poll.
	StalenessWindow time.Duration
}

// Service implements join-or-match semantics over the queue store. The same
// endpoint both enqueues and polls: clients call it repeatedly until they
// get a match, and every step is safe to re-run.
type Service struct {
	queue    QueueStore
	matches  MatchStore
	profiles ProfileStore
	cfg      Config
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(queue QueueStore, matches MatchStore, profiles ProfileStore, cfg Config, logger zerolog.Logger) *Service {
	return &Service{
		queue:    queue,
		matches:  matches,
		profiles: profiles,
		cfg:      cfg,
		logger:   logger.With().Str("component", "matchmaking").Logger(),
		now:      time.Now,
	}
}

// JoinOrMatch enqueues the user for the mode, or returns the match they have
// already been paired into. Clients poll this until Status is "matched".
func (s *Service) JoinOrMatch(ctx context.Context, userID uuid.UUID, mode problem.Mode) (*JoinResult, error) {
	now := s.now()
	cutoff := now.Add(-s.cfg.StalenessWindow)

	// A previous poll may already have paired us.
	entry, err := s.queue.EntryForUser(ctx, userID, mode)
	if err != nil {
		return nil, fmt.Errorf("load queue entry: %w", err)
	}
	if entry != nil && entry.Status == EntryMatched && entry.MatchID != nil {
		m, err := s.matches.Get(ctx, *entry.MatchID)
		if err != nil {
			return nil, fmt.Errorf("load matched game: %w", err)
		}
		if m != nil && m.Status == match.StatusInProgress && m.CreatedAt.After(cutoff) {
			return s.matchedResult(ctx, userID, m), nil
		}
		// The pairing went stale before we picked it up. Clear it and fall
		// through to a fresh attempt.
		if err := s.queue.DeleteAll(ctx, userID); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to clear stale matched entry")
		}
		entry = nil
	}
	if entry != nil && entry.Status == EntryWaiting && !entry.CreatedAt.After(cutoff) {
		if err := s.queue.DeleteWaiting(ctx, userID); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to clear stale waiting entry")
		}
		entry = nil
	}

	// Expire matches this user abandoned, then adopt any live one: the
	// opponent may have created it when our claim retry lost both races.
	if err := s.matches.ExpireStaleForPlayer(ctx, userID, cutoff); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("stale match cleanup failed")
	}
	active, err := s.matches.ActiveForPlayer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load active games: %w", err)
	}
	for i := range active {
		if active[i].CreatedAt.After(cutoff) {
			if err := s.queue.DeleteWaiting(ctx, userID); err != nil {
				s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to dequeue after match adoption")
			}
			return s.matchedResult(ctx, userID, &active[i]), nil
		}
	}

	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}

	opponent, err := s.queue.WaitingOpponent(ctx, mode,
		profile.EloRating-s.cfg.EloBand, profile.EloRating+s.cfg.EloBand, userID)
	if err != nil {
		return nil, fmt.Errorf("search queue: %w", err)
	}
	if opponent != nil {
		res, err := s.pairWith(ctx, profile, opponent, mode, now)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
		// The candidate evaporated mid-pairing; enqueue instead.
	}

	return s.enqueue(ctx, profile, mode, now, entry)
}

// pairWith creates a match against the waiting opponent and claims their
// queue entry. A nil, nil return means the opponent could not be paired and
// the caller should enqueue.
func (s *Service) pairWith(ctx context.Context, profile *player.Profile, opponent *Entry, mode problem.Mode, now time.Time) (*JoinResult, error) {
	oppProfile, err := s.profiles.Get(ctx, opponent.UserID)
	if err != nil {
		return nil, fmt.Errorf("load opponent profile: %w", err)
	}
	if oppProfile == nil {
		// Orphaned entry, its profile is gone. Drop it and move on.
		if err := s.queue.DeleteWaiting(ctx, opponent.UserID); err != nil {
			s.logger.Warn().Err(err).Str("user_id", opponent.UserID.String()).Msg("failed to drop orphaned queue entry")
		}
		return nil, nil
	}

	// The earlier-queued player takes slot 1. Elo is snapshotted here; the
	// completion path settles against these values.
	m := &match.Match{
		ID:               uuid.New(),
		Mode:             mode,
		Seed:             rng.NewMatchSeed(),
		Player1ID:        oppProfile.ID,
		Player2ID:        profile.ID,
		Player1EloBefore: oppProfile.EloRating,
		Player2EloBefore: profile.EloRating,
		Player1EloAfter:  oppProfile.EloRating,
		Player2EloAfter:  profile.EloRating,
		Status:           match.StatusInProgress,
		CreatedAt:        now,
	}
	if err := s.matches.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}

	claimed, err := s.queue.ClaimWaiting(ctx, opponent.ID, m.ID)
	if err != nil {
		return nil, fmt.Errorf("claim opponent entry: %w", err)
	}
	if !claimed {
		// The row we searched was replaced or claimed in between. Retry the
		// claim keyed by user; if that also misses, the opponent will adopt
		// the match from the active-games check on their next poll.
		retried, err := s.queue.MarkMatchedByUser(ctx, opponent.UserID, mode, m.ID)
		if err != nil {
			return nil, fmt.Errorf("reclaim opponent entry: %w", err)
		}
		if !retried {
			s.logger.Info().
				Str("match_id", m.ID.String()).
				Str("opponent_id", opponent.UserID.String()).
				Msg("opponent entry vanished before claim, relying on match adoption")
		}
	}

	if err := s.queue.DeleteWaiting(ctx, profile.ID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", profile.ID.String()).Msg("failed to dequeue after pairing")
	}

	s.logger.Info().
		Str("match_id", m.ID.String()).
		Str("player1_id", m.Player1ID.String()).
		Str("player2_id", m.Player2ID.String()).
		Int("elo_gap", abs(oppProfile.EloRating-profile.EloRating)).
		Str("mode", string(mode)).
		Msg("players paired")

	return &JoinResult{Status: JoinMatched, Match: m, Opponent: oppProfile}, nil
}

// enqueue ensures the user holds exactly one waiting entry for the mode.
func (s *Service) enqueue(ctx context.Context, profile *player.Profile, mode problem.Mode, now time.Time, existing *Entry) (*JoinResult, error) {
	if existing != nil && existing.Status == EntryWaiting {
		return &JoinResult{Status: JoinWaiting}, nil
	}

	err := s.queue.InsertWaiting(ctx, Entry{
		ID:        uuid.New(),
		UserID:    profile.ID,
		Mode:      mode,
		Elo:       profile.EloRating,
		Status:    EntryWaiting,
		CreatedAt: now,
	})
	if errors.Is(err, ErrDuplicateWaiting) {
		// A concurrent request either enqueued us or paired us. Report
		// whichever happened.
		entry, err := s.queue.EntryForUser(ctx, profile.ID, mode)
		if err != nil {
			return nil, fmt.Errorf("recheck queue entry: %w", err)
		}
		if entry != nil && entry.Status == EntryMatched && entry.MatchID != nil {
			m, err := s.matches.Get(ctx, *entry.MatchID)
			if err != nil {
				return nil, fmt.Errorf("load matched game: %w", err)
			}
			if m != nil {
				return s.matchedResult(ctx, profile.ID, m), nil
			}
		}
		return &JoinResult{Status: JoinWaiting}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("enqueue: %w", err)
	}
	return &JoinResult{Status: JoinWaiting}, nil
}

// Cancel removes the user's waiting entries. Safe to call when not queued.
func (s *Service) Cancel(ctx context.Context, userID uuid.UUID) error {
	if err := s.queue.DeleteWaiting(ctx, userID); err != nil {
		return fmt.Errorf("cancel queue entry: %w", err)
	}
	return nil
}

func (s *Service) matchedResult(ctx context.Context, userID uuid.UUID, m *match.Match) *JoinResult {
	res := &JoinResult{Status: JoinMatched, Match: m}
	opp, err := s.profiles.Get(ctx, m.Opponent(userID))
	if err != nil {
		s.logger.Warn().Err(err).Str("match_id", m.ID.String()).Msg("failed to load opponent profile")
		return res
	}
	res.Opponent = opp
	return res
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
