package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/axiomduel/platform/internal/game/elo"
	"github.com/axiomduel/platform/internal/player"
)

// Service errors surfaced to transport handlers.
var (
	ErrMatchNotFound  = errors.New("match not found")
	ErrNotParticipant = errors.New("user is not a participant in this match")
)

// Store is the persistence surface the completion path needs.
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (*Match, error)
	// CompleteGuarded finalizes the match only if it is still in progress.
	// Returns false when another request already completed it.
	CompleteGuarded(ctx context.Context, params CompleteParams) (bool, error)
}

// CompleteParams is the guarded-update payload for finalizing a match.
type CompleteParams struct {
	MatchID         uuid.UUID
	Player1Score    int
	Player2Score    int
	Player1EloAfter int
	Player2EloAfter int
	WinnerID        *uuid.UUID
	CompletedAt     time.Time
}

// ProfileStore applies rating and counter updates to player profiles.
type ProfileStore interface {
	Get(ctx context.Context, id uuid.UUID) (*player.Profile, error)
	// ApplyMatchResult sets the new rating and increments exactly one of the
	// win/loss/draw counters.
	ApplyMatchResult(ctx context.Context, id uuid.UUID, newRating, wins, losses, draws int) error
}

// Recorder pushes completed results into the live leaderboard. Failures are
// logged, never surfaced: the database remains the source of truth.
type Recorder interface {
	RecordResult(ctx context.Context, profile player.Profile) error
}

// Service finalizes matches: it resolves the winner, applies Elo, and
// updates profile counters. The guarded status transition makes completion
// exactly-once under concurrent submission from both players.
type Service struct {
	matches     Store
	profiles    ProfileStore
	calc        *elo.Calculator
	leaderboard Recorder
	logger      zerolog.Logger
}

// NewService creates a completion service. leaderboard may be nil.
func NewService(matches Store, profiles ProfileStore, calc *elo.Calculator, leaderboard Recorder, logger zerolog.Logger) *Service {
	return &Service{
		matches:     matches,
		profiles:    profiles,
		calc:        calc,
		leaderboard: leaderboard,
		logger:      logger.With().Str("component", "match_service").Logger(),
	}
}

// Get fetches a match by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Match, error) {
	m, err := s.matches.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get match: %w", err)
	}
	if m == nil {
		return nil, ErrMatchNotFound
	}
	return m, nil
}

// Complete finalizes a match on behalf of callerID, reporting the caller's
// own score and the opponent score as the caller observed it. Both players
// race to call this; the first guarded update wins and every later call
// returns the already-persisted result.
func (s *Service) Complete(ctx context.Context, matchID, callerID uuid.UUID, myScore, opponentScore int) (*Result, error) {
	m, err := s.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !m.Participant(callerID) {
		return nil, ErrNotParticipant
	}
	if m.Status == StatusCompleted {
		return resultFrom(m, CompletionAlreadyCompleted), nil
	}

	// Orient the reported scores onto the persistent player slots.
	p1Score, p2Score := myScore, opponentScore
	if callerID == m.Player2ID {
		p1Score, p2Score = opponentScore, myScore
	}

	var winnerID *uuid.UUID
	outcomeA := elo.ScoreDraw
	switch {
	case p1Score > p2Score:
		winnerID = &m.Player1ID
		outcomeA = elo.ScoreWin
	case p2Score > p1Score:
		winnerID = &m.Player2ID
		outcomeA = elo.ScoreLoss
	}

	// Ratings always derive from the snapshots taken at match creation.
	rating := s.calc.Calculate(m.Player1EloBefore, m.Player2EloBefore, outcomeA)

	applied, err := s.matches.CompleteGuarded(ctx, CompleteParams{
		MatchID:         matchID,
		Player1Score:    p1Score,
		Player2Score:    p2Score,
		Player1EloAfter: rating.NewRatingA,
		Player2EloAfter: rating.NewRatingB,
		WinnerID:        winnerID,
		CompletedAt:     time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("complete match: %w", err)
	}
	if !applied {
		// Lost the race: reload and echo the winner's outcome.
		m, err = s.Get(ctx, matchID)
		if err != nil {
			return nil, err
		}
		return resultFrom(m, CompletionAlreadyCompleted), nil
	}

	s.logger.Info().
		Str("match_id", matchID.String()).
		Str("completed_by", callerID.String()).
		Int("player1_score", p1Score).
		Int("player2_score", p2Score).
		Int("player1_delta", rating.DeltaA).
		Int("player2_delta", rating.DeltaB).
		Msg("match completed")

	s.applyProfileUpdate(ctx, m.Player1ID, rating.NewRatingA, winnerID)
	s.applyProfileUpdate(ctx, m.Player2ID, rating.NewRatingB, winnerID)

	m.Player1Score = p1Score
	m.Player2Score = p2Score
	m.Player1EloAfter = rating.NewRatingA
	m.Player2EloAfter = rating.NewRatingB
	m.WinnerID = winnerID
	m.Status = StatusCompleted
	return resultFrom(m, CompletionApplied), nil
}

// applyProfileUpdate bumps one player's rating and counters. Updates run
// once per player with a single retry; a persistent failure is logged and
// swallowed so a profile hiccup cannot roll back a completed match.
func (s *Service) applyProfileUpdate(ctx context.Context, userID uuid.UUID, newRating int, winnerID *uuid.UUID) {
	wins, losses, draws := 0, 0, 0
	switch {
	case winnerID == nil:
		draws = 1
	case *winnerID == userID:
		wins = 1
	default:
		losses = 1
	}

	var err error
	for attempt := 0; attempt < 2; attempt++ {
		if err = s.profiles.ApplyMatchResult(ctx, userID, newRating, wins, losses, draws); err == nil {
			break
		}
	}
	if err != nil {
		s.logger.Error().Err(err).
			Str("user_id", userID.String()).
			Int("new_rating", newRating).
			Msg("profile update failed after retry")
		return
	}

	if s.leaderboard == nil {
		return
	}
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil || profile == nil {
		s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("skipping leaderboard record, profile unavailable")
		return
	}
	if err := s.leaderboard.RecordResult(ctx, *profile); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to record leaderboard result")
	}
}

func resultFrom(m *Match, status CompletionStatus) *Result {
	return &Result{
		Status:   status,
		MatchID:  m.ID,
		WinnerID: m.WinnerID,
		Player1: PlayerOutcome{
			ID:        m.Player1ID,
			Score:     m.Player1Score,
			EloBefore: m.Player1EloBefore,
			EloAfter:  m.Player1EloAfter,
			Delta:     m.Player1EloAfter - m.Player1EloBefore,
		},
		Player2: PlayerOutcome{
			ID:        m.Player2ID,
			Score:     m.Player2Score,
			EloBefore: m.Player2EloBefore,
			EloAfter:  m.Player2EloAfter,
			Delta:     m.Player2EloAfter - m.Player2EloBefore,
		},
	}
}
