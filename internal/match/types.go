package match

import (
	"time"

	"github.com/google/uuid"

	"github.com/axiomduel/platform/internal/events"
	"github.com/axiomduel/platform/internal/game/problem"
)

// Match status lifecycle states.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Match is the persistent record of a 1v1 duel. The Elo snapshots taken at
// creation time are the inputs to rating calculation, regardless of what the
// profiles say by the time the match completes.
type Match struct {
	ID               uuid.UUID    `json:"id"`
	Mode             problem.Mode `json:"mode"`
	Seed             string       `json:"seed"`
	Player1ID        uuid.UUID    `json:"player1_id"`
	Player2ID        uuid.UUID    `json:"player2_id"`
	Player1EloBefore int          `json:"player1_elo_before"`
	Player2EloBefore int          `json:"player2_elo_before"`
	Player1EloAfter  int          `json:"player1_elo_after"`
	Player2EloAfter  int          `json:"player2_elo_after"`
	Player1Score     int          `json:"player1_score"`
	Player2Score     int          `json:"player2_score"`
	WinnerID         *uuid.UUID   `json:"winner_id,omitempty"`
	Status           string       `json:"status"`
	CreatedAt        time.Time    `json:"created_at"`
	CompletedAt      *time.Time   `json:"completed_at,omitempty"`
}

// Participant reports whether userID plays in this match.
func (m *Match) Participant(userID uuid.UUID) bool {
	return m.Player1ID == userID || m.Player2ID == userID
}

// Opponent returns the other player's id. Callers must check Participant
// first.
func (m *Match) Opponent(userID uuid.UUID) uuid.UUID {
	if m.Player1ID == userID {
		return m.Player2ID
	}
	return m.Player1ID
}

// CompletionStatus distinguishes the request that actually finalized the
// match from idempotent repeats.
type CompletionStatus string

const (
	CompletionApplied          CompletionStatus = "completed"
	CompletionAlreadyCompleted CompletionStatus = "already_completed"
)

// PlayerOutcome is one player's side of a completed match.
type PlayerOutcome struct {
	ID        uuid.UUID `json:"id"`
	Score     int       `json:"score"`
	EloBefore int       `json:"elo_before"`
	EloAfter  int       `json:"elo_after"`
	Delta     int       `json:"delta"`
}

// Result is the finalized outcome of a match.
type Result struct {
	Status   CompletionStatus `json:"status"`
	MatchID  uuid.UUID        `json:"match_id"`
	WinnerID *uuid.UUID       `json:"winner_id,omitempty"`
	Player1  PlayerOutcome    `json:"player1"`
	Player2  PlayerOutcome    `json:"player2"`
}

// Broadcast converts the result into its event-channel representation.
func (r *Result) Broadcast() events.MatchResult {
	var winner *string
	if r.WinnerID != nil {
		w := r.WinnerID.String()
		winner = &w
	}
	return events.MatchResult{
		MatchID:  r.MatchID.String(),
		WinnerID: winner,
		Player1:  playerResultEvent(r.Player1),
		Player2:  playerResultEvent(r.Player2),
	}
}

func playerResultEvent(o PlayerOutcome) events.PlayerResult {
	return events.PlayerResult{
		ID:        o.ID.String(),
		Score:     o.Score,
		EloBefore: o.EloBefore,
		EloAfter:  o.EloAfter,
		Delta:     o.Delta,
	}
}
