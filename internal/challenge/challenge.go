// Package challenge implements direct duel invitations: one player names an
// opponent, the opponent accepts, and a match is created outside the
// anonymous queue.
package challenge

import (
	"time"

	"github.com/google/uuid"

	"github.com/axiomduel/platform/internal/game/problem"
)

// Challenge states.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusDeclined = "declined"
	StatusExpired  = "expired"
)

// Challenge is a pending or settled duel invitation.
type Challenge struct {
	ID           uuid.UUID    `json:"id"`
	ChallengerID uuid.UUID    `json:"challenger_id"`
	ChallengedID uuid.UUID    `json:"challenged_id"`
	Mode         problem.Mode `json:"mode"`
	Status       string       `json:"status"`
	MatchID      *uuid.UUID   `json:"match_id,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}
