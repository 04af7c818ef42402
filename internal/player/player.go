// Package player holds the persistent player profile shared by the
// matchmaking, match and leaderboard services.
package player

import (
	"time"

	"github.com/google/uuid"
)

// StartingRating is assigned to newly created profiles.
const StartingRating = 800

// Profile is a player's persistent record. EloRating is the matchmaking
// rating; the win/loss/draw counters are lifetime totals.
type Profile struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	EloRating   int       `json:"elo_rating"`
	TotalWins   int       `json:"total_wins"`
	TotalLosses int       `json:"total_losses"`
	TotalDraws  int       `json:"total_draws"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
