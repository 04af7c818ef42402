// Package events defines the per-match publish/subscribe channel the two
// duel participants use to exchange progress. Delivery is best-effort,
// at-most-once: every consumer keeps a non-channel fallback (local timers,
// lazy store polling) and must tolerate late, reordered, or missing
// messages.
package events

import (
	"context"
	"encoding/json"
)

// Event types exchanged during a duel.
const (
	TypePlayerReady     = "player_ready"
	TypeAnswerSubmitted = "answer_submitted"
	TypeGameOver        = "game_over"
)

// Event is the wire envelope. SenderID lets receivers drop their own
// messages, giving excluding-self delivery on a broadcast transport.
type Event struct {
	Type     string          `json:"type"`
	SenderID string          `json:"sender_id"`
	Payload  json.RawMessage `json:"payload"`
}

// PlayerReadyPayload announces that a participant has connected.
type PlayerReadyPayload struct {
	PlayerID string `json:"player_id"`
}

// AnswerSubmittedPayload reports one participant's progress after answering.
type AnswerSubmittedPayload struct {
	PlayerID     string `json:"player_id"`
	ProblemIndex int    `json:"problem_index"`
	Correct      bool   `json:"correct"`
	NewScore     int    `json:"new_score"`
}

// GameOverPayload carries the finishing participant's view of the result.
// The completion endpoint, not this broadcast, is the source of truth.
type GameOverPayload struct {
	Result MatchResult `json:"result"`
}

// MatchResult mirrors the persisted match outcome for broadcast.
type MatchResult struct {
	MatchID  string       `json:"match_id"`
	WinnerID *string      `json:"winner_id"`
	Player1  PlayerResult `json:"player1"`
	Player2  PlayerResult `json:"player2"`
}

// PlayerResult is one side of a MatchResult.
type PlayerResult struct {
	ID        string `json:"id"`
	Score     int    `json:"score"`
	EloBefore int    `json:"elo_before"`
	EloAfter  int    `json:"elo_after"`
	Delta     int    `json:"delta"`
}

// Channel is a per-match pub/sub topic.
type Channel interface {
	// Publish broadcasts an event to every subscriber of the match topic.
	Publish(ctx context.Context, matchID string, evt Event) error
	// Subscribe opens a subscription to the match topic. Events published
	// with SenderID == selfID are filtered out before delivery.
	Subscribe(ctx context.Context, matchID, selfID string) (Subscription, error)
}

// Subscription is a live event feed for one subscriber.
type Subscription interface {
	// Events is closed when the subscription ends.
	Events() <-chan Event
	Close() error
}

// NewEvent builds an envelope, marshaling the payload.
func NewEvent(eventType, senderID string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, SenderID: senderID, Payload: raw}, nil
}
