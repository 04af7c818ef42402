package ws

import "encoding/json"

// MessageType constants for the duel WebSocket protocol.
const (
	// Client -> Server
	TypeJoinQueue    = "join_queue"
	TypeCancelQueue  = "cancel_queue"
	TypeReadyState   = "ready_state"
	TypeSubmitAnswer = "submit_answer"
	TypeLeaveMatch   = "leave_match"
	TypePing         = "ping"

	// Server -> Client
	TypeQueueUpdate       = "queue_update"
	TypeMatchFound        = "match_found"
	TypeCountdown         = "countdown"
	TypeAnswerAck         = "answer_ack"
	TypeOpponentProgress  = "opponent_progress"
	TypeMatchComplete     = "match_complete"
	TypeLeaderboardUpdate = "leaderboard_update"
	TypeError             = "error"
	TypePong              = "pong"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	RequestID string          `json:"request_id,omitempty"`
}

// Client Messages (incoming)

type JoinQueuePayload struct {
	Mode string `json:"mode"`
}

type ReadyStatePayload struct {
	MatchID string `json:"match_id"`
}

type SubmitAnswerPayload struct {
	MatchID string `json:"match_id"`
	Answer  string `json:"answer"`
}

type LeaveMatchPayload struct {
	MatchID string `json:"match_id"`
	Reason  string `json:"reason"`
}

// Server Messages (outgoing)

type QueueUpdatePayload struct {
	Status string `json:"status"`
	Mode   string `json:"mode"`
}

// MatchFoundPayload carries everything a client needs to start playing:
// the shared seed expands into the identical problem sequence on both sides.
type MatchFoundPayload struct {
	MatchID          string `json:"match_id"`
	Mode             string `json:"mode"`
	Seed             string `json:"seed"`
	Opponent         Player `json:"opponent"`
	CountdownSeconds int    `json:"countdown_seconds"`
	DurationSeconds  int    `json:"duration_seconds"`
}

type Player struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Rating      int    `json:"rating"`
}

type CountdownPayload struct {
	MatchID string `json:"match_id"`
	Seconds int    `json:"seconds"`
}

type AnswerAckPayload struct {
	MatchID      string `json:"match_id"`
	ProblemIndex int    `json:"problem_index"`
	Correct      bool   `json:"correct"`
	Score        int    `json:"score"`
}

type OpponentProgressPayload struct {
	MatchID      string `json:"match_id"`
	ProblemIndex int    `json:"problem_index"`
	Correct      bool   `json:"correct"`
	Score        int    `json:"score"`
}

type MatchCompletePayload struct {
	MatchID  string        `json:"match_id"`
	WinnerID string        `json:"winner_id,omitempty"`
	Player1  PlayerOutcome `json:"player1"`
	Player2  PlayerOutcome `json:"player2"`
}

type PlayerOutcome struct {
	UserID    string `json:"user_id"`
	Score     int    `json:"score"`
	EloBefore int    `json:"elo_before"`
	EloAfter  int    `json:"elo_after"`
	Delta     int    `json:"delta"`
}

type LeaderboardUpdatePayload struct {
	Top []LeaderboardEntry `json:"top"`
}

type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Rating      int    `json:"rating"`
	Wins        int    `json:"wins"`
	Losses      int    `json:"losses"`
	Draws       int    `json:"draws"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
