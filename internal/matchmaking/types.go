// Package matchmaking pairs players into 1v1 duels through a persistent
// queue. Any number of stateless API instances can serve the same queue;
// correctness rests on the store's conditional updates, not on coordination
// between instances.
package matchmaking

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/axiomduel/platform/internal/game/problem"
	"github.com/axiomduel/platform/internal/match"
	"github.com/axiomduel/platform/internal/player"
)

// Queue entry states.
const (
	EntryWaiting = "waiting"
	EntryMatched = "matched"
)

// Join outcomes.
const (
	JoinWaiting = "waiting"
	JoinMatched = "matched"
)

// ErrDuplicateWaiting is returned by QueueStore.InsertWaiting when the
// requester already holds a waiting entry for the mode. The store enforces
// this with a partial unique index, so two concurrent joins from the same
// user cannot both enqueue.
var ErrDuplicateWaiting = errors.New("waiting entry already exists")

// Entry is one row in the matchmaking queue.
type Entry struct {
	ID        uuid.UUID    `json:"id"`
	UserID    uuid.UUID    `json:"user_id"`
	Mode      problem.Mode `json:"mode"`
	Elo       int          `json:"elo"`
	Status    string       `json:"status"`
	MatchID   *uuid.UUID   `json:"match_id,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// JoinResult is the response to a join-or-poll request.
type JoinResult struct {
	Status   string          `json:"status"`
	Match    *match.Match    `json:"match,omitempty"`
	Opponent *player.Profile `json:"opponent,omitempty"`
}
