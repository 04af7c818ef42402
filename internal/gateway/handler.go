// Package gateway is the WebSocket front door for live duels. It routes
// client frames to the matchmaking service and to per-user match
// controllers, and pushes controller output back down the socket.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/axiomduel/platform/internal/events"
	"github.com/axiomduel/platform/internal/game/problem"
	"github.com/axiomduel/platform/internal/match"
	"github.com/axiomduel/platform/internal/matchmaking"
	httperrors "github.com/axiomduel/platform/pkg/http/errors"
	ws "github.com/axiomduel/platform/pkg/http/ws"
)

// Config carries the controller timings and problem budget the gateway
// hands to every new session.
type Config struct {
	Controller       match.ControllerConfig
	ProblemsPerMatch int
}

// Handler owns the per-user duel sessions on this instance.
type Handler struct {
	queue   *matchmaking.Service
	matches *match.Service
	channel events.Channel
	hub     *ws.Hub
	cfg     Config
	logger  zerolog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

// session is one user's attachment to a running match controller.
type session struct {
	matchID    uuid.UUID
	controller *match.Controller
	cancel     context.CancelFunc
	started    bool
}

func NewHandler(queue *matchmaking.Service, matches *match.Service, channel events.Channel, hub *ws.Hub, cfg Config, logger zerolog.Logger) *Handler {
	return &Handler{
		queue:    queue,
		matches:  matches,
		channel:  channel,
		hub:      hub,
		cfg:      cfg,
		logger:   logger.With().Str("component", "gateway").Logger(),
		sessions: make(map[uuid.UUID]*session),
	}
}

// handleMessage routes one incoming frame.
func (h *Handler) handleMessage(ctx context.Context, userID uuid.UUID, msg ws.Message) error {
	switch msg.Type {
	case ws.TypeJoinQueue:
		return h.handleJoinQueue(ctx, userID, msg.Payload)
	case ws.TypeCancelQueue:
		return h.handleCancelQueue(ctx, userID)
	case ws.TypeReadyState:
		return h.handleReady(userID, msg.Payload)
	case ws.TypeSubmitAnswer:
		return h.handleSubmitAnswer(ctx, userID, msg.Payload)
	case ws.TypeLeaveMatch:
		return h.handleLeaveMatch(userID)
	case ws.TypePing:
		return h.hub.SendToUser(userID, ws.Message{Type: ws.TypePong})
	default:
		return h.sendError(userID, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (h *Handler) handleJoinQueue(ctx context.Context, userID uuid.UUID, payload json.RawMessage) error {
	var req ws.JoinQueuePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Malformed join_queue payload")
	}
	mode, err := problem.ParseMode(req.Mode)
	if err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidMode, err.Error())
	}

	res, err := h.queue.JoinOrMatch(ctx, userID, mode)
	if err != nil {
		h.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("join queue failed")
		return h.sendError(userID, httperrors.ErrCodeEnqueueFailed, "Failed to join queue")
	}

	if res.Status == matchmaking.JoinWaiting {
		return h.send(userID, ws.TypeQueueUpdate, ws.QueueUpdatePayload{
			Status: matchmaking.JoinWaiting,
			Mode:   string(mode),
		})
	}

	h.ensureSession(userID, res.Match)

	found := ws.MatchFoundPayload{
		MatchID:          res.Match.ID.String(),
		Mode:             string(res.Match.Mode),
		Seed:             res.Match.Seed,
		CountdownSeconds: int(h.cfg.Controller.CountdownDuration.Seconds()),
		DurationSeconds:  int(h.cfg.Controller.MatchDuration.Seconds()),
	}
	if res.Opponent != nil {
		found.Opponent = ws.Player{
			UserID:      res.Opponent.ID.String(),
			DisplayName: res.Opponent.DisplayName,
			Rating:      res.Opponent.EloRating,
		}
	}
	return h.send(userID, ws.TypeMatchFound, found)
}

func (h *Handler) handleCancelQueue(ctx context.Context, userID uuid.UUID) error {
	if err := h.queue.Cancel(ctx, userID); err != nil {
		h.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("cancel queue failed")
		return h.sendError(userID, httperrors.ErrCodeCancelFailed, "Failed to leave queue")
	}
	return h.send(userID, ws.TypeQueueUpdate, ws.QueueUpdatePayload{Status: "cancelled"})
}

// handleReady starts the user's controller. The controller announces
// readiness on the event channel; countdown begins when the opponent
// answers in kind or the fallback elapses.
func (h *Handler) handleReady(userID uuid.UUID, payload json.RawMessage) error {
	var req ws.ReadyStatePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Malformed ready_state payload")
	}

	h.mu.Lock()
	sess, ok := h.sessions[userID]
	if !ok || sess.matchID.String() != req.MatchID {
		h.mu.Unlock()
		return h.sendError(userID, httperrors.ErrCodeMatchNotFound, "No session for this match")
	}
	if sess.started {
		h.mu.Unlock()
		return nil
	}
	sess.started = true
	ctrl := sess.controller
	cancelCtx, cancel := context.WithCancel(context.Background())
	sess.cancel = cancel
	h.mu.Unlock()

	go func() {
		defer h.dropSession(userID, sess)
		if _, err := ctrl.Run(cancelCtx); err != nil && !errors.Is(err, context.Canceled) {
			h.logger.Warn().Err(err).
				Str("user_id", userID.String()).
				Str("match_id", sess.matchID.String()).
				Msg("controller exited with error")
		}
	}()
	return nil
}

func (h *Handler) handleSubmitAnswer(ctx context.Context, userID uuid.UUID, payload json.RawMessage) error {
	var req ws.SubmitAnswerPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Malformed submit_answer payload")
	}

	h.mu.Lock()
	sess, ok := h.sessions[userID]
	h.mu.Unlock()
	if !ok || sess.matchID.String() != req.MatchID {
		return h.sendError(userID, httperrors.ErrCodeMatchNotFound, "No session for this match")
	}

	outcome, err := sess.controller.SubmitAnswer(ctx, req.Answer)
	switch {
	case errors.Is(err, match.ErrNotPlaying):
		return h.sendError(userID, httperrors.ErrCodeConflict, "Match is not accepting answers")
	case errors.Is(err, match.ErrProblemsExhausted):
		return h.sendError(userID, httperrors.ErrCodeConflict, "No problems remaining")
	case errors.Is(err, match.ErrIndexLocked):
		return h.sendError(userID, httperrors.ErrCodeConflict, "Problem already answered")
	case err != nil:
		return h.sendError(userID, httperrors.ErrCodeInternalError, "Failed to submit answer")
	}

	return h.send(userID, ws.TypeAnswerAck, ws.AnswerAckPayload{
		MatchID:      req.MatchID,
		ProblemIndex: outcome.ProblemIndex,
		Correct:      outcome.Correct,
		Score:        outcome.Score,
	})
}

func (h *Handler) handleLeaveMatch(userID uuid.UUID) error {
	h.mu.Lock()
	sess, ok := h.sessions[userID]
	delete(h.sessions, userID)
	h.mu.Unlock()

	if ok && sess.cancel != nil {
		// The opponent's timer settles the match; leaving only abandons the
		// local controller.
		sess.cancel()
	}
	return nil
}

// ensureSession builds the controller for a freshly reported match. Safe to
// call repeatedly: re-polls for an already-attached match are no-ops.
func (h *Handler) ensureSession(userID uuid.UUID, m *match.Match) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sess, ok := h.sessions[userID]; ok {
		if sess.matchID == m.ID {
			return
		}
		if sess.cancel != nil {
			sess.cancel()
		}
	}

	problems := problem.Generate(m.Seed, m.Mode, h.cfg.ProblemsPerMatch)
	ctrl := match.NewController(h.cfg.Controller, *m, userID, problems, h.channel, h.matches, h.logger)
	ctrl.SetObserver(func(evt events.Event) { h.forwardOpponentEvent(userID, m.ID, evt) })
	ctrl.SetPhaseHook(func(phase match.Phase) { h.onPhase(userID, m.ID, ctrl, phase) })

	h.sessions[userID] = &session{matchID: m.ID, controller: ctrl}
}

func (h *Handler) dropSession(userID uuid.UUID, sess *session) {
	h.mu.Lock()
	if current, ok := h.sessions[userID]; ok && current == sess {
		delete(h.sessions, userID)
	}
	h.mu.Unlock()
}

func (h *Handler) onPhase(userID, matchID uuid.UUID, ctrl *match.Controller, phase match.Phase) {
	switch phase {
	case match.PhaseCountdown:
		_ = h.send(userID, ws.TypeCountdown, ws.CountdownPayload{
			MatchID: matchID.String(),
			Seconds: int(h.cfg.Controller.CountdownDuration.Seconds()),
		})
	case match.PhaseFinished:
		res := ctrl.Result()
		if res == nil {
			return
		}
		_ = h.send(userID, ws.TypeMatchComplete, completePayload(res))
	}
}

func (h *Handler) forwardOpponentEvent(userID, matchID uuid.UUID, evt events.Event) {
	if evt.Type != events.TypeAnswerSubmitted {
		return
	}
	var payload events.AnswerSubmittedPayload
	if err := json.Unmarshal(evt.Payload, &payload); err != nil {
		return
	}
	_ = h.send(userID, ws.TypeOpponentProgress, ws.OpponentProgressPayload{
		MatchID:      matchID.String(),
		ProblemIndex: payload.ProblemIndex,
		Correct:      payload.Correct,
		Score:        payload.NewScore,
	})
}

func completePayload(res *match.Result) ws.MatchCompletePayload {
	payload := ws.MatchCompletePayload{
		MatchID: res.MatchID.String(),
		Player1: outcomePayload(res.Player1),
		Player2: outcomePayload(res.Player2),
	}
	if res.WinnerID != nil {
		payload.WinnerID = res.WinnerID.String()
	}
	return payload
}

func outcomePayload(o match.PlayerOutcome) ws.PlayerOutcome {
	return ws.PlayerOutcome{
		UserID:    o.ID.String(),
		Score:     o.Score,
		EloBefore: o.EloBefore,
		EloAfter:  o.EloAfter,
		Delta:     o.Delta,
	}
}

func (h *Handler) send(userID uuid.UUID, msgType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := h.hub.SendToUser(userID, ws.Message{Type: msgType, Payload: raw}); err != nil {
		h.logger.Debug().Err(err).Str("user_id", userID.String()).Str("type", msgType).Msg("send failed")
		return err
	}
	return nil
}

func (h *Handler) sendError(userID uuid.UUID, code, message string) error {
	return h.send(userID, ws.TypeError, ws.ErrorPayload{Code: code, Message: message})
}
