package match

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/axiomduel/platform/internal/events"
	"github.com/axiomduel/platform/internal/game/answer"
	"github.com/axiomduel/platform/internal/game/problem"
)

// Phase is a controller lifecycle state.
type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseCountdown Phase = "countdown"
	PhasePlaying   Phase = "playing"
	PhaseFinished  Phase = "finished"
)

// Controller errors.
var (
	ErrNotPlaying        = errors.New("match is not in the playing phase")
	ErrIndexLocked       = errors.New("problem already answered")
	ErrProblemsExhausted = errors.New("no problems remaining")
)

// Completer finalizes the match. Implemented by *Service.
type Completer interface {
	Complete(ctx context.Context, matchID, callerID uuid.UUID, myScore, opponentScore int) (*Result, error)
}

// ControllerConfig carries the lifecycle timings. Tests shrink these to
// milliseconds.
type ControllerConfig struct {
	MatchDuration     time.Duration
	CountdownDuration time.Duration
	// ReadyFallback bounds the wait for the opponent's ready signal; if it
	// elapses first the countdown starts anyway.
	ReadyFallback time.Duration
}

// SubmitOutcome reports the effect of one answer submission.
type SubmitOutcome struct {
	ProblemIndex int  `json:"problem_index"`
	Correct      bool `json:"correct"`
	Score        int  `json:"score"`
}

// Controller drives one participant's view of a duel through
// waiting -> countdown -> playing -> finished. Each participant runs its own
// controller; they coordinate only through the event channel, and each ends
// the match on its own local timer. The shared database guard makes the
// resulting double completion safe.
type Controller struct {
	cfg       ControllerConfig
	match     Match
	selfID    uuid.UUID
	problems  []problem.Problem
	channel   events.Channel
	completer Completer
	logger    zerolog.Logger

	// observer, when set, sees every opponent event. Used by the gateway to
	// forward progress to the connected client.
	observer func(events.Event)
	// phaseHook, when set, fires on every phase transition.
	phaseHook func(Phase)

	mu        sync.Mutex
	phase     Phase
	index     int
	answered  map[int]bool
	myScore   int
	oppScore  int
	result    *Result
	finalized sync.Once
}

// NewController builds a controller for one participant. The problem set
// must be the deterministic expansion of the match seed so both participants
// score against identical problems.
func NewController(cfg ControllerConfig, m Match, selfID uuid.UUID, problems []problem.Problem, channel events.Channel, completer Completer, logger zerolog.Logger) *Controller {
	return &Controller{
		cfg:       cfg,
		match:     m,
		selfID:    selfID,
		problems:  problems,
		channel:   channel,
		completer: completer,
		logger: logger.With().
			Str("component", "match_controller").
			Str("match_id", m.ID.String()).
			Str("user_id", selfID.String()).
			Logger(),
		phase:    PhaseWaiting,
		answered: make(map[int]bool),
	}
}

// SetObserver registers a callback for opponent events. Must be called
// before Run.
func (c *Controller) SetObserver(fn func(events.Event)) { c.observer = fn }

// SetPhaseHook registers a callback for phase transitions. Must be called
// before Run.
func (c *Controller) SetPhaseHook(fn func(Phase)) { c.phaseHook = fn }

// Phase returns the current lifecycle phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Result returns the final outcome, or nil before the match finishes.
func (c *Controller) Result() *Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Progress returns the current problem index and both scores.
func (c *Controller) Progress() (index, myScore, opponentScore int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index, c.myScore, c.oppScore
}

// CurrentProblem returns the problem at the play cursor, or nil when the
// set is exhausted.
func (c *Controller) CurrentProblem() *problem.Problem {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index >= len(c.problems) {
		return nil
	}
	p := c.problems[c.index]
	return &p
}

// Run drives the lifecycle to completion and returns the final result. It
// blocks until the match finishes or ctx is cancelled.
func (c *Controller) Run(ctx context.Context) (*Result, error) {
	sub, err := c.channel.Subscribe(ctx, c.match.ID.String(), c.selfID.String())
	if err != nil {
		return nil, err
	}
	defer sub.Close()

	if err := c.publishReady(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("failed to announce readiness")
	}

	if done, err := c.waitForOpponent(ctx, sub); done || err != nil {
		return c.Result(), err
	}
	if done, err := c.countdown(ctx, sub); done || err != nil {
		return c.Result(), err
	}
	if err := c.play(ctx, sub); err != nil {
		return c.Result(), err
	}
	return c.Result(), nil
}

// waitForOpponent blocks until the opponent announces ready or the fallback
// timer elapses. An opponent who connected first may have published before
// we subscribed, which is why the fallback exists.
func (c *Controller) waitForOpponent(ctx context.Context, sub events.Subscription) (finished bool, err error) {
	fallback := time.NewTimer(c.cfg.ReadyFallback)
	defer fallback.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-fallback.C:
			c.logger.Debug().Msg("ready fallback elapsed, starting countdown")
			return false, nil
		case evt, ok := <-sub.Events():
			if !ok {
				return false, nil
			}
			if evt.Type == events.TypePlayerReady {
				return false, nil
			}
			if c.handleEvent(evt) {
				return true, nil
			}
		}
	}
}

func (c *Controller) countdown(ctx context.Context, sub events.Subscription) (finished bool, err error) {
	c.setPhase(PhaseCountdown)
	timer := time.NewTimer(c.cfg.CountdownDuration)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
			return false, nil
		case evt, ok := <-sub.Events():
			if !ok {
				return false, nil
			}
			if c.handleEvent(evt) {
				return true, nil
			}
		}
	}
}

// play runs the scoring window. The local timer is authoritative for this
// participant; the opponent's game_over broadcast merely short-circuits it.
func (c *Controller) play(ctx context.Context, sub events.Subscription) error {
	c.setPhase(PhasePlaying)
	timer := time.NewTimer(c.cfg.MatchDuration)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			c.finalize(ctx)
			return nil
		case evt, ok := <-sub.Events():
			if !ok {
				c.finalize(ctx)
				return nil
			}
			if c.handleEvent(evt) {
				return nil
			}
		}
	}
}

// handleEvent processes one opponent event, returning true once the match
// has finished.
func (c *Controller) handleEvent(evt events.Event) bool {
	switch evt.Type {
	case events.TypeAnswerSubmitted:
		var payload events.AnswerSubmittedPayload
		if err := json.Unmarshal(evt.Payload, &payload); err != nil {
			c.logger.Warn().Err(err).Msg("malformed answer event")
			return false
		}
		c.mu.Lock()
		c.oppScore = payload.NewScore
		c.mu.Unlock()
		if c.observer != nil {
			c.observer(evt)
		}
		return false
	case events.TypeGameOver:
		var payload events.GameOverPayload
		if err := json.Unmarshal(evt.Payload, &payload); err != nil {
			c.logger.Warn().Err(err).Msg("malformed game over event")
			return false
		}
		c.adoptRemoteResult(payload.Result)
		if c.observer != nil {
			c.observer(evt)
		}
		return true
	default:
		return false
	}
}

// SubmitAnswer checks the user's input against the current problem, awards
// difficulty points on a correct answer and advances the cursor either way.
// An index is scored at most once.
func (c *Controller) SubmitAnswer(ctx context.Context, input string) (*SubmitOutcome, error) {
	c.mu.Lock()
	if c.phase != PhasePlaying {
		c.mu.Unlock()
		return nil, ErrNotPlaying
	}
	if c.index >= len(c.problems) {
		c.mu.Unlock()
		return nil, ErrProblemsExhausted
	}
	idx := c.index
	if c.answered[idx] {
		c.mu.Unlock()
		return nil, ErrIndexLocked
	}
	c.answered[idx] = true
	p := c.problems[idx]

	correct := answer.Check(p, input)
	if correct {
		c.myScore += p.Difficulty
	}
	c.index++
	score := c.myScore
	c.mu.Unlock()

	evt, err := events.NewEvent(events.TypeAnswerSubmitted, c.selfID.String(), events.AnswerSubmittedPayload{
		PlayerID:     c.selfID.String(),
		ProblemIndex: idx,
		Correct:      correct,
		NewScore:     score,
	})
	if err == nil {
		err = c.channel.Publish(ctx, c.match.ID.String(), evt)
	}
	if err != nil {
		c.logger.Warn().Err(err).Int("problem_index", idx).Msg("failed to broadcast answer")
	}

	return &SubmitOutcome{ProblemIndex: idx, Correct: correct, Score: score}, nil
}

// finalize completes the match through the persistence service exactly once
// per controller, then broadcasts the outcome.
func (c *Controller) finalize(ctx context.Context) {
	c.finalized.Do(func() {
		c.mu.Lock()
		my, opp := c.myScore, c.oppScore
		c.mu.Unlock()

		res, err := c.completer.Complete(ctx, c.match.ID, c.selfID, my, opp)
		if err != nil {
			c.logger.Error().Err(err).Msg("match completion failed")
			c.setPhase(PhaseFinished)
			return
		}

		c.mu.Lock()
		c.result = res
		c.phase = PhaseFinished
		c.mu.Unlock()
		if c.phaseHook != nil {
			c.phaseHook(PhaseFinished)
		}

		evt, err := events.NewEvent(events.TypeGameOver, c.selfID.String(), events.GameOverPayload{Result: res.Broadcast()})
		if err == nil {
			err = c.channel.Publish(ctx, c.match.ID.String(), evt)
		}
		if err != nil {
			c.logger.Warn().Err(err).Msg("failed to broadcast game over")
		}
	})
}

// adoptRemoteResult accepts the opponent's broadcast outcome. It shares the
// finalize guard, so a timer firing concurrently cannot complete twice from
// this controller.
func (c *Controller) adoptRemoteResult(res events.MatchResult) {
	c.finalized.Do(func() {
		adopted := &Result{Status: CompletionAlreadyCompleted, MatchID: c.match.ID}
		if id, err := uuid.Parse(res.MatchID); err == nil {
			adopted.MatchID = id
		}
		if res.WinnerID != nil {
			if id, err := uuid.Parse(*res.WinnerID); err == nil {
				adopted.WinnerID = &id
			}
		}
		adopted.Player1 = playerOutcomeFromEvent(res.Player1)
		adopted.Player2 = playerOutcomeFromEvent(res.Player2)

		c.mu.Lock()
		c.result = adopted
		c.phase = PhaseFinished
		c.mu.Unlock()
		if c.phaseHook != nil {
			c.phaseHook(PhaseFinished)
		}
	})
}

func playerOutcomeFromEvent(p events.PlayerResult) PlayerOutcome {
	out := PlayerOutcome{
		Score:     p.Score,
		EloBefore: p.EloBefore,
		EloAfter:  p.EloAfter,
		Delta:     p.Delta,
	}
	if id, err := uuid.Parse(p.ID); err == nil {
		out.ID = id
	}
	return out
}

func (c *Controller) publishReady(ctx context.Context) error {
	evt, err := events.NewEvent(events.TypePlayerReady, c.selfID.String(), events.PlayerReadyPayload{
		PlayerID: c.selfID.String(),
	})
	if err != nil {
		return err
	}
	return c.channel.Publish(ctx, c.match.ID.String(), evt)
}

func (c *Controller) setPhase(p Phase) {
	c.mu.Lock()
	c.phase = p
	c.mu.Unlock()
	if c.phaseHook != nil {
		c.phaseHook(p)
	}
}
