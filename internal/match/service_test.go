package match

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axiomduel/platform/internal/game/elo"
	"github.com/axiomduel/platform/internal/player"
)

type memMatchStore struct {
	mu      sync.Mutex
	matches map[uuid.UUID]*Match
}

func newMemMatchStore(ms ...*Match) *memMatchStore {
	s := &memMatchStore{matches: make(map[uuid.UUID]*Match)}
	for _, m := range ms {
		cp := *m
		s.matches[m.ID] = &cp
	}
	return s
}

func (s *memMatchStore) Get(_ context.Context, id uuid.UUID) (*Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (s *memMatchStore) CompleteGuarded(_ context.Context, params CompleteParams) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[params.MatchID]
	if !ok || m.Status != StatusInProgress {
		return false, nil
	}
	m.Player1Score = params.Player1Score
	m.Player2Score = params.Player2Score
	m.Player1EloAfter = params.Player1EloAfter
	m.Player2EloAfter = params.Player2EloAfter
	m.WinnerID = params.WinnerID
	m.Status = StatusCompleted
	completedAt := params.CompletedAt
	m.CompletedAt = &completedAt
	return true, nil
}

type memProfileStore struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*player.Profile
	failures int
	applied  int
}

func newMemProfileStore(ps ...*player.Profile) *memProfileStore {
	s := &memProfileStore{profiles: make(map[uuid.UUID]*player.Profile)}
	for _, p := range ps {
		cp := *p
		s.profiles[p.ID] = &cp
	}
	return s
}

func (s *memProfileStore) Get(_ context.Context, id uuid.UUID) (*player.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *memProfileStore) ApplyMatchResult(_ context.Context, id uuid.UUID, newRating, wins, losses, draws int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("transient failure")
	}
	p, ok := s.profiles[id]
	if !ok {
		return errors.New("profile missing")
	}
	p.EloRating = newRating
	p.TotalWins += wins
	p.TotalLosses += losses
	p.TotalDraws += draws
	s.applied++
	return nil
}

type recordingLeaderboard struct {
	mu      sync.Mutex
	records []player.Profile
}

func (r *recordingLeaderboard) RecordResult(_ context.Context, p player.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, p)
	return nil
}

func duelFixture() (*Match, *player.Profile, *player.Profile) {
	p1 := &player.Profile{ID: uuid.New(), DisplayName: "alice", EloRating: 800}
	p2 := &player.Profile{ID: uuid.New(), DisplayName: "bob", EloRating: 850}
	m := &Match{
		ID:               uuid.New(),
		Seed:             "test-seed",
		Player1ID:        p1.ID,
		Player2ID:        p2.ID,
		Player1EloBefore: p1.EloRating,
		Player2EloBefore: p2.EloRating,
		Player1EloAfter:  p1.EloRating,
		Player2EloAfter:  p2.EloRating,
		Status:           StatusInProgress,
		CreatedAt:        time.Now(),
	}
	return m, p1, p2
}

func TestCompleteWinnerTakesRating(t *testing.T) {
	m, p1, p2 := duelFixture()
	matches := newMemMatchStore(m)
	profiles := newMemProfileStore(p1, p2)
	lb := &recordingLeaderboard{}
	svc := NewService(matches, profiles, elo.NewCalculator(18), lb, zerolog.Nop())

	// Player 1 reports the win from their own perspective.
	res, err := svc.Complete(context.Background(), m.ID, p1.ID, 12, 9)
	require.NoError(t, err)

	assert.Equal(t, CompletionApplied, res.Status)
	require.NotNil(t, res.WinnerID)
	assert.Equal(t, p1.ID, *res.WinnerID)
	assert.Equal(t, 12, res.Player1.Score)
	assert.Equal(t, 9, res.Player2.Score)

	// 800 beats 850: the underdog gains slightly more than half of K.
	assert.Equal(t, 810, res.Player1.EloAfter)
	assert.Equal(t, 840, res.Player2.EloAfter)
	assert.Equal(t, 10, res.Player1.Delta)
	assert.Equal(t, -10, res.Player2.Delta)

	// Profiles carry the new ratings and counters.
	got1, _ := profiles.Get(context.Background(), p1.ID)
	got2, _ := profiles.Get(context.Background(), p2.ID)
	assert.Equal(t, 810, got1.EloRating)
	assert.Equal(t, 1, got1.TotalWins)
	assert.Equal(t, 840, got2.EloRating)
	assert.Equal(t, 1, got2.TotalLosses)

	assert.Len(t, lb.records, 2)
}

func TestCompleteFromPlayerTwoPerspective(t *testing.T) {
	m, p1, p2 := duelFixture()
	matches := newMemMatchStore(m)
	profiles := newMemProfileStore(p1, p2)
	svc := NewService(matches, profiles, elo.NewCalculator(18), nil, zerolog.Nop())

	// Player 2 reports their own score first; it must land in slot 2.
	res, err := svc.Complete(context.Background(), m.ID, p2.ID, 15, 7)
	require.NoError(t, err)

	assert.Equal(t, 7, res.Player1.Score)
	assert.Equal(t, 15, res.Player2.Score)
	require.NotNil(t, res.WinnerID)
	assert.Equal(t, p2.ID, *res.WinnerID)
}

func TestCompleteDraw(t *testing.T) {
	m, p1, p2 := duelFixture()
	matches := newMemMatchStore(m)
	profiles := newMemProfileStore(p1, p2)
	svc := NewService(matches, profiles, elo.NewCalculator(18), nil, zerolog.Nop())

	res, err := svc.Complete(context.Background(), m.ID, p1.ID, 10, 10)
	require.NoError(t, err)

	assert.Nil(t, res.WinnerID)
	got1, _ := profiles.Get(context.Background(), p1.ID)
	got2, _ := profiles.Get(context.Background(), p2.ID)
	assert.Equal(t, 1, got1.TotalDraws)
	assert.Equal(t, 1, got2.TotalDraws)
	// A draw still moves ratings toward each other across a gap.
	assert.Greater(t, got1.EloRating, 800)
	assert.Less(t, got2.EloRating, 850)
}

func TestCompleteUsesSnapshotsNotCurrentRatings(t *testing.T) {
	m, p1, p2 := duelFixture()
	// The profiles drifted after the match was created; the settlement must
	// derive from the snapshots, not these values.
	p1.EloRating = 9999
	p2.EloRating = 1
	matches := newMemMatchStore(m)
	profiles := newMemProfileStore(p1, p2)
	svc := NewService(matches, profiles, elo.NewCalculator(18), nil, zerolog.Nop())

	res, err := svc.Complete(context.Background(), m.ID, p1.ID, 5, 3)
	require.NoError(t, err)
	assert.Equal(t, 800, res.Player1.EloBefore)
	assert.Equal(t, 850, res.Player2.EloBefore)
	assert.Equal(t, 810, res.Player1.EloAfter)
}

func TestCompleteSecondCallerGetsExistingResult(t *testing.T) {
	m, p1, p2 := duelFixture()
	matches := newMemMatchStore(m)
	profiles := newMemProfileStore(p1, p2)
	svc := NewService(matches, profiles, elo.NewCalculator(18), nil, zerolog.Nop())
	ctx := context.Background()

	first, err := svc.Complete(ctx, m.ID, p1.ID, 12, 9)
	require.NoError(t, err)
	require.Equal(t, CompletionApplied, first.Status)

	// The opponent reports the same outcome from their side.
	second, err := svc.Complete(ctx, m.ID, p2.ID, 9, 12)
	require.NoError(t, err)
	assert.Equal(t, CompletionAlreadyCompleted, second.Status)
	assert.Equal(t, first.Player1.EloAfter, second.Player1.EloAfter)
	assert.Equal(t, first.Player2.EloAfter, second.Player2.EloAfter)

	// Counters were bumped exactly once per player.
	got1, _ := profiles.Get(ctx, p1.ID)
	assert.Equal(t, 1, got1.TotalWins)
	assert.Equal(t, 0, got1.TotalLosses)
}

func TestCompleteConcurrentCallersSettleOnce(t *testing.T) {
	m, p1, p2 := duelFixture()
	matches := newMemMatchStore(m)
	profiles := newMemProfileStore(p1, p2)
	svc := NewService(matches, profiles, elo.NewCalculator(18), nil, zerolog.Nop())
	ctx := context.Background()

	var wg sync.WaitGroup
	applied := make(chan CompletionStatus, 2)
	for _, caller := range []struct {
		id      uuid.UUID
		my, opp int
	}{
		{p1.ID, 12, 9},
		{p2.ID, 9, 12},
	} {
		wg.Add(1)
		go func(id uuid.UUID, my, opp int) {
			defer wg.Done()
			res, err := svc.Complete(ctx, m.ID, id, my, opp)
			assert.NoError(t, err)
			applied <- res.Status
		}(caller.id, caller.my, caller.opp)
	}
	wg.Wait()
	close(applied)

	counts := map[CompletionStatus]int{}
	for s := range applied {
		counts[s]++
	}
	assert.Equal(t, 1, counts[CompletionApplied])
	assert.Equal(t, 1, counts[CompletionAlreadyCompleted])

	profiles.mu.Lock()
	assert.Equal(t, 2, profiles.applied)
	profiles.mu.Unlock()
}

func TestCompleteProfileFailureDoesNotFailMatch(t *testing.T) {
	m, p1, p2 := duelFixture()
	matches := newMemMatchStore(m)
	profiles := newMemProfileStore(p1, p2)
	profiles.failures = 1 // first attempt fails, retry succeeds
	svc := NewService(matches, profiles, elo.NewCalculator(18), nil, zerolog.Nop())

	res, err := svc.Complete(context.Background(), m.ID, p1.ID, 12, 9)
	require.NoError(t, err)
	assert.Equal(t, CompletionApplied, res.Status)

	profiles.mu.Lock()
	assert.Equal(t, 2, profiles.applied)
	profiles.mu.Unlock()
}

func TestCompleteRejectsNonParticipant(t *testing.T) {
	m, p1, p2 := duelFixture()
	matches := newMemMatchStore(m)
	profiles := newMemProfileStore(p1, p2)
	svc := NewService(matches, profiles, elo.NewCalculator(18), nil, zerolog.Nop())

	_, err := svc.Complete(context.Background(), m.ID, uuid.New(), 1, 0)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestCompleteUnknownMatch(t *testing.T) {
	svc := NewService(newMemMatchStore(), newMemProfileStore(), elo.NewCalculator(18), nil, zerolog.Nop())
	_, err := svc.Complete(context.Background(), uuid.New(), uuid.New(), 1, 0)
	assert.ErrorIs(t, err, ErrMatchNotFound)
}
