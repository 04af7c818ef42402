package matchmaking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axiomduel/platform/internal/game/problem"
	"github.com/axiomduel/platform/internal/match"
	"github.com/axiomduel/platform/internal/player"
)

// memQueue implements QueueStore with the same conditional-update semantics
// the SQL store provides, including the one-waiting-entry-per-user rule.
type memQueue struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*Entry
}

func newMemQueue() *memQueue {
	return &memQueue{entries: make(map[uuid.UUID]*Entry)}
}

func (q *memQueue) EntryForUser(_ context.Context, userID uuid.UUID, mode problem.Mode) (*Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var latest *Entry
	for _, e := range q.entries {
		if e.UserID != userID || e.Mode != mode {
			continue
		}
		if latest == nil || e.CreatedAt.After(latest.CreatedAt) {
			latest = e
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (q *memQueue) WaitingOpponent(_ context.Context, mode problem.Mode, minElo, maxElo int, exclude uuid.UUID) (*Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var best *Entry
	for _, e := range q.entries {
		if e.Status != EntryWaiting || e.Mode != mode || e.UserID == exclude {
			continue
		}
		if e.Elo < minElo || e.Elo > maxElo {
			continue
		}
		if best == nil || e.CreatedAt.Before(best.CreatedAt) {
			best = e
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (q *memQueue) InsertWaiting(_ context.Context, e Entry) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, existing := range q.entries {
		if existing.UserID == e.UserID && existing.Mode == e.Mode && existing.Status == EntryWaiting {
			return ErrDuplicateWaiting
		}
	}
	cp := e
	q.entries[e.ID] = &cp
	return nil
}

func (q *memQueue) ClaimWaiting(_ context.Context, entryID, matchID uuid.UUID) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.entries[entryID]
	if !ok || e.Status != EntryWaiting {
		return false, nil
	}
	e.Status = EntryMatched
	id := matchID
	e.MatchID = &id
	return true, nil
}

func (q *memQueue) MarkMatchedByUser(_ context.Context, userID uuid.UUID, mode problem.Mode, matchID uuid.UUID) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.entries {
		if e.UserID == userID && e.Mode == mode && e.Status == EntryWaiting {
			e.Status = EntryMatched
			id := matchID
			e.MatchID = &id
			return true, nil
		}
	}
	return false, nil
}

func (q *memQueue) DeleteWaiting(_ context.Context, userID uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for id, e := range q.entries {
		if e.UserID == userID && e.Status == EntryWaiting {
			delete(q.entries, id)
		}
	}
	return nil
}

func (q *memQueue) DeleteAll(_ context.Context, userID uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for id, e := range q.entries {
		if e.UserID == userID {
			delete(q.entries, id)
		}
	}
	return nil
}

type memMatches struct {
	mu      sync.Mutex
	matches map[uuid.UUID]*match.Match
}

func newMemMatches() *memMatches {
	return &memMatches{matches: make(map[uuid.UUID]*match.Match)}
}

func (s *memMatches) Create(_ context.Context, m *match.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.matches[m.ID] = &cp
	return nil
}

func (s *memMatches) Get(_ context.Context, id uuid.UUID) (*match.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (s *memMatches) ActiveForPlayer(_ context.Context, userID uuid.UUID) ([]match.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []match.Match
	for _, m := range s.matches {
		if m.Status == match.StatusInProgress && (m.Player1ID == userID || m.Player2ID == userID) {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *memMatches) ExpireStaleForPlayer(_ context.Context, userID uuid.UUID, cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.matches {
		if m.Status == match.StatusInProgress &&
			(m.Player1ID == userID || m.Player2ID == userID) &&
			m.CreatedAt.Before(cutoff) {
			m.Status = match.StatusCompleted
		}
	}
	return nil
}

type memProfiles struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*player.Profile
}

func newMemProfiles(ps ...*player.Profile) *memProfiles {
	m := &memProfiles{profiles: make(map[uuid.UUID]*player.Profile)}
	for _, p := range ps {
		m.profiles[p.ID] = p
	}
	return m
}

func (s *memProfiles) Get(_ context.Context, id uuid.UUID) (*player.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func newTestService(queue *memQueue, matches *memMatches, profiles *memProfiles) *Service {
	return NewService(queue, matches, profiles, Config{
		EloBand:         300,
		StalenessWindow: 3 * time.Minute,
	}, zerolog.Nop())
}

func profileWithElo(elo int) *player.Profile {
	return &player.Profile{ID: uuid.New(), DisplayName: uuid.NewString()[:8], EloRating: elo}
}

func TestJoinEnqueuesWhenAlone(t *testing.T) {
	alice := profileWithElo(800)
	svc := newTestService(newMemQueue(), newMemMatches(), newMemProfiles(alice))

	res, err := svc.JoinOrMatch(context.Background(), alice.ID, problem.ModeAll)
	require.NoError(t, err)
	assert.Equal(t, JoinWaiting, res.Status)
	assert.Nil(t, res.Match)
}

func TestJoinPairsWithinEloBand(t *testing.T) {
	alice := profileWithElo(800)
	bob := profileWithElo(850)
	queue := newMemQueue()
	matches := newMemMatches()
	svc := newTestService(queue, matches, newMemProfiles(alice, bob))
	ctx := context.Background()

	res, err := svc.JoinOrMatch(ctx, alice.ID, problem.ModeAll)
	require.NoError(t, err)
	require.Equal(t, JoinWaiting, res.Status)

	res, err = svc.JoinOrMatch(ctx, bob.ID, problem.ModeAll)
	require.NoError(t, err)
	require.Equal(t, JoinMatched, res.Status)
	require.NotNil(t, res.Match)

	// The earlier-queued player takes slot 1 and Elo is snapshotted.
	assert.Equal(t, alice.ID, res.Match.Player1ID)
	assert.Equal(t, bob.ID, res.Match.Player2ID)
	assert.Equal(t, 800, res.Match.Player1EloBefore)
	assert.Equal(t, 850, res.Match.Player2EloBefore)
	assert.NotEmpty(t, res.Match.Seed)
	require.NotNil(t, res.Opponent)
	assert.Equal(t, alice.ID, res.Opponent.ID)
}

func TestJoinSkipsOpponentOutsideEloBand(t *testing.T) {
	alice := profileWithElo(800)
	bob := profileWithElo(1200)
	svc := newTestService(newMemQueue(), newMemMatches(), newMemProfiles(alice, bob))
	ctx := context.Background()

	res, err := svc.JoinOrMatch(ctx, alice.ID, problem.ModeAll)
	require.NoError(t, err)
	require.Equal(t, JoinWaiting, res.Status)

	res, err = svc.JoinOrMatch(ctx, bob.ID, problem.ModeAll)
	require.NoError(t, err)
	assert.Equal(t, JoinWaiting, res.Status)
}

func TestJoinKeepsModesSeparate(t *testing.T) {
	alice := profileWithElo(800)
	bob := profileWithElo(800)
	svc := newTestService(newMemQueue(), newMemMatches(), newMemProfiles(alice, bob))
	ctx := context.Background()

	res, err := svc.JoinOrMatch(ctx, alice.ID, problem.ModeAlgebra)
	require.NoError(t, err)
	require.Equal(t, JoinWaiting, res.Status)

	res, err = svc.JoinOrMatch(ctx, bob.ID, problem.ModeDiscrete)
	require.NoError(t, err)
	assert.Equal(t, JoinWaiting, res.Status)
}

func TestRepeatPollReturnsSameMatch(t *testing.T) {
	alice := profileWithElo(800)
	bob := profileWithElo(820)
	svc := newTestService(newMemQueue(), newMemMatches(), newMemProfiles(alice, bob))
	ctx := context.Background()

	_, err := svc.JoinOrMatch(ctx, alice.ID, problem.ModeAll)
	require.NoError(t, err)
	res, err := svc.JoinOrMatch(ctx, bob.ID, problem.ModeAll)
	require.NoError(t, err)
	require.Equal(t, JoinMatched, res.Status)
	matchID := res.Match.ID

	// Alice's next poll adopts the same match; both see identical pairing.
	res, err = svc.JoinOrMatch(ctx, alice.ID, problem.ModeAll)
	require.NoError(t, err)
	require.Equal(t, JoinMatched, res.Status)
	assert.Equal(t, matchID, res.Match.ID)
	require.NotNil(t, res.Opponent)
	assert.Equal(t, bob.ID, res.Opponent.ID)

	res, err = svc.JoinOrMatch(ctx, bob.ID, problem.ModeAll)
	require.NoError(t, err)
	require.Equal(t, JoinMatched, res.Status)
	assert.Equal(t, matchID, res.Match.ID)
}

func TestJoinIsIdempotentWhileWaiting(t *testing.T) {
	alice := profileWithElo(800)
	queue := newMemQueue()
	svc := newTestService(queue, newMemMatches(), newMemProfiles(alice))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := svc.JoinOrMatch(ctx, alice.ID, problem.ModeAll)
		require.NoError(t, err)
		assert.Equal(t, JoinWaiting, res.Status)
	}

	queue.mu.Lock()
	assert.Len(t, queue.entries, 1)
	queue.mu.Unlock()
}

func TestCancelRemovesWaitingEntry(t *testing.T) {
	alice := profileWithElo(800)
	bob := profileWithElo(800)
	queue := newMemQueue()
	svc := newTestService(queue, newMemMatches(), newMemProfiles(alice, bob))
	ctx := context.Background()

	_, err := svc.JoinOrMatch(ctx, alice.ID, problem.ModeAll)
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(ctx, alice.ID))

	// Bob finds nobody.
	res, err := svc.JoinOrMatch(ctx, bob.ID, problem.ModeAll)
	require.NoError(t, err)
	assert.Equal(t, JoinWaiting, res.Status)
}

func TestCancelWhenNotQueuedIsNoop(t *testing.T) {
	svc := newTestService(newMemQueue(), newMemMatches(), newMemProfiles())
	assert.NoError(t, svc.Cancel(context.Background(), uuid.New()))
}

func TestJoinUnknownProfile(t *testing.T) {
	svc := newTestService(newMemQueue(), newMemMatches(), newMemProfiles())
	_, err := svc.JoinOrMatch(context.Background(), uuid.New(), problem.ModeAll)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestStaleWaitingEntryIsReplaced(t *testing.T) {
	alice := profileWithElo(800)
	queue := newMemQueue()
	svc := newTestService(queue, newMemMatches(), newMemProfiles(alice))
	ctx := context.Background()

	base := time.Now()
	svc.now = func() time.Time { return base.Add(-10 * time.Minute) }
	res, err := svc.JoinOrMatch(ctx, alice.ID, problem.ModeAll)
	require.NoError(t, err)
	require.Equal(t, JoinWaiting, res.Status)

	// Ten minutes later the old entry is past the staleness window: it is
	// cleaned up and a fresh one inserted.
	svc.now = func() time.Time { return base }
	res, err = svc.JoinOrMatch(ctx, alice.ID, problem.ModeAll)
	require.NoError(t, err)
	assert.Equal(t, JoinWaiting, res.Status)

	entry, err := queue.EntryForUser(ctx, alice.ID, problem.ModeAll)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, base, entry.CreatedAt)
}

func TestStaleMatchDoesNotBlockRequeue(t *testing.T) {
	alice := profileWithElo(800)
	bob := profileWithElo(810)
	matches := newMemMatches()
	svc := newTestService(newMemQueue(), matches, newMemProfiles(alice, bob))
	ctx := context.Background()

	base := time.Now()
	svc.now = func() time.Time { return base.Add(-10 * time.Minute) }
	_, err := svc.JoinOrMatch(ctx, alice.ID, problem.ModeAll)
	require.NoError(t, err)
	res, err := svc.JoinOrMatch(ctx, bob.ID, problem.ModeAll)
	require.NoError(t, err)
	require.Equal(t, JoinMatched, res.Status)
	staleID := res.Match.ID

	// Both abandoned the duel. A later join must not resurrect it.
	svc.now = func() time.Time { return base }
	res, err = svc.JoinOrMatch(ctx, alice.ID, problem.ModeAll)
	require.NoError(t, err)
	assert.Equal(t, JoinWaiting, res.Status)

	expired, err := matches.Get(ctx, staleID)
	require.NoError(t, err)
	assert.Equal(t, match.StatusCompleted, expired.Status)
}

// racingQueue simulates a concurrent request winning the enqueue race: our
// insert collides with an entry that did not exist when we first looked, and
// the recheck finds it already matched.
type racingQueue struct {
	*memQueue
	onInsert func()
}

func (q *racingQueue) InsertWaiting(ctx context.Context, e Entry) error {
	q.onInsert()
	return ErrDuplicateWaiting
}

func TestDuplicateInsertRecoversMatchedEntry(t *testing.T) {
	alice := profileWithElo(800)
	bob := profileWithElo(810)
	matches := newMemMatches()
	matchID := uuid.New()
	queue := &racingQueue{memQueue: newMemQueue()}
	ctx := context.Background()

	// The racing request pairs alice with bob in the gap between our
	// active-match check and our insert.
	queue.onInsert = func() {
		id := matchID
		queue.memQueue.mu.Lock()
		queue.memQueue.entries[uuid.New()] = &Entry{
			ID: uuid.New(), UserID: alice.ID, Mode: problem.ModeAll,
			Elo: 800, Status: EntryMatched, MatchID: &id, CreatedAt: time.Now(),
		}
		queue.memQueue.mu.Unlock()
		_ = matches.Create(ctx, &match.Match{
			ID: matchID, Mode: problem.ModeAll, Seed: "s",
			Player1ID: bob.ID, Player2ID: alice.ID,
			Player1EloBefore: 810, Player2EloBefore: 800,
			Status: match.StatusInProgress, CreatedAt: time.Now(),
		})
	}

	svc := newTestService(nil, matches, newMemProfiles(alice, bob))
	svc.queue = queue

	res, err := svc.JoinOrMatch(ctx, alice.ID, problem.ModeAll)
	require.NoError(t, err)
	assert.Equal(t, JoinMatched, res.Status)
	require.NotNil(t, res.Match)
	assert.Equal(t, matchID, res.Match.ID)
}

func TestConcurrentJoinersAllResolve(t *testing.T) {
	const n = 8
	queue := newMemQueue()
	matches := newMemMatches()
	profiles := make([]*player.Profile, n)
	stores := make([]*player.Profile, 0, n)
	for i := range profiles {
		profiles[i] = profileWithElo(800 + i*10)
		stores = append(stores, profiles[i])
	}
	svc := newTestService(queue, matches, newMemProfiles(stores...))
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, p := range profiles {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := svc.JoinOrMatch(ctx, id, problem.ModeAll)
			assert.NoError(t, err)
		}(p.ID)
	}
	wg.Wait()

	// Drain with repeated polls: every player ends up matched or waiting,
	// and no player appears in two live matches.
	live := map[uuid.UUID]int{}
	for _, p := range profiles {
		res, err := svc.JoinOrMatch(ctx, p.ID, problem.ModeAll)
		require.NoError(t, err)
		if res.Status == JoinMatched {
			live[res.Match.Player1ID]++
			live[res.Match.Player2ID]++
		}
	}
	for id, count := range live {
		// Each matched player is seen once per their own poll plus once via
		// the opponent's poll of the same match, never across two matches.
		assert.LessOrEqual(t, count, 2, "player %s in too many matches", id)
	}
}
