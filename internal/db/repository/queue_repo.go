package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/axiomduel/platform/internal/game/problem"
	"github.com/axiomduel/platform/internal/matchmaking"
)

const uniqueViolation = "23505"

// QueueRepository persists matchmaking queue entries. The partial unique
// index on (user_id, mode) WHERE status='waiting' is what makes concurrent
// joins from the same user converge on a single entry.
type QueueRepository struct {
	pool *pgxpool.Pool
}

func NewQueueRepository(pool *pgxpool.Pool) *QueueRepository {
	return &QueueRepository{pool: pool}
}

const queueColumns = `id, user_id, mode, elo, status, match_id, created_at`

func (r *QueueRepository) EntryForUser(ctx context.Context, userID uuid.UUID, mode problem.Mode) (*matchmaking.Entry, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+queueColumns+`
		 FROM matchmaking_queue
		 WHERE user_id = $1 AND mode = $2
		 ORDER BY created_at DESC
		 LIMIT 1`,
		userID, string(mode))
	return scanEntry(row)
}

// WaitingOpponent returns the longest-waiting pairable entry. FIFO order
// keeps pairing fair within the rating band.
func (r *QueueRepository) WaitingOpponent(ctx context.Context, mode problem.Mode, minElo, maxElo int, exclude uuid.UUID) (*matchmaking.Entry, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+queueColumns+`
		 FROM matchmaking_queue
		 WHERE mode = $1
		   AND status = 'waiting'
		   AND elo BETWEEN $2 AND $3
		   AND user_id <> $4
		 ORDER BY created_at ASC
		 LIMIT 1`,
		string(mode), minElo, maxElo, exclude)
	return scanEntry(row)
}

func (r *QueueRepository) InsertWaiting(ctx context.Context, e matchmaking.Entry) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO matchmaking_queue (id, user_id, mode, elo, status, created_at)
		 VALUES ($1, $2, $3, $4, 'waiting', $5)`,
		e.ID, e.UserID, string(e.Mode), e.Elo, e.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return matchmaking.ErrDuplicateWaiting
	}
	if err != nil {
		return fmt.Errorf("insert queue entry: %w", err)
	}
	return nil
}

// ClaimWaiting conditionally flips an entry to matched. The status guard
// means exactly one of any number of concurrent claimants wins.
func (r *QueueRepository) ClaimWaiting(ctx context.Context, entryID, matchID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE matchmaking_queue
		 SET status = 'matched', match_id = $2
		 WHERE id = $1 AND status = 'waiting'`,
		entryID, matchID)
	if err != nil {
		return false, fmt.Errorf("claim queue entry: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *QueueRepository) MarkMatchedByUser(ctx context.Context, userID uuid.UUID, mode problem.Mode, matchID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE matchmaking_queue
		 SET status = 'matched', match_id = $3
		 WHERE user_id = $1 AND mode = $2 AND status = 'waiting'`,
		userID, string(mode), matchID)
	if err != nil {
		return false, fmt.Errorf("mark entry matched: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *QueueRepository) DeleteWaiting(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM matchmaking_queue WHERE user_id = $1 AND status = 'waiting'`, userID)
	if err != nil {
		return fmt.Errorf("delete waiting entries: %w", err)
	}
	return nil
}

func (r *QueueRepository) DeleteAll(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM matchmaking_queue WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete queue entries: %w", err)
	}
	return nil
}

func scanEntry(row pgx.Row) (*matchmaking.Entry, error) {
	var e matchmaking.Entry
	var mode string
	err := row.Scan(&e.ID, &e.UserID, &mode, &e.Elo, &e.Status, &e.MatchID, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan queue entry: %w", err)
	}
	e.Mode = problem.Mode(mode)
	return &e, nil
}
