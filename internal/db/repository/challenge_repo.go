package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/axiomduel/platform/internal/challenge"
	"github.com/axiomduel/platform/internal/game/problem"
)

// ChallengeRepository persists duel invitations.
type ChallengeRepository struct {
	pool *pgxpool.Pool
}

func NewChallengeRepository(pool *pgxpool.Pool) *ChallengeRepository {
	return &ChallengeRepository{pool: pool}
}

const challengeColumns = `id, challenger_id, challenged_id, mode, status, match_id, created_at`

func (r *ChallengeRepository) Insert(ctx context.Context, c challenge.Challenge) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO challenges (id, challenger_id, challenged_id, mode, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.ChallengerID, c.ChallengedID, string(c.Mode), c.Status, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert challenge: %w", err)
	}
	return nil
}

func (r *ChallengeRepository) Get(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+challengeColumns+` FROM challenges WHERE id = $1`, id)
	return scanChallenge(row)
}

// Settle conditionally transitions a pending challenge.
func (r *ChallengeRepository) Settle(ctx context.Context, id uuid.UUID, status string, matchID *uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE challenges
		 SET status = $2, match_id = $3
		 WHERE id = $1 AND status = 'pending'`,
		id, status, matchID)
	if err != nil {
		return false, fmt.Errorf("settle challenge: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ChallengeRepository) PendingFor(ctx context.Context, userID uuid.UUID, cutoff time.Time) ([]challenge.Challenge, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+challengeColumns+`
		 FROM challenges
		 WHERE challenged_id = $1 AND status = 'pending' AND created_at >= $2
		 ORDER BY created_at DESC`,
		userID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list pending challenges: %w", err)
	}
	defer rows.Close()

	var challenges []challenge.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		challenges = append(challenges, *c)
	}
	return challenges, rows.Err()
}

func (r *ChallengeRepository) ExpireBefore(ctx context.Context, cutoff time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE challenges SET status = 'expired'
		 WHERE status = 'pending' AND created_at < $1`,
		cutoff)
	if err != nil {
		return fmt.Errorf("expire challenges: %w", err)
	}
	return nil
}

func scanChallenge(row pgx.Row) (*challenge.Challenge, error) {
	var c challenge.Challenge
	var mode string
	err := row.Scan(&c.ID, &c.ChallengerID, &c.ChallengedID, &mode, &c.Status, &c.MatchID, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan challenge: %w", err)
	}
	c.Mode = problem.Mode(mode)
	return &c, nil
}
