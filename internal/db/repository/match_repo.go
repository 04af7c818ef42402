package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/axiomduel/platform/internal/game/problem"
	"github.com/axiomduel/platform/internal/match"
)

// MatchRepository persists matches. Completion is a guarded UPDATE on
// status so that exactly one of the two racing participants finalizes.
type MatchRepository struct {
	pool *pgxpool.Pool
}

func NewMatchRepository(pool *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{pool: pool}
}

const matchColumns = `id, mode, seed, player1_id, player2_id,
	player1_elo_before, player2_elo_before, player1_elo_after, player2_elo_after,
	player1_score, player2_score, winner_id, status, created_at, completed_at`

func (r *MatchRepository) Create(ctx context.Context, m *match.Match) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO matches (
			id, mode, seed, player1_id, player2_id,
			player1_elo_before, player2_elo_before, player1_elo_after, player2_elo_after,
			status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		m.ID, string(m.Mode), m.Seed, m.Player1ID, m.Player2ID,
		m.Player1EloBefore, m.Player2EloBefore, m.Player1EloAfter, m.Player2EloAfter,
		m.Status, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

func (r *MatchRepository) Get(ctx context.Context, id uuid.UUID) (*match.Match, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE id = $1`, id)
	return scanMatch(row)
}

// ActiveForPlayer lists the player's in-progress matches, newest first.
func (r *MatchRepository) ActiveForPlayer(ctx context.Context, userID uuid.UUID) ([]match.Match, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+matchColumns+`
		 FROM matches
		 WHERE status = 'in_progress' AND (player1_id = $1 OR player2_id = $1)
		 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list active matches: %w", err)
	}
	defer rows.Close()

	var matches []match.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, *m)
	}
	return matches, rows.Err()
}

// ExpireStaleForPlayer closes abandoned matches. No ratings are settled for
// these; they simply stop blocking the player from re-queueing.
func (r *MatchRepository) ExpireStaleForPlayer(ctx context.Context, userID uuid.UUID, cutoff time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE matches
		 SET status = 'completed', completed_at = now()
		 WHERE status = 'in_progress'
		   AND (player1_id = $1 OR player2_id = $1)
		   AND created_at < $2`,
		userID, cutoff)
	if err != nil {
		return fmt.Errorf("expire stale matches: %w", err)
	}
	return nil
}

// CompleteGuarded finalizes an in-progress match, reporting whether this
// call performed the transition.
func (r *MatchRepository) CompleteGuarded(ctx context.Context, params match.CompleteParams) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE matches
		 SET player1_score = $2,
		     player2_score = $3,
		     player1_elo_after = $4,
		     player2_elo_after = $5,
		     winner_id = $6,
		     status = 'completed',
		     completed_at = $7
		 WHERE id = $1 AND status = 'in_progress'`,
		params.MatchID, params.Player1Score, params.Player2Score,
		params.Player1EloAfter, params.Player2EloAfter,
		params.WinnerID, params.CompletedAt)
	if err != nil {
		return false, fmt.Errorf("complete match: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// RecentForPlayer lists the player's latest completed matches.
func (r *MatchRepository) RecentForPlayer(ctx context.Context, userID uuid.UUID, limit int) ([]match.Match, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+matchColumns+`
		 FROM matches
		 WHERE status = 'completed' AND (player1_id = $1 OR player2_id = $1)
		 ORDER BY completed_at DESC NULLS LAST
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent matches: %w", err)
	}
	defer rows.Close()

	var matches []match.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, *m)
	}
	return matches, rows.Err()
}

func scanMatch(row pgx.Row) (*match.Match, error) {
	var m match.Match
	var mode string
	err := row.Scan(
		&m.ID, &mode, &m.Seed, &m.Player1ID, &m.Player2ID,
		&m.Player1EloBefore, &m.Player2EloBefore, &m.Player1EloAfter, &m.Player2EloAfter,
		&m.Player1Score, &m.Player2Score, &m.WinnerID, &m.Status, &m.CreatedAt, &m.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan match: %w", err)
	}
	m.Mode = problem.Mode(mode)
	return &m, nil
}
