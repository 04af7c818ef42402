package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/axiomduel/platform/internal/player"
)

// ProfileRepository persists player profiles.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

const profileColumns = `id, display_name, elo_rating, total_wins, total_losses, total_draws, created_at, updated_at`

// Get fetches a profile by id, returning nil when it does not exist.
func (r *ProfileRepository) Get(ctx context.Context, id uuid.UUID) (*player.Profile, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	return scanProfile(row)
}

// FindByDisplayName resolves a profile by its display name, returning nil
// when no player uses it.
func (r *ProfileRepository) FindByDisplayName(ctx context.Context, name string) (*player.Profile, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE display_name = $1`, name)
	return scanProfile(row)
}

// Ensure creates the profile at the starting rating if it does not exist
// yet, then returns the current record. Called on first authenticated
// request per user.
func (r *ProfileRepository) Ensure(ctx context.Context, id uuid.UUID, displayName string) (*player.Profile, error) {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO profiles (id, display_name, elo_rating)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO NOTHING`,
		id, displayName, player.StartingRating)
	if err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}
	return r.Get(ctx, id)
}

// ApplyMatchResult sets the player's new rating and bumps the result
// counters in one statement.
func (r *ProfileRepository) ApplyMatchResult(ctx context.Context, id uuid.UUID, newRating, wins, losses, draws int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE profiles
		 SET elo_rating = $2,
		     total_wins = total_wins + $3,
		     total_losses = total_losses + $4,
		     total_draws = total_draws + $5,
		     updated_at = now()
		 WHERE id = $1`,
		id, newRating, wins, losses, draws)
	if err != nil {
		return fmt.Errorf("apply match result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("apply match result: profile %s not found", id)
	}
	return nil
}

// TopByRating returns the highest-rated profiles, for leaderboard rebuilds.
func (r *ProfileRepository) TopByRating(ctx context.Context, limit int) ([]player.Profile, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+profileColumns+` FROM profiles ORDER BY elo_rating DESC, display_name ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list top profiles: %w", err)
	}
	defer rows.Close()

	var profiles []player.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

func scanProfile(row pgx.Row) (*player.Profile, error) {
	var p player.Profile
	err := row.Scan(&p.ID, &p.DisplayName, &p.EloRating, &p.TotalWins, &p.TotalLosses, &p.TotalDraws, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	return &p, nil
}
