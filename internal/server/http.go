package server

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/axiomduel/platform/internal/auth"
	"github.com/axiomduel/platform/internal/config"
)

// Handlers collects the route handlers wired by the application layer.
type Handlers struct {
	Matchmaking http.HandlerFunc
	Matches     http.HandlerFunc
	Challenges  http.HandlerFunc
	Leaderboard http.HandlerFunc
	DuelWS      http.HandlerFunc
}

// NewHTTPServer wires the API routes. All /v1 routes pass through the auth
// middleware; handlers that need an identity check claims themselves.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, redis *redis.Client, authMW func(http.Handler) http.Handler, h Handlers) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := pingDependencies(r.Context(), pool, redis); err != nil {
			logger.Error().Err(err).Msg("dependency ping failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"degraded"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	if h.Matchmaking != nil {
		mux.Handle("/v1/matchmaking", authMW(auth.RequireAuth(h.Matchmaking)))
	}
	if h.Matches != nil {
		mux.Handle("/v1/matches/", authMW(auth.RequireAuth(h.Matches)))
	}
	if h.Challenges != nil {
		challenges := authMW(auth.RequireAuth(h.Challenges))
		mux.Handle("/v1/challenges", challenges)
		mux.Handle("/v1/challenges/", challenges)
	}
	if h.Leaderboard != nil {
		// Leaderboard reads are public.
		mux.Handle("/v1/leaderboard", authMW(h.Leaderboard))
	}

	// The WebSocket handler authenticates via query-param token; browsers
	// cannot set headers on WebSocket dials.
	if h.DuelWS != nil {
		mux.HandleFunc("/ws/duel", h.DuelWS)
	}

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: withCORS(cfg.CORS, mux),
	}
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, redis *redis.Client) error {
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	if err := redis.Ping(ctx).Err(); err != nil {
		return err
	}
	return nil
}
