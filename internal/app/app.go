package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/axiomduel/platform/internal/auth"
	"github.com/axiomduel/platform/internal/auth/jwt"
	"github.com/axiomduel/platform/internal/challenge"
	"github.com/axiomduel/platform/internal/config"
	"github.com/axiomduel/platform/internal/db/repository"
	"github.com/axiomduel/platform/internal/events"
	"github.com/axiomduel/platform/internal/game/elo"
	"github.com/axiomduel/platform/internal/gateway"
	"github.com/axiomduel/platform/internal/leaderboard"
	"github.com/axiomduel/platform/internal/logging"
	"github.com/axiomduel/platform/internal/match"
	"github.com/axiomduel/platform/internal/matchmaking"
	"github.com/axiomduel/platform/internal/server"
	ws "github.com/axiomduel/platform/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	lbBroadcaster *leaderboard.Broadcaster
	rebuildWorker *leaderboard.RebuildWorker
	bgCancels     []context.CancelFunc
}

// New bootstraps config, logger, Postgres, Redis and the duel services.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	pool, err := repository.NewPool(ctx, cfg.Postgres.DSN(), int32(cfg.Postgres.MaxConns))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	profileRepo := repository.NewProfileRepository(pool)
	queueRepo := repository.NewQueueRepository(pool)
	matchRepo := repository.NewMatchRepository(pool)
	challengeRepo := repository.NewChallengeRepository(pool)

	tokens := jwt.NewManager(jwt.TokenConfig{
		Secret: []byte(cfg.Security.JWTSecret),
		Issuer: cfg.Security.JWTIssuer,
	})

	leaderboardSvc := leaderboard.NewService(redisClient, logger, leaderboard.ServiceOptions{
		TopN:          cfg.Leaderboard.TopN,
		PubSubChannel: cfg.Leaderboard.PubSubChannel,
	})

	matchSvc := match.NewService(
		matchRepo,
		profileRepo,
		elo.NewCalculator(cfg.Game.EloK),
		leaderboardSvc,
		logger,
	)

	queueSvc := matchmaking.NewService(queueRepo, matchRepo, profileRepo, matchmaking.Config{
		EloBand:         cfg.Game.EloBand,
		StalenessWindow: cfg.Game.StalenessWindow(),
	}, logger)

	challengeSvc := challenge.NewService(challengeRepo, profileRepo, matchRepo, challenge.Config{
		TTL: cfg.Game.ChallengeTTL,
	}, logger)

	eventChannel := events.NewRedisChannel(redisClient, "", logger)
	wsHub := ws.NewHub(logger)

	gw := gateway.NewHandler(queueSvc, matchSvc, eventChannel, wsHub, gateway.Config{
		Controller: match.ControllerConfig{
			MatchDuration:     cfg.Game.MatchDuration,
			CountdownDuration: cfg.Game.CountdownDuration,
			ReadyFallback:     cfg.Game.ReadyFallback,
		},
		ProblemsPerMatch: cfg.Game.ProblemsPerMatch,
	}, logger)

	lbBroadcaster := leaderboard.NewBroadcaster(redisClient, wsHub, cfg.Leaderboard.PubSubChannel, logger)
	var rebuildWorker *leaderboard.RebuildWorker
	if cfg.Leaderboard.RebuildInterval > 0 {
		rebuildWorker = leaderboard.NewRebuildWorker(
			leaderboardSvc,
			profileRepo,
			cfg.Leaderboard.RebuildInterval,
			cfg.Leaderboard.RebuildTopN,
			logger,
		)
	}

	authMW := auth.Middleware(tokens, logger)
	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, authMW, server.Handlers{
		Matchmaking: matchmaking.NewHTTPHandler(queueSvc, profileRepo, logger).Handle,
		Matches:     match.NewHTTPHandler(matchSvc, logger).Handle,
		Challenges:  challenge.NewHTTPHandler(challengeSvc, logger).Handle,
		Leaderboard: leaderboard.NewHTTPHandler(leaderboardSvc, profileRepo, logger).HandleGet,
		DuelWS:      gw.HandleWebSocket(tokens),
	})

	return &Application{
		cfg:           cfg,
		logger:        logger,
		pool:          pool,
		redis:         redisClient,
		http:          apiServer,
		lbBroadcaster: lbBroadcaster,
		rebuildWorker: rebuildWorker,
		bgCancels:     make([]context.CancelFunc, 0, 2),
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	if a.lbBroadcaster != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.lbBroadcaster.Run(bgCtx); err != nil && err != context.Canceled {
				a.logger.Warn().Err(err).Msg("leaderboard broadcaster stopped")
			}
		}()
	}

	if a.rebuildWorker != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.rebuildWorker.Run(bgCtx); err != nil && err != context.Canceled {
				a.logger.Warn().Err(err).Msg("leaderboard rebuild worker stopped")
			}
		}()
	}
}
