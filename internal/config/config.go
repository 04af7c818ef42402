package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"axiomduel"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres    Postgres
	Redis       Redis
	Security    Security
	Game        Game
	Leaderboard Leaderboard
	CORS        CORS
}

// Postgres captures connection info for the SQL database.
type Postgres struct {
	Host     string `env:"PG_HOST,notEmpty"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER,notEmpty"`
	Password string `env:"PG_PASSWORD,notEmpty"`
	Database string `env:"PG_DATABASE,notEmpty"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
	MaxConns int    `env:"PG_MAX_CONNS" envDefault:"10"`
}

// DSN renders the connection string for pgx.
func (p Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

// Redis holds cache + pub/sub configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR,notEmpty"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Security stores secrets for token validation.
type Security struct {
	JWTSecret string `env:"JWT_SECRET,notEmpty"`
	JWTIssuer string `env:"JWT_ISSUER" envDefault:"axiomduel"`
}

// Game groups the duel gameplay tunables.
type Game struct {
	MatchDuration     time.Duration `env:"MATCH_DURATION" envDefault:"120s"`
	CountdownDuration time.Duration `env:"COUNTDOWN_DURATION" envDefault:"3s"`
	ReadyFallback     time.Duration `env:"READY_FALLBACK" envDefault:"2s"`
	ProblemsPerMatch  int           `env:"PROBLEMS_PER_MATCH" envDefault:"50"`
	EloK              int           `env:"ELO_K_FACTOR" envDefault:"18"`
	EloBand           int           `env:"ELO_MATCH_BAND" envDefault:"300"`
	// StalenessBuffer pads the match duration when judging whether a match
	// or queue entry is still live.
	StalenessBuffer time.Duration `env:"STALENESS_BUFFER" envDefault:"30s"`
	ChallengeTTL    time.Duration `env:"CHALLENGE_TTL" envDefault:"10m"`
}

// StalenessWindow is the total age beyond which matchmaking state is
// treated as abandoned.
func (g Game) StalenessWindow() time.Duration {
	return g.MatchDuration + g.CountdownDuration + g.StalenessBuffer
}

// Leaderboard governs ranking rebuilds and broadcast behavior.
type Leaderboard struct {
	TopN            int           `env:"LEADERBOARD_TOP" envDefault:"50"`
	PubSubChannel   string        `env:"LEADERBOARD_CHANNEL" envDefault:"lb:updates"`
	RebuildInterval time.Duration `env:"LEADERBOARD_REBUILD_INTERVAL" envDefault:"5m"`
	RebuildTopN     int           `env:"LEADERBOARD_REBUILD_TOP" envDefault:"500"`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
