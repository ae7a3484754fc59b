package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

const geminiPlaceholderKey = "your_gemini_api_key_here"

type Config struct {
	APIAddress string `env:"API_ADDRESS,default=:8080"`

	PostgresAddress  string `env:"POSTGRES_DB_ADDRESS,default=localhost:5432"`
	PostgresUser     string `env:"POSTGRES_USER,default=postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD"`
	PostgresDB       string `env:"POSTGRES_DB,default=habitstreak"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE,default=disable"`
	MigrationsDir    string `env:"MIGRATIONS_DIR,default=./migrations"`

	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL,default=168h"`

	// Empty means completions are serialized in-process only.
	RedisAddress string `env:"REDIS_ADDRESS"`

	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
	GeminiModel   string `env:"GEMINI_MODEL,default=gemini-2.0-flash"`
	GeminiBaseURL string `env:"GEMINI_BASE_URL,default=https://generativelanguage.googleapis.com"`

	FrontendOrigin string `env:"FRONTEND_ORIGIN,default=http://localhost:3000"`

	AIRateLimit float64 `env:"AI_RATE_LIMIT,default=1"`
	AIRateBurst int     `env:"AI_RATE_BURST,default=5"`

	StatsBackfillInterval time.Duration `env:"STATS_BACKFILL_INTERVAL,default=1h"`
}

// Load reads envFile if it exists, then decodes the environment. Variables
// already present in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, errors.New("loading env file error: " + err.Error())
		}
	}
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, errors.New("decoding envs error: " + err.Error())
	}
	if strings.TrimSpace(cfg.GeminiAPIKey) == geminiPlaceholderKey {
		cfg.GeminiAPIKey = ""
	}
	if cfg.JWTTTL <= 0 {
		return nil, errors.New("JWT_TTL must be positive")
	}
	if cfg.StatsBackfillInterval <= 0 {
		return nil, errors.New("STATS_BACKFILL_INTERVAL must be positive")
	}
	return &cfg, nil
}

// AIConfigured reports whether a usable Gemini key is set.
func (c *Config) AIConfigured() bool {
	return c.GeminiAPIKey != ""
}
