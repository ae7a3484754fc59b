package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/limbo/habitstreak/internal/api"
	"github.com/limbo/habitstreak/internal/jobs"
	"github.com/limbo/habitstreak/internal/lock"
	"github.com/limbo/habitstreak/internal/repository"
	"github.com/limbo/habitstreak/internal/service"
	"github.com/limbo/habitstreak/pkg/calendar"
	"github.com/limbo/habitstreak/pkg/cleanup"
	"github.com/limbo/habitstreak/pkg/config"
	"github.com/limbo/habitstreak/pkg/genai"
	jwtservice "github.com/limbo/habitstreak/pkg/jwt_service"
)

const (
	habitLockTTL   = 30 * time.Second
	limiterIdleTTL = 30 * time.Minute
)

type ServeCmd struct{}

func (c *ServeCmd) Run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer cleanup.CleanUp()

	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	dbCfg := pgConfig(cfg)
	if err := repository.Migrate(dbCfg, cfg.MigrationsDir); err != nil {
		return err
	}
	pool, err := repository.NewPool(ctx, dbCfg)
	if err != nil {
		return err
	}
	locker, err := newLocker(ctx, cfg)
	if err != nil {
		return err
	}

	clock := calendar.SystemClock{}
	repos := streakRepos(pool)
	usersRepo := repository.NewUsersRepo(pool)
	chatRepo := repository.NewChatMessagesRepo(pool)
	gen := genai.New(genai.Config{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
	})
	if !gen.Configured() {
		slog.Warn("GEMINI_API_KEY not set, assistant answers with baseline texts")
	}

	statsService := service.NewStatsService(repos, clock)
	backfillOnce(ctx, statsService)

	limiter := api.NewRateLimiter(cfg.AIRateLimit, cfg.AIRateBurst, limiterIdleTTL)
	scheduler, err := jobs.New(statsService, limiter, jobs.Options{BackfillInterval: cfg.StatsBackfillInterval})
	if err != nil {
		return err
	}
	scheduler.Start()
	cleanup.Register(&cleanup.Job{Name: "stopping scheduler", F: scheduler.Shutdown})

	server := api.New(&api.ServicesList{
		UserService:      service.NewUserService(usersRepo),
		HabitsService:    service.NewHabitsService(repos.Habits, repos.Completions, repos.Stats, clock),
		StreakService:    service.NewStreakService(repos, locker, clock),
		StatsService:     statsService,
		AssistantService: service.NewAssistantService(repos.Habits, repos.Completions, chatRepo, gen),
		JwtService:       jwtservice.New(cfg.JWTSecret, cfg.JWTTTL),
		AILimiter:        limiter,
		AllowedOrigins:   []string{cfg.FrontendOrigin},
	})
	return server.Run(ctx, cfg.APIAddress)
}

type MigrateCmd struct{}

func (c *MigrateCmd) Run(cfg *config.Config) error {
	if err := repository.Migrate(pgConfig(cfg), cfg.MigrationsDir); err != nil {
		return err
	}
	slog.Info("migrations applied", slog.String("dir", cfg.MigrationsDir))
	return nil
}

type BackfillStatsCmd struct{}

func (c *BackfillStatsCmd) Run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer cleanup.CleanUp()

	pool, err := repository.NewPool(ctx, pgConfig(cfg))
	if err != nil {
		return err
	}
	created, err := service.NewStatsService(streakRepos(pool), calendar.SystemClock{}).Backfill(ctx)
	if err != nil {
		return err
	}
	slog.Info("stats backfill finished", slog.Int("created", created))
	return nil
}

func pgConfig(cfg *config.Config) *repository.PGCfg {
	return &repository.PGCfg{
		Address:  cfg.PostgresAddress,
		Username: cfg.PostgresUser,
		Password: cfg.PostgresPassword,
		DB:       cfg.PostgresDB,
		SSLMode:  cfg.PostgresSSLMode,
	}
}

func streakRepos(pool *pgxpool.Pool) service.StreakRepos {
	return service.StreakRepos{
		Habits:      repository.NewHabitsRepo(pool),
		Completions: repository.NewCompletionsRepo(pool),
		Activity:    repository.NewDailyActivityRepo(pool),
		Stats:       repository.NewUserStatsRepo(pool),
	}
}

// newLocker returns a Redis lock when REDIS_ADDRESS is set and an in-process one otherwise.
func newLocker(ctx context.Context, cfg *config.Config) (lock.Locker, error) {
	if cfg.RedisAddress == "" {
		return lock.NewMemoryLocker(), nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.New("pinging redis error: " + err.Error())
	}
	cleanup.Register(&cleanup.Job{Name: "closing redis client", F: client.Close})
	slog.Info("using redis for habit locks", slog.String("address", cfg.RedisAddress))
	return lock.NewRedisLocker(client, habitLockTTL), nil
}

func backfillOnce(ctx context.Context, stats *service.StatsService) {
	created, err := stats.Backfill(ctx)
	if err != nil {
		slog.Error("startup stats backfill failed", slog.String("error", err.Error()))
		return
	}
	slog.Info("startup stats backfill finished", slog.Int("created", created))
}
