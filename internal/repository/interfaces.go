package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/limbo/habitstreak/pkg/entity"
)

type UsersRepositoryI interface {
	// Creates new user in database
	Create(ctx context.Context, user *entity.User) error
	// Looks up user by name. Can be used for login
	FindByName(ctx context.Context, name string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	// Looks up user by uid. Can be used for authorization middleware
	FindByID(ctx context.Context, uid uuid.UUID) (*entity.User, error)
	// Deletes user with all owned data
	Delete(ctx context.Context, uid uuid.UUID) error
}

type HabitsRepositoryI interface {
	// Creates new habit in database and returns its id
	Create(ctx context.Context, habit *entity.Habit) (uuid.UUID, error)
	// Searches habit with given id
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Habit, error)
	// Lists habits owned by user with uid. Requires pagination params provided
	GetByUserID(ctx context.Context, uid uuid.UUID, limit, offset int) ([]*entity.Habit, error)
	GetAllByUserID(ctx context.Context, uid uuid.UUID) ([]*entity.Habit, error)
	// Updates configuration fields (title, description, frequency, target count)
	Update(ctx context.Context, habit *entity.Habit) error
	UpdateStreaks(ctx context.Context, id uuid.UUID, current, longest int) error
	// Deletes habit with id together with its completions
	Delete(ctx context.Context, id uuid.UUID) error
	CountByUserID(ctx context.Context, uid uuid.UUID) (int, error)
}

// CompletionsRepositoryI is the append-only completion ledger.
type CompletionsRepositoryI interface {
	Record(ctx context.Context, habitID uuid.UUID, notes string, at time.Time) (uuid.UUID, error)
	// Counts completions with completed_at in [from, to)
	CountInWindow(ctx context.Context, habitID uuid.UUID, from, to time.Time) (int, error)
	CountOnDay(ctx context.Context, habitID uuid.UUID, day time.Time) (int, error)
	ExistsOnDay(ctx context.Context, habitID uuid.UUID, day time.Time) (bool, error)
	// Provides completions of habitID in [from, to)
	GetByHabitAndDateRange(ctx context.Context, habitID uuid.UUID, from, to time.Time) ([]entity.Completion, error)
	CountByHabitID(ctx context.Context, habitID uuid.UUID) (int, error)
	CountByUserID(ctx context.Context, uid uuid.UUID) (int, error)
}

type DailyActivityRepositoryI interface {
	// Idempotent: marking the same day twice is a no-op
	MarkActive(ctx context.Context, uid uuid.UUID, day time.Time) error
	ActiveDays(ctx context.Context, uid uuid.UUID) ([]time.Time, error)
}

type UserStatsRepositoryI interface {
	GetOrCreate(ctx context.Context, uid uuid.UUID) (*entity.UserStats, error)
	// Adds non-negative delta to a counter, creating zeroed stats first if needed
	Increment(ctx context.Context, uid uuid.UUID, field StatsField, delta int) error
	// Stores streak as longest daily streak only if it is greater than the stored one
	RaiseLongestDailyStreak(ctx context.Context, uid uuid.UUID, streak int) (bool, error)
	// Inserts stats unless the user already has them
	CreateIfAbsent(ctx context.Context, stats *entity.UserStats) (bool, error)
	UserIDsWithoutStats(ctx context.Context) ([]uuid.UUID, error)
}

type ChatMessagesRepositoryI interface {
	Create(ctx context.Context, msg *entity.ChatMessage) (*entity.ChatMessage, error)
	// Lists user's messages in creation order
	GetByUserID(ctx context.Context, uid uuid.UUID) ([]*entity.ChatMessage, error)
}

type StatsField string

const (
	StatsTotalHabitsCreated StatsField = "total_habits_created"
	StatsTotalCompletions   StatsField = "total_completions"
)

type DBConfig interface {
	ConnString() string
}

type PgConnection interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PGCfg struct {
	Address  string
	Username string
	Password string
	DB       string
	// Passed as sslmode when set. lib/pq defaults to require
	SSLMode string
}

func (pgcfg *PGCfg) ConnString() string {
	connStr := fmt.Sprintf("postgresql://%s:%s@%s/%s", pgcfg.Username, pgcfg.Password, pgcfg.Address, pgcfg.DB)
	if pgcfg.SSLMode != "" {
		connStr += "?sslmode=" + pgcfg.SSLMode
	}
	return connStr
}
