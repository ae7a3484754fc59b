package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_services.go -package=mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/limbo/habitstreak/pkg/entity"
)

type UserServiceI interface {
	// Validates user's credentials, creates new row in database. Returns user's data with ID
	Register(ctx context.Context, req *RegisterRequest) (*entity.User, error)
	// Compares given credentials. If ok, give back user's data with ID.
	Login(ctx context.Context, name, password string) (*entity.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByName(ctx context.Context, name string) (*entity.User, error)
	DeleteAccount(ctx context.Context, id uuid.UUID, password string) error
}

type HabitsServiceI interface {
	CreateHabit(ctx context.Context, uid uuid.UUID, req *CreateHabitRequest) (*entity.Habit, error)
	// Lists a page of habits with today's and current period's progress
	GetUserHabits(ctx context.Context, uid uuid.UUID, pagination PaginationOpts) ([]*entity.HabitStatus, error)
	GetHabit(ctx context.Context, habitID, userID uuid.UUID) (*entity.Habit, error)
	UpdateHabit(ctx context.Context, habitID, userID uuid.UUID, req *UpdateHabitRequest) (*entity.Habit, error)
	DeleteHabit(ctx context.Context, habitID, userID uuid.UUID) error
}

type StreakServiceI interface {
	// Records a completion for today and advances streaks when the daily target is met
	CompleteHabit(ctx context.Context, habitID, userID uuid.UUID, notes string) (*entity.CompletionResult, error)
	GetHabitCompletions(ctx context.Context, habitID, userID uuid.UUID, from, to time.Time) ([]entity.Completion, error)
}

type StatsServiceI interface {
	GetStats(ctx context.Context, uid uuid.UUID) (*entity.UserStats, error)
	CurrentDailyStreak(ctx context.Context, uid uuid.UUID) (int, error)
	Backfill(ctx context.Context) (int, error)
}

type AssistantServiceI interface {
	Suggest(ctx context.Context, uid uuid.UUID, query string) (string, error)
	GenerateHabits(ctx context.Context, uid uuid.UUID, query string) ([]entity.HabitSuggestion, error)
	Chat(ctx context.Context, uid uuid.UUID, message string) (*entity.ChatMessage, error)
	ChatHistory(ctx context.Context, uid uuid.UUID) ([]*entity.ChatMessage, error)
	Insights(ctx context.Context, uid uuid.UUID) (string, error)
}
