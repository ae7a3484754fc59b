package entity

import (
	"time"

	"github.com/google/uuid"
)

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type Habit struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"uid"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Frequency     Frequency `json:"frequency"`
	TargetCount   int       `json:"target_count"`
	CurrentStreak int       `json:"current_streak"`
	LongestStreak int       `json:"longest_streak"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HabitStatus is a habit together with its progress in the current day and period.
type HabitStatus struct {
	*Habit
	TodayCompletions  int  `json:"today_completions"`
	IsCompletedToday  bool `json:"is_completed_today"`
	PeriodCompletions int  `json:"period_completions"`
	IsCompletedPeriod bool `json:"is_completed_period"`
}

// Completion is an immutable ledger entry. One is written per completion action.
type Completion struct {
	ID          uuid.UUID `json:"id"`
	HabitID     uuid.UUID `json:"habit_id"`
	CompletedAt time.Time `json:"completed_at"`
	Notes       string    `json:"notes"`
}

type CompletionResult struct {
	Habit            *Habit `json:"habit"`
	TodayCompletions int    `json:"today_completions"`
	IsCompletedToday bool   `json:"is_completed_today"`
}

type UserStats struct {
	UserID             uuid.UUID `json:"-"`
	TotalHabitsCreated int       `json:"total_habits_created"`
	TotalCompletions   int       `json:"total_completions"`
	LongestDailyStreak int       `json:"longest_daily_streak"`
}

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

type ChatMessage struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"-"`
	Role      ChatRole  `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// HabitSuggestion is a habit proposal that has not been persisted.
type HabitSuggestion struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Frequency   Frequency `json:"frequency"`
	TargetCount int       `json:"target_count"`
}
