package service

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"time"

	"github.com/google/uuid"
	errorvalues "github.com/limbo/habitstreak/internal/error_values"
	"github.com/limbo/habitstreak/internal/lock"
	"github.com/limbo/habitstreak/internal/metrics"
	"github.com/limbo/habitstreak/internal/repository"
	"github.com/limbo/habitstreak/pkg/calendar"
	"github.com/limbo/habitstreak/pkg/entity"
)

const defaultHistoryDays = 30

type StreakRepos struct {
	Habits      repository.HabitsRepositoryI
	Completions repository.CompletionsRepositoryI
	Activity    repository.DailyActivityRepositoryI
	Stats       repository.UserStatsRepositoryI
}

// StreakService records completions and keeps habit streaks, daily activity and lifetime stats in step with them.
type StreakService struct {
	habits      repository.HabitsRepositoryI
	completions repository.CompletionsRepositoryI
	activity    repository.DailyActivityRepositoryI
	stats       repository.UserStatsRepositoryI
	locker      lock.Locker
	clock       calendar.Clock
}

func NewStreakService(repos StreakRepos, locker lock.Locker, clock calendar.Clock) *StreakService {
	if repos.Habits == nil || repos.Completions == nil || repos.Activity == nil || repos.Stats == nil {
		log.Fatal("provided nil repos for streak service")
	}
	if locker == nil {
		locker = lock.NewMemoryLocker()
	}
	if clock == nil {
		clock = calendar.SystemClock{}
	}
	return &StreakService{
		habits:      repos.Habits,
		completions: repos.Completions,
		activity:    repos.Activity,
		stats:       repos.Stats,
		locker:      locker,
		clock:       clock,
	}
}

// CompleteHabit appends one completion for today. At most target_count completions per day are admitted.
// Once the target is met the habit streak, user's daily activity and stats are updated.
// Those updates are best effort: the recorded completion stays even if they fail.
func (ss *StreakService) CompleteHabit(ctx context.Context, habitID, userID uuid.UUID, notes string) (*entity.CompletionResult, error) {
	unlock, err := ss.locker.Lock(ctx, "habit:"+habitID.String())
	if err != nil {
		metrics.RecordCompletion(metrics.OutcomeError)
		return nil, errors.New("acquiring habit lock error: " + err.Error())
	}
	defer unlock()

	habit, err := ss.habits.GetByID(ctx, habitID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrHabitNotFound) {
			metrics.RecordCompletion(metrics.OutcomeRejected)
			return nil, err
		}
		metrics.RecordCompletion(metrics.OutcomeError)
		return nil, errors.New("habits repository error: " + err.Error())
	}
	if habit.UserID != userID {
		metrics.RecordCompletion(metrics.OutcomeRejected)
		return nil, errorvalues.ErrWrongOwner
	}

	now := ss.clock.Now().UTC()
	today := calendar.Day(now)
	count, err := ss.completions.CountOnDay(ctx, habitID, today)
	if err != nil {
		metrics.RecordCompletion(metrics.OutcomeError)
		return nil, errors.New("completions repository error: " + err.Error())
	}
	if count >= habit.TargetCount {
		metrics.RecordCompletion(metrics.OutcomeAlreadyCompleted)
		return nil, errorvalues.ErrAlreadyCompleted
	}
	if _, err = ss.completions.Record(ctx, habitID, notes, now); err != nil {
		metrics.RecordCompletion(metrics.OutcomeError)
		return nil, errors.New("completions repository error: " + err.Error())
	}
	count++

	if count < habit.TargetCount {
		metrics.RecordCompletion(metrics.OutcomePartial)
	} else {
		metrics.RecordCompletion(metrics.OutcomeTargetMet)
		ss.applyTargetMet(ctx, habit, today)
	}

	return &entity.CompletionResult{
		Habit:            habit,
		TodayCompletions: count,
		IsCompletedToday: count >= habit.TargetCount,
	}, nil
}

// applyTargetMet advances the derived state after the ledger append. habit is updated in place.
func (ss *StreakService) applyTargetMet(ctx context.Context, habit *entity.Habit, today time.Time) {
	logger := slog.Default().With(
		slog.String("habit_id", habit.ID.String()),
		slog.String("uid", habit.UserID.String()),
	)
	fail := func(step string, err error) {
		logger.Error("streak derivation step failed", slog.String("step", step), slog.String("error", err.Error()))
		metrics.RecordDerivationFailure(step)
	}

	continued, err := ss.completions.ExistsOnDay(ctx, habit.ID, today.AddDate(0, 0, -1))
	if err != nil {
		fail("habit_streak", err)
	} else {
		current := 1
		if continued {
			current = habit.CurrentStreak + 1
		}
		longest := max(habit.LongestStreak, current)
		if err = ss.habits.UpdateStreaks(ctx, habit.ID, current, longest); err != nil {
			fail("habit_streak", err)
		} else {
			habit.CurrentStreak, habit.LongestStreak = current, longest
		}
	}

	if err = ss.activity.MarkActive(ctx, habit.UserID, today); err != nil {
		fail("daily_activity", err)
	}
	if err = ss.stats.Increment(ctx, habit.UserID, repository.StatsTotalCompletions, 1); err != nil {
		fail("total_completions", err)
	}

	days, err := ss.activity.ActiveDays(ctx, habit.UserID)
	if err != nil {
		fail("longest_daily_streak", err)
		return
	}
	run := calendar.NewDaySet(days...).RunEndingAt(today)
	if _, err = ss.stats.RaiseLongestDailyStreak(ctx, habit.UserID, run); err != nil {
		fail("longest_daily_streak", err)
	}
}

// GetHabitCompletions lists ledger entries in [from, to). Zero bounds mean the last 30 days.
func (ss *StreakService) GetHabitCompletions(ctx context.Context, habitID, userID uuid.UUID, from, to time.Time) ([]entity.Completion, error) {
	habit, err := ss.habits.GetByID(ctx, habitID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrHabitNotFound) {
			return nil, err
		}
		return nil, errors.New("habits repository error: " + err.Error())
	}
	if habit.UserID != userID {
		return nil, errorvalues.ErrWrongOwner
	}
	if to.IsZero() {
		to = calendar.Day(ss.clock.Now()).AddDate(0, 0, 1)
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -defaultHistoryDays)
	}
	if !from.Before(to) {
		return nil, errors.Join(errorvalues.ErrValidation, errors.New("from must be before to"))
	}
	completions, err := ss.completions.GetByHabitAndDateRange(ctx, habitID, from, to)
	if err != nil {
		return nil, errors.New("completions repository error: " + err.Error())
	}
	return completions, nil
}
