package service

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/limbo/habitstreak/internal/metrics"
	"github.com/limbo/habitstreak/internal/repository"
	"github.com/limbo/habitstreak/pkg/calendar"
	"github.com/limbo/habitstreak/pkg/entity"
)

type StatsService struct {
	habits      repository.HabitsRepositoryI
	completions repository.CompletionsRepositoryI
	activity    repository.DailyActivityRepositoryI
	stats       repository.UserStatsRepositoryI
	clock       calendar.Clock
}

func NewStatsService(repos StreakRepos, clock calendar.Clock) *StatsService {
	if repos.Habits == nil || repos.Completions == nil || repos.Activity == nil || repos.Stats == nil {
		log.Fatal("provided nil repos for stats service")
	}
	if clock == nil {
		clock = calendar.SystemClock{}
	}
	return &StatsService{
		habits:      repos.Habits,
		completions: repos.Completions,
		activity:    repos.Activity,
		stats:       repos.Stats,
		clock:       clock,
	}
}

// GetStats returns stored lifetime counters without recomputing them.
func (ss *StatsService) GetStats(ctx context.Context, uid uuid.UUID) (*entity.UserStats, error) {
	stats, err := ss.stats.GetOrCreate(ctx, uid)
	if err != nil {
		return nil, errors.New("stats repository error: " + err.Error())
	}
	return stats, nil
}

// CurrentDailyStreak counts consecutive active days ending today, or yesterday if today has no activity yet.
// A higher result is ratcheted into the stored longest daily streak.
func (ss *StatsService) CurrentDailyStreak(ctx context.Context, uid uuid.UUID) (int, error) {
	days, err := ss.activity.ActiveDays(ctx, uid)
	if err != nil {
		return 0, errors.New("daily activity repository error: " + err.Error())
	}
	if len(days) == 0 {
		return 0, nil
	}
	set := calendar.NewDaySet(days...)
	today := calendar.Day(ss.clock.Now())
	var anchor time.Time
	switch {
	case set.Has(today):
		anchor = today
	case set.Has(today.AddDate(0, 0, -1)):
		anchor = today.AddDate(0, 0, -1)
	default:
		return 0, nil
	}
	streak := set.RunEndingAt(anchor)
	if _, err = ss.stats.RaiseLongestDailyStreak(ctx, uid, streak); err != nil {
		slog.Default().Error("raising longest daily streak failed",
			slog.String("uid", uid.String()), slog.String("error", err.Error()))
		metrics.RecordDerivationFailure("longest_daily_streak")
	}
	return streak, nil
}

// Backfill builds stats from history for every user that has none. Existing stats are never overwritten.
// Returns the number of users that got stats.
func (ss *StatsService) Backfill(ctx context.Context) (int, error) {
	uids, err := ss.stats.UserIDsWithoutStats(ctx)
	if err != nil {
		return 0, errors.New("stats repository error: " + err.Error())
	}
	created := 0
	for _, uid := range uids {
		if err = ctx.Err(); err != nil {
			return created, err
		}
		stats, err := ss.rebuild(ctx, uid)
		if err != nil {
			return created, err
		}
		ok, err := ss.stats.CreateIfAbsent(ctx, stats)
		if err != nil {
			return created, errors.New("stats repository error: " + err.Error())
		}
		if ok {
			created++
		}
	}
	metrics.RecordBackfill(created)
	return created, nil
}

func (ss *StatsService) rebuild(ctx context.Context, uid uuid.UUID) (*entity.UserStats, error) {
	habitsCount, err := ss.habits.CountByUserID(ctx, uid)
	if err != nil {
		return nil, errors.New("habits repository error: " + err.Error())
	}
	completionsCount, err := ss.completions.CountByUserID(ctx, uid)
	if err != nil {
		return nil, errors.New("completions repository error: " + err.Error())
	}
	days, err := ss.activity.ActiveDays(ctx, uid)
	if err != nil {
		return nil, errors.New("daily activity repository error: " + err.Error())
	}
	return &entity.UserStats{
		UserID:             uid,
		TotalHabitsCreated: habitsCount,
		TotalCompletions:   completionsCount,
		LongestDailyStreak: calendar.LongestRun(days),
	}, nil
}
