package service

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	errorvalues "github.com/limbo/habitstreak/internal/error_values"
	"github.com/limbo/habitstreak/internal/metrics"
	"github.com/limbo/habitstreak/internal/repository"
	"github.com/limbo/habitstreak/pkg/calendar"
	"github.com/limbo/habitstreak/pkg/entity"
)

type HabitsService struct {
	repo        repository.HabitsRepositoryI
	completions repository.CompletionsRepositoryI
	stats       repository.UserStatsRepositoryI
	clock       calendar.Clock
}

func NewHabitsService(habitsRepo repository.HabitsRepositoryI, completionsRepo repository.CompletionsRepositoryI,
	statsRepo repository.UserStatsRepositoryI, clock calendar.Clock) *HabitsService {
	if habitsRepo == nil || completionsRepo == nil || statsRepo == nil {
		log.Fatal("provided nil repos for habits service")
	}
	if clock == nil {
		clock = calendar.SystemClock{}
	}
	return &HabitsService{
		repo:        habitsRepo,
		completions: completionsRepo,
		stats:       statsRepo,
		clock:       clock,
	}
}

func (hs *HabitsService) CreateHabit(ctx context.Context, uid uuid.UUID, req *CreateHabitRequest) (*entity.Habit, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	h := entity.Habit{
		UserID:      uid,
		Title:       req.Title,
		Description: req.Description,
		Frequency:   entity.Frequency(req.Frequency),
		TargetCount: 1,
	}
	if h.Frequency == "" {
		h.Frequency = entity.FrequencyDaily
	}
	if req.TargetCount != nil {
		h.TargetCount = *req.TargetCount
	}
	id, err := hs.repo.Create(ctx, &h)
	if err != nil {
		if errors.Is(err, errorvalues.ErrOwnerNotFound) {
			return nil, errorvalues.ErrUserNotFound
		}
		return nil, errors.New("habits repository error: " + err.Error())
	}
	if err = hs.stats.Increment(ctx, uid, repository.StatsTotalHabitsCreated, 1); err != nil {
		slog.Default().Error("incrementing created habits counter failed",
			slog.String("uid", uid.String()), slog.String("error", err.Error()))
		metrics.RecordDerivationFailure("total_habits_created")
	}
	habit, err := hs.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errorvalues.ErrHabitNotFound) {
			return nil, err
		}
		return nil, errors.New("habits repository error: " + err.Error())
	}
	return habit, nil
}

// GetUserHabits lists a page of user's habits with their progress for today and the current period.
func (hs *HabitsService) GetUserHabits(ctx context.Context, uid uuid.UUID, pagination PaginationOpts) ([]*entity.HabitStatus, error) {
	habits, err := hs.repo.GetByUserID(ctx, uid, pagination.Limit, pagination.Offset)
	if err != nil {
		return nil, errors.New("habits repository error: " + err.Error())
	}
	today := calendar.Day(hs.clock.Now())
	statuses := make([]*entity.HabitStatus, 0, len(habits))
	for _, h := range habits {
		status, err := hs.habitStatus(ctx, h, today)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func (hs *HabitsService) habitStatus(ctx context.Context, h *entity.Habit, today time.Time) (*entity.HabitStatus, error) {
	todayCount, err := hs.completions.CountOnDay(ctx, h.ID, today)
	if err != nil {
		return nil, errors.New("completions repository error: " + err.Error())
	}
	from, to := calendar.PeriodWindow(h.Frequency, today)
	periodCount, err := hs.completions.CountInWindow(ctx, h.ID, from, to)
	if err != nil {
		return nil, errors.New("completions repository error: " + err.Error())
	}
	return &entity.HabitStatus{
		Habit:             h,
		TodayCompletions:  todayCount,
		IsCompletedToday:  todayCount >= h.TargetCount,
		PeriodCompletions: periodCount,
		IsCompletedPeriod: periodCount >= h.TargetCount,
	}, nil
}

func (hs *HabitsService) GetHabit(ctx context.Context, habitID, userID uuid.UUID) (*entity.Habit, error) {
	habit, err := hs.repo.GetByID(ctx, habitID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrHabitNotFound) {
			return nil, err
		}
		return nil, errors.New("habits repository error: " + err.Error())
	}
	if habit.UserID != userID {
		return nil, errorvalues.ErrWrongOwner
	}
	return habit, nil
}

// UpdateHabit applies the provided configuration fields. Streak counters are never touched here.
func (hs *HabitsService) UpdateHabit(ctx context.Context, habitID, userID uuid.UUID, req *UpdateHabitRequest) (*entity.Habit, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	habit, err := hs.GetHabit(ctx, habitID, userID)
	if err != nil {
		return nil, err
	}
	changed := false
	if req.Title != "" {
		habit.Title = req.Title
		changed = true
	}
	if req.Description != nil {
		habit.Description = *req.Description
		changed = true
	}
	if req.Frequency != "" {
		habit.Frequency = entity.Frequency(req.Frequency)
		changed = true
	}
	if req.TargetCount != nil {
		habit.TargetCount = *req.TargetCount
		changed = true
	}
	if !changed {
		return habit, nil
	}
	if err = hs.repo.Update(ctx, habit); err != nil {
		if errors.Is(err, errorvalues.ErrHabitNotFound) {
			return nil, err
		}
		return nil, errors.New("habits repository error: " + err.Error())
	}
	updated, err := hs.repo.GetByID(ctx, habitID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrHabitNotFound) {
			return nil, err
		}
		return nil, errors.New("habits repository error: " + err.Error())
	}
	return updated, nil
}

// DeleteHabit removes the habit and its completions. Lifetime stats are kept as is.
func (hs *HabitsService) DeleteHabit(ctx context.Context, habitID, userID uuid.UUID) error {
	if _, err := hs.GetHabit(ctx, habitID, userID); err != nil {
		return err
	}
	err := hs.repo.Delete(ctx, habitID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrHabitNotFound) {
			return err
		}
		return errors.New("habits repository error: " + err.Error())
	}
	return nil
}
