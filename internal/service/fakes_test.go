package service_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	errorvalues "github.com/limbo/habitstreak/internal/error_values"
	"github.com/limbo/habitstreak/internal/repository"
	"github.com/limbo/habitstreak/internal/service"
	"github.com/limbo/habitstreak/pkg/calendar"
	"github.com/limbo/habitstreak/pkg/entity"
)

// memDB backs in-memory versions of the repositories. failures makes the named method fail.
// Owners of habits and activity are registered as users, standing in for the foreign keys.
type memDB struct {
	mu          sync.Mutex
	users       map[uuid.UUID]struct{}
	habits      map[uuid.UUID]*entity.Habit
	completions []entity.Completion
	activity    map[uuid.UUID]map[time.Time]struct{}
	stats       map[uuid.UUID]*entity.UserStats
	chat        []*entity.ChatMessage
	failures    map[string]error
}

func newMemDB() *memDB {
	return &memDB{
		users:    make(map[uuid.UUID]struct{}),
		habits:   make(map[uuid.UUID]*entity.Habit),
		activity: make(map[uuid.UUID]map[time.Time]struct{}),
		stats:    make(map[uuid.UUID]*entity.UserStats),
		failures: make(map[string]error),
	}
}

func (db *memDB) fail(method string) error {
	return db.failures[method]
}

func (db *memDB) repos() service.StreakRepos {
	return service.StreakRepos{
		Habits:      &memHabits{db},
		Completions: &memCompletions{db},
		Activity:    &memActivity{db},
		Stats:       &memStats{db},
	}
}

// addCompletion writes straight into the ledger, bypassing admission control.
func (db *memDB) addCompletion(habitID uuid.UUID, at time.Time) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.completions = append(db.completions, entity.Completion{ID: uuid.New(), HabitID: habitID, CompletedAt: at})
}

func (db *memDB) countOn(habitID uuid.UUID, day time.Time) int {
	from, to := calendar.DayWindow(day)
	n, _ := (&memCompletions{db}).CountInWindow(context.Background(), habitID, from, to)
	return n
}

// addUser registers a user. Registration creates zeroed stats; legacy users have none.
func (db *memDB) addUser(uid uuid.UUID, legacy bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users[uid] = struct{}{}
	if !legacy {
		db.stats[uid] = &entity.UserStats{UserID: uid}
	}
}

func (db *memDB) statsOf(uid uuid.UUID) entity.UserStats {
	db.mu.Lock()
	defer db.mu.Unlock()
	if s, ok := db.stats[uid]; ok {
		return *s
	}
	return entity.UserStats{UserID: uid}
}

func (db *memDB) habit(id uuid.UUID) entity.Habit {
	db.mu.Lock()
	defer db.mu.Unlock()
	return *db.habits[id]
}

type memHabits struct{ db *memDB }

func (r *memHabits) Create(ctx context.Context, habit *entity.Habit) (uuid.UUID, error) {
	if err := r.db.fail("Habits.Create"); err != nil {
		return uuid.UUID{}, err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	h := *habit
	h.ID = uuid.New()
	h.CreatedAt = time.Now()
	h.UpdatedAt = h.CreatedAt
	r.db.habits[h.ID] = &h
	r.db.users[h.UserID] = struct{}{}
	return h.ID, nil
}

func (r *memHabits) GetByID(ctx context.Context, id uuid.UUID) (*entity.Habit, error) {
	if err := r.db.fail("Habits.GetByID"); err != nil {
		return nil, err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	h, ok := r.db.habits[id]
	if !ok {
		return nil, errorvalues.ErrHabitNotFound
	}
	cp := *h
	return &cp, nil
}

func (r *memHabits) GetByUserID(ctx context.Context, uid uuid.UUID, limit, offset int) ([]*entity.Habit, error) {
	all, err := r.GetAllByUserID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if offset >= len(all) {
		return []*entity.Habit{}, nil
	}
	return all[offset:min(len(all), offset+limit)], nil
}

func (r *memHabits) GetAllByUserID(ctx context.Context, uid uuid.UUID) ([]*entity.Habit, error) {
	if err := r.db.fail("Habits.GetAllByUserID"); err != nil {
		return nil, err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]*entity.Habit, 0)
	for _, h := range r.db.habits {
		if h.UserID == uid {
			cp := *h
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memHabits) Update(ctx context.Context, habit *entity.Habit) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	h, ok := r.db.habits[habit.ID]
	if !ok {
		return errorvalues.ErrHabitNotFound
	}
	h.Title, h.Description, h.Frequency, h.TargetCount = habit.Title, habit.Description, habit.Frequency, habit.TargetCount
	return nil
}

func (r *memHabits) UpdateStreaks(ctx context.Context, id uuid.UUID, current, longest int) error {
	if err := r.db.fail("Habits.UpdateStreaks"); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	h, ok := r.db.habits[id]
	if !ok {
		return errorvalues.ErrHabitNotFound
	}
	h.CurrentStreak, h.LongestStreak = current, longest
	return nil
}

func (r *memHabits) Delete(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.habits[id]; !ok {
		return errorvalues.ErrHabitNotFound
	}
	delete(r.db.habits, id)
	kept := r.db.completions[:0]
	for _, c := range r.db.completions {
		if c.HabitID != id {
			kept = append(kept, c)
		}
	}
	r.db.completions = kept
	return nil
}

func (r *memHabits) CountByUserID(ctx context.Context, uid uuid.UUID) (int, error) {
	all, err := r.GetAllByUserID(ctx, uid)
	return len(all), err
}

type memCompletions struct{ db *memDB }

func (r *memCompletions) Record(ctx context.Context, habitID uuid.UUID, notes string, at time.Time) (uuid.UUID, error) {
	if err := r.db.fail("Completions.Record"); err != nil {
		return uuid.UUID{}, err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.habits[habitID]; !ok {
		return uuid.UUID{}, errorvalues.ErrHabitNotFound
	}
	c := entity.Completion{ID: uuid.New(), HabitID: habitID, CompletedAt: at, Notes: notes}
	r.db.completions = append(r.db.completions, c)
	return c.ID, nil
}

func (r *memCompletions) CountInWindow(ctx context.Context, habitID uuid.UUID, from, to time.Time) (int, error) {
	list, err := r.GetByHabitAndDateRange(ctx, habitID, from, to)
	return len(list), err
}

func (r *memCompletions) CountOnDay(ctx context.Context, habitID uuid.UUID, day time.Time) (int, error) {
	if err := r.db.fail("Completions.CountOnDay"); err != nil {
		return 0, err
	}
	from, to := calendar.DayWindow(day)
	return r.CountInWindow(ctx, habitID, from, to)
}

func (r *memCompletions) ExistsOnDay(ctx context.Context, habitID uuid.UUID, day time.Time) (bool, error) {
	if err := r.db.fail("Completions.ExistsOnDay"); err != nil {
		return false, err
	}
	from, to := calendar.DayWindow(day)
	n, err := r.CountInWindow(ctx, habitID, from, to)
	return n > 0, err
}

func (r *memCompletions) GetByHabitAndDateRange(ctx context.Context, habitID uuid.UUID, from, to time.Time) ([]entity.Completion, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]entity.Completion, 0)
	for _, c := range r.db.completions {
		if c.HabitID == habitID && !c.CompletedAt.Before(from) && c.CompletedAt.Before(to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memCompletions) CountByHabitID(ctx context.Context, habitID uuid.UUID) (int, error) {
	if err := r.db.fail("Completions.CountByHabitID"); err != nil {
		return 0, err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n := 0
	for _, c := range r.db.completions {
		if c.HabitID == habitID {
			n++
		}
	}
	return n, nil
}

func (r *memCompletions) CountByUserID(ctx context.Context, uid uuid.UUID) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n := 0
	for _, c := range r.db.completions {
		if h, ok := r.db.habits[c.HabitID]; ok && h.UserID == uid {
			n++
		}
	}
	return n, nil
}

type memActivity struct{ db *memDB }

func (r *memActivity) MarkActive(ctx context.Context, uid uuid.UUID, day time.Time) error {
	if err := r.db.fail("Activity.MarkActive"); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.activity[uid] == nil {
		r.db.activity[uid] = make(map[time.Time]struct{})
	}
	r.db.activity[uid][calendar.Day(day)] = struct{}{}
	r.db.users[uid] = struct{}{}
	return nil
}

func (r *memActivity) ActiveDays(ctx context.Context, uid uuid.UUID) ([]time.Time, error) {
	if err := r.db.fail("Activity.ActiveDays"); err != nil {
		return nil, err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	days := make([]time.Time, 0, len(r.db.activity[uid]))
	for d := range r.db.activity[uid] {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, nil
}

type memStats struct{ db *memDB }

func (r *memStats) get(uid uuid.UUID) *entity.UserStats {
	s, ok := r.db.stats[uid]
	if !ok {
		s = &entity.UserStats{UserID: uid}
		r.db.stats[uid] = s
	}
	return s
}

func (r *memStats) GetOrCreate(ctx context.Context, uid uuid.UUID) (*entity.UserStats, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cp := *r.get(uid)
	return &cp, nil
}

func (r *memStats) Increment(ctx context.Context, uid uuid.UUID, field repository.StatsField, delta int) error {
	if err := r.db.fail("Stats.Increment"); err != nil {
		return err
	}
	if delta < 0 {
		return errorvalues.ErrNegativeDelta
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s := r.get(uid)
	switch field {
	case repository.StatsTotalHabitsCreated:
		s.TotalHabitsCreated += delta
	case repository.StatsTotalCompletions:
		s.TotalCompletions += delta
	default:
		return errorvalues.ErrUnknownStatsKey
	}
	return nil
}

func (r *memStats) RaiseLongestDailyStreak(ctx context.Context, uid uuid.UUID, streak int) (bool, error) {
	if err := r.db.fail("Stats.RaiseLongestDailyStreak"); err != nil {
		return false, err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s := r.get(uid)
	if streak <= s.LongestDailyStreak {
		return false, nil
	}
	s.LongestDailyStreak = streak
	return true, nil
}

func (r *memStats) CreateIfAbsent(ctx context.Context, stats *entity.UserStats) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.stats[stats.UserID]; ok {
		return false, nil
	}
	cp := *stats
	r.db.stats[stats.UserID] = &cp
	return true, nil
}

// UserIDsWithoutStats reports every known user that has no stats yet.
func (r *memStats) UserIDsWithoutStats(ctx context.Context) ([]uuid.UUID, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]uuid.UUID, 0)
	for uid := range r.db.users {
		if _, ok := r.db.stats[uid]; !ok {
			out = append(out, uid)
		}
	}
	return out, nil
}

// backfillAfterCreate runs stats backfill right after each habit insert.
type backfillAfterCreate struct {
	repository.HabitsRepositoryI
	stats *service.StatsService
	runs  int
}

func (h *backfillAfterCreate) Create(ctx context.Context, habit *entity.Habit) (uuid.UUID, error) {
	id, err := h.HabitsRepositoryI.Create(ctx, habit)
	if err != nil {
		return id, err
	}
	if _, err = h.stats.Backfill(ctx); err != nil {
		return uuid.UUID{}, err
	}
	h.runs++
	return id, nil
}

type memChat struct{ db *memDB }

func (r *memChat) Create(ctx context.Context, msg *entity.ChatMessage) (*entity.ChatMessage, error) {
	if err := r.db.fail("Chat.Create"); err != nil {
		return nil, err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cp := *msg
	cp.ID = uuid.New()
	cp.CreatedAt = time.Now()
	r.db.chat = append(r.db.chat, &cp)
	return &cp, nil
}

func (r *memChat) GetByUserID(ctx context.Context, uid uuid.UUID) ([]*entity.ChatMessage, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]*entity.ChatMessage, 0)
	for _, m := range r.db.chat {
		if m.UserID == uid {
			out = append(out, m)
		}
	}
	return out, nil
}

// fixedClock returns a settable instant.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock(day time.Time) *fixedClock {
	return &fixedClock{now: day.Add(10 * time.Hour)}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) advanceDays(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, n)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
