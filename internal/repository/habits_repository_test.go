package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	errorvalues "github.com/limbo/habitstreak/internal/error_values"
	"github.com/limbo/habitstreak/internal/repository"
	"github.com/limbo/habitstreak/pkg/entity"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
)

var habitColumns = []string{"id", "user_id", "title", "description", "frequency", "target_count",
	"current_streak", "longest_streak", "created_at", "updated_at"}

func TestCreateHabit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	repo := repository.NewHabitsRepo(mock)
	habit := entity.Habit{
		UserID:      uuid.New(),
		Title:       "Read",
		Description: "ten pages",
		Frequency:   entity.FrequencyDaily,
		TargetCount: 2,
	}
	hid := uuid.New()
	ctx := context.Background()
	query := regexp.QuoteMeta(`INSERT INTO habits (user_id, title, description, frequency, target_count)`)
	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(habit.UserID, habit.Title, habit.Description, habit.Frequency, habit.TargetCount).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(hid))
		id, err := repo.Create(ctx, &habit)
		assert.NoError(t, err)
		assert.Equal(t, hid, id)
	})
	t.Run("FK violation", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(habit.UserID, habit.Title, habit.Description, habit.Frequency, habit.TargetCount).
			WillReturnError(&pgconn.PgError{Code: "23503"})
		_, err := repo.Create(ctx, &habit)
		assert.ErrorIs(t, err, errorvalues.ErrOwnerNotFound)
	})
	t.Run("db error", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(habit.UserID, habit.Title, habit.Description, habit.Frequency, habit.TargetCount).
			WillReturnError(errors.New("db error"))
		_, err := repo.Create(ctx, &habit)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, errorvalues.ErrOwnerNotFound)
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetHabitByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	repo := repository.NewHabitsRepo(mock)
	now := time.Now().UTC()
	habit := entity.Habit{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		Title:         "Read",
		Description:   "ten pages",
		Frequency:     entity.FrequencyWeekly,
		TargetCount:   3,
		CurrentStreak: 2,
		LongestStreak: 4,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	query := regexp.QuoteMeta(`FROM habits WHERE id = $1;`)
	ctx := context.Background()
	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(habit.ID).
			WillReturnRows(pgxmock.NewRows(habitColumns).
				AddRow(habit.ID, habit.UserID, habit.Title, habit.Description, habit.Frequency, habit.TargetCount,
					habit.CurrentStreak, habit.LongestStreak, habit.CreatedAt, habit.UpdatedAt),
			)
		result, err := repo.GetByID(ctx, habit.ID)
		assert.NoError(t, err)
		assert.Equal(t, habit, *result)
	})
	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(habit.ID).
			WillReturnError(pgx.ErrNoRows)
		_, err := repo.GetByID(ctx, habit.ID)
		assert.ErrorIs(t, err, errorvalues.ErrHabitNotFound)
	})
	t.Run("db error", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(habit.ID).
			WillReturnError(errors.New("db error"))
		_, err := repo.GetByID(ctx, habit.ID)
		assert.Error(t, err)
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetHabitsByUserID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	repo := repository.NewHabitsRepo(mock)
	uid := uuid.New()
	now := time.Now().UTC()
	habits := []*entity.Habit{
		{ID: uuid.New(), UserID: uid, Title: "first", Frequency: entity.FrequencyDaily, TargetCount: 1, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New(), UserID: uid, Title: "second", Frequency: entity.FrequencyMonthly, TargetCount: 1, CreatedAt: now, UpdatedAt: now},
	}
	rows := func() *pgxmock.Rows {
		r := pgxmock.NewRows(habitColumns)
		for _, h := range habits {
			r.AddRow(h.ID, h.UserID, h.Title, h.Description, h.Frequency, h.TargetCount,
				h.CurrentStreak, h.LongestStreak, h.CreatedAt, h.UpdatedAt)
		}
		return r
	}
	ctx := context.Background()
	t.Run("paginated", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`LIMIT $2 OFFSET $3;`)).
			WithArgs(uid, 10, 0).
			WillReturnRows(rows())
		result, err := repo.GetByUserID(ctx, uid, 10, 0)
		assert.NoError(t, err)
		assert.Equal(t, habits, result)
	})
	t.Run("all", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`WHERE user_id = $1 ORDER BY created_at, id;`)).
			WithArgs(uid).
			WillReturnRows(rows())
		result, err := repo.GetAllByUserID(ctx, uid)
		assert.NoError(t, err)
		assert.Equal(t, habits, result)
	})
	t.Run("empty", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`WHERE user_id = $1 ORDER BY created_at, id;`)).
			WithArgs(uid).
			WillReturnRows(pgxmock.NewRows(habitColumns))
		result, err := repo.GetAllByUserID(ctx, uid)
		assert.NoError(t, err)
		assert.NotNil(t, result)
		assert.Empty(t, result)
	})
	t.Run("row error", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`WHERE user_id = $1 ORDER BY created_at, id;`)).
			WithArgs(uid).
			WillReturnRows(rows().RowError(1, errors.New("broken row")))
		_, err := repo.GetAllByUserID(ctx, uid)
		assert.Error(t, err)
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateHabit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	repo := repository.NewHabitsRepo(mock)
	habit := entity.Habit{ID: uuid.New(), Title: "new", Description: "d", Frequency: entity.FrequencyWeekly, TargetCount: 2}
	query := regexp.QuoteMeta(`UPDATE habits SET title = $1, description = $2, frequency = $3, target_count = $4`)
	ctx := context.Background()
	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(habit.Title, habit.Description, habit.Frequency, habit.TargetCount, habit.ID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		assert.NoError(t, repo.Update(ctx, &habit))
	})
	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(habit.Title, habit.Description, habit.Frequency, habit.TargetCount, habit.ID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		assert.ErrorIs(t, repo.Update(ctx, &habit), errorvalues.ErrHabitNotFound)
	})
	t.Run("streaks", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE habits SET current_streak = $1, longest_streak = $2`)).
			WithArgs(3, 5, habit.ID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		assert.NoError(t, repo.UpdateStreaks(ctx, habit.ID, 3, 5))
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteHabit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	repo := repository.NewHabitsRepo(mock)
	id := uuid.New()
	completionsQuery := regexp.QuoteMeta(`DELETE FROM completions WHERE habit_id = $1;`)
	habitQuery := regexp.QuoteMeta(`DELETE FROM habits WHERE id = $1;`)
	ctx := context.Background()
	t.Run("success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(completionsQuery).WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 4))
		mock.ExpectExec(habitQuery).WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mock.ExpectCommit()
		assert.NoError(t, repo.Delete(ctx, id))
	})
	t.Run("not found", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(completionsQuery).WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 0))
		mock.ExpectExec(habitQuery).WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 0))
		mock.ExpectRollback()
		assert.ErrorIs(t, repo.Delete(ctx, id), errorvalues.ErrHabitNotFound)
	})
	t.Run("ledger failure rolls back", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(completionsQuery).WithArgs(id).WillReturnError(errors.New("db error"))
		mock.ExpectRollback()
		assert.Error(t, repo.Delete(ctx, id))
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}
