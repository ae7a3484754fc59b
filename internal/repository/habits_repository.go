package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	errorvalues "github.com/limbo/habitstreak/internal/error_values"
	"github.com/limbo/habitstreak/pkg/entity"
)

const habitColumns = `id, user_id, title, description, frequency, target_count, current_streak, longest_streak, created_at, updated_at`

type HabitsRepository struct {
	conn PgConnection
}

func NewHabitsRepo(conn PgConnection) *HabitsRepository {
	return &HabitsRepository{
		conn: conn,
	}
}

func (hr *HabitsRepository) Create(ctx context.Context, habit *entity.Habit) (uuid.UUID, error) {
	var id uuid.UUID
	row := hr.conn.QueryRow(ctx, `INSERT INTO habits (user_id, title, description, frequency, target_count)
		VALUES ($1, $2, $3, $4, $5) RETURNING id;`,
		habit.UserID,
		habit.Title,
		habit.Description,
		habit.Frequency,
		habit.TargetCount,
	)
	if err := row.Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			// FK violation
			case "23503":
				return uuid.UUID{}, errorvalues.ErrOwnerNotFound
			}
		}
		return uuid.UUID{}, errors.New("creating habit db error: " + err.Error())
	}
	return id, nil
}

func (hr *HabitsRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Habit, error) {
	row := hr.conn.QueryRow(ctx, `SELECT `+habitColumns+` FROM habits WHERE id = $1;`, id)
	habit, err := scanHabit(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrHabitNotFound
		}
		return nil, errors.New("getting habit by id error: " + err.Error())
	}
	return habit, nil
}

func (hr *HabitsRepository) GetByUserID(ctx context.Context, uid uuid.UUID, limit, offset int) ([]*entity.Habit, error) {
	rows, err := hr.conn.Query(ctx, `SELECT `+habitColumns+`
		FROM habits WHERE user_id = $1 ORDER BY created_at, id LIMIT $2 OFFSET $3;`, uid, limit, offset)
	if err != nil {
		return nil, errors.New("getting habits by uid error: " + err.Error())
	}
	return collectHabits(rows)
}

func (hr *HabitsRepository) GetAllByUserID(ctx context.Context, uid uuid.UUID) ([]*entity.Habit, error) {
	rows, err := hr.conn.Query(ctx, `SELECT `+habitColumns+` FROM habits WHERE user_id = $1 ORDER BY created_at, id;`, uid)
	if err != nil {
		return nil, errors.New("getting habits by uid error: " + err.Error())
	}
	return collectHabits(rows)
}

func (hr *HabitsRepository) Update(ctx context.Context, habit *entity.Habit) error {
	ct, err := hr.conn.Exec(ctx, `UPDATE habits SET title = $1, description = $2, frequency = $3, target_count = $4, updated_at = NOW()
		WHERE id = $5;`,
		habit.Title, habit.Description, habit.Frequency, habit.TargetCount, habit.ID,
	)
	if err != nil {
		return errors.New("error updating habit: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrHabitNotFound
	}
	return nil
}

func (hr *HabitsRepository) UpdateStreaks(ctx context.Context, id uuid.UUID, current, longest int) error {
	ct, err := hr.conn.Exec(ctx, `UPDATE habits SET current_streak = $1, longest_streak = $2, updated_at = NOW() WHERE id = $3;`,
		current, longest, id,
	)
	if err != nil {
		return errors.New("error updating habit streaks: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrHabitNotFound
	}
	return nil
}

// Delete removes the habit and its ledger in one transaction.
func (hr *HabitsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := hr.conn.Begin(ctx)
	if err != nil {
		return errors.New("error beginning habit deletion: " + err.Error())
	}
	if _, err = tx.Exec(ctx, `DELETE FROM completions WHERE habit_id = $1;`, id); err != nil {
		_ = tx.Rollback(ctx)
		return errors.New("error deleting habit completions: " + err.Error())
	}
	ct, err := tx.Exec(ctx, `DELETE FROM habits WHERE id = $1;`, id)
	if err != nil {
		_ = tx.Rollback(ctx)
		return errors.New("error deleting habit: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		_ = tx.Rollback(ctx)
		return errorvalues.ErrHabitNotFound
	}
	if err = tx.Commit(ctx); err != nil {
		return errors.New("error committing habit deletion: " + err.Error())
	}
	return nil
}

func (hr *HabitsRepository) CountByUserID(ctx context.Context, uid uuid.UUID) (int, error) {
	var count int
	if err := hr.conn.QueryRow(ctx, `SELECT COUNT(*) FROM habits WHERE user_id = $1;`, uid).Scan(&count); err != nil {
		return 0, errors.New("error counting habits: " + err.Error())
	}
	return count, nil
}

func scanHabit(row pgx.Row) (*entity.Habit, error) {
	var h entity.Habit
	err := row.Scan(&h.ID, &h.UserID, &h.Title, &h.Description, &h.Frequency, &h.TargetCount,
		&h.CurrentStreak, &h.LongestStreak, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func collectHabits(rows pgx.Rows) ([]*entity.Habit, error) {
	defer rows.Close()
	habits := make([]*entity.Habit, 0)
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, errors.New("unmarshalling habit error: " + err.Error())
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.New("unexpected error after scanning: " + err.Error())
	}
	return habits, nil
}
