package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	errorvalues "github.com/limbo/habitstreak/internal/error_values"
	"github.com/limbo/habitstreak/pkg/calendar"
	"github.com/limbo/habitstreak/pkg/entity"
)

// CompletionsRepository is the append-only ledger of habit completions.
// Rows are only removed together with their habit.
type CompletionsRepository struct {
	conn PgConnection
}

func NewCompletionsRepo(conn PgConnection) *CompletionsRepository {
	return &CompletionsRepository{
		conn: conn,
	}
}

func (cr *CompletionsRepository) Record(ctx context.Context, habitID uuid.UUID, notes string, at time.Time) (uuid.UUID, error) {
	var id uuid.UUID
	row := cr.conn.QueryRow(
		ctx,
		`INSERT INTO completions (habit_id, completed_at, notes) VALUES ($1, $2, $3) RETURNING id;`,
		habitID,
		at,
		notes,
	)
	if err := row.Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			// FK violation
			case "23503":
				return uuid.UUID{}, errorvalues.ErrHabitNotFound
			}
		}
		return uuid.UUID{}, errors.New("recording completion error: " + err.Error())
	}
	return id, nil
}

func (cr *CompletionsRepository) CountInWindow(ctx context.Context, habitID uuid.UUID, from, to time.Time) (int, error) {
	var count int
	row := cr.conn.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM completions WHERE habit_id = $1 AND completed_at >= $2 AND completed_at < $3;`,
		habitID,
		from,
		to,
	)
	if err := row.Scan(&count); err != nil {
		return 0, errors.New("counting completions in window error: " + err.Error())
	}
	return count, nil
}

func (cr *CompletionsRepository) CountOnDay(ctx context.Context, habitID uuid.UUID, day time.Time) (int, error) {
	from, to := calendar.DayWindow(day)
	return cr.CountInWindow(ctx, habitID, from, to)
}

func (cr *CompletionsRepository) ExistsOnDay(ctx context.Context, habitID uuid.UUID, day time.Time) (bool, error) {
	var exists bool
	from, to := calendar.DayWindow(day)
	row := cr.conn.QueryRow(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM completions WHERE habit_id = $1 AND completed_at >= $2 AND completed_at < $3);`,
		habitID,
		from,
		to,
	)
	if err := row.Scan(&exists); err != nil {
		return false, errors.New("inspecting if completion exists error: " + err.Error())
	}
	return exists, nil
}

func (cr *CompletionsRepository) GetByHabitAndDateRange(ctx context.Context, habitID uuid.UUID, from, to time.Time) ([]entity.Completion, error) {
	rows, err := cr.conn.Query(
		ctx,
		`SELECT id, habit_id, completed_at, notes FROM completions
		WHERE habit_id = $1 AND completed_at >= $2 AND completed_at < $3 ORDER BY completed_at;`,
		habitID,
		from,
		to,
	)
	if err != nil {
		return nil, errors.New("getting completions for period error: " + err.Error())
	}
	defer rows.Close()
	result := make([]entity.Completion, 0, 2)
	for rows.Next() {
		c := entity.Completion{}
		if err = rows.Scan(&c.ID, &c.HabitID, &c.CompletedAt, &c.Notes); err != nil {
			return nil, errors.New("completion row parsing error: " + err.Error())
		}
		result = append(result, c)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.New("unexpected completion rows error: " + err.Error())
	}
	return result, nil
}

func (cr *CompletionsRepository) CountByHabitID(ctx context.Context, habitID uuid.UUID) (int, error) {
	var count int
	row := cr.conn.QueryRow(ctx, `SELECT COUNT(*) FROM completions WHERE habit_id = $1;`, habitID)
	if err := row.Scan(&count); err != nil {
		return 0, errors.New("error counting completions: " + err.Error())
	}
	return count, nil
}

func (cr *CompletionsRepository) CountByUserID(ctx context.Context, uid uuid.UUID) (int, error) {
	var count int
	row := cr.conn.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM completions c JOIN habits h ON h.id = c.habit_id WHERE h.user_id = $1;`,
		uid,
	)
	if err := row.Scan(&count); err != nil {
		return 0, errors.New("error counting user completions: " + err.Error())
	}
	return count, nil
}
