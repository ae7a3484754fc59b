package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	errorvalues "github.com/limbo/habitstreak/internal/error_values"
	"github.com/limbo/habitstreak/pkg/calendar"
)

// DailyActivityRepository keeps the set of days on which a user met at least one habit target.
type DailyActivityRepository struct {
	conn PgConnection
}

func NewDailyActivityRepo(conn PgConnection) *DailyActivityRepository {
	return &DailyActivityRepository{
		conn: conn,
	}
}

func (ar *DailyActivityRepository) MarkActive(ctx context.Context, uid uuid.UUID, day time.Time) error {
	_, err := ar.conn.Exec(
		ctx,
		`INSERT INTO daily_activity (user_id, activity_date) VALUES ($1, $2) ON CONFLICT (user_id, activity_date) DO NOTHING;`,
		uid,
		calendar.Day(day),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return errorvalues.ErrUserNotFound
		}
		return errors.New("marking daily activity error: " + err.Error())
	}
	return nil
}

func (ar *DailyActivityRepository) ActiveDays(ctx context.Context, uid uuid.UUID) ([]time.Time, error) {
	rows, err := ar.conn.Query(
		ctx,
		`SELECT activity_date FROM daily_activity WHERE user_id = $1 ORDER BY activity_date;`,
		uid,
	)
	if err != nil {
		return nil, errors.New("getting active days error: " + err.Error())
	}
	defer rows.Close()
	days := make([]time.Time, 0)
	for rows.Next() {
		var day time.Time
		if err = rows.Scan(&day); err != nil {
			return nil, errors.New("active day parsing error: " + err.Error())
		}
		days = append(days, calendar.Day(day))
	}
	if err = rows.Err(); err != nil {
		return nil, errors.New("unexpected active days rows error: " + err.Error())
	}
	return days, nil
}
