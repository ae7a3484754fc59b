package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	errorvalues "github.com/limbo/habitstreak/internal/error_values"
	"github.com/limbo/habitstreak/pkg/entity"
)

// UserStatsRepository stores per-user lifetime counters. Counters are only ever
// increased: there is no statement in here that can lower them.
type UserStatsRepository struct {
	conn PgConnection
}

func NewUserStatsRepo(conn PgConnection) *UserStatsRepository {
	return &UserStatsRepository{
		conn: conn,
	}
}

// Column names are interpolated into SQL, so only known counters get through.
var incrementQueries = map[StatsField]string{
	StatsTotalHabitsCreated: `INSERT INTO user_stats (user_id, total_habits_created) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET total_habits_created = user_stats.total_habits_created + EXCLUDED.total_habits_created;`,
	StatsTotalCompletions: `INSERT INTO user_stats (user_id, total_completions) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET total_completions = user_stats.total_completions + EXCLUDED.total_completions;`,
}

func (sr *UserStatsRepository) GetOrCreate(ctx context.Context, uid uuid.UUID) (*entity.UserStats, error) {
	_, err := sr.conn.Exec(ctx, `INSERT INTO user_stats (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING;`, uid)
	if err != nil {
		return nil, errors.New("creating user stats error: " + err.Error())
	}
	stats := entity.UserStats{UserID: uid}
	row := sr.conn.QueryRow(ctx,
		`SELECT total_habits_created, total_completions, longest_daily_streak FROM user_stats WHERE user_id = $1;`,
		uid,
	)
	if err = row.Scan(&stats.TotalHabitsCreated, &stats.TotalCompletions, &stats.LongestDailyStreak); err != nil {
		return nil, errors.New("getting user stats error: " + err.Error())
	}
	return &stats, nil
}

func (sr *UserStatsRepository) Increment(ctx context.Context, uid uuid.UUID, field StatsField, delta int) error {
	if delta < 0 {
		return errorvalues.ErrNegativeDelta
	}
	query, ok := incrementQueries[field]
	if !ok {
		return errorvalues.ErrUnknownStatsKey
	}
	if _, err := sr.conn.Exec(ctx, query, uid, delta); err != nil {
		return errors.New("incrementing user stats error: " + err.Error())
	}
	return nil
}

func (sr *UserStatsRepository) RaiseLongestDailyStreak(ctx context.Context, uid uuid.UUID, streak int) (bool, error) {
	ct, err := sr.conn.Exec(ctx, `INSERT INTO user_stats (user_id, longest_daily_streak) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET longest_daily_streak = EXCLUDED.longest_daily_streak
		WHERE user_stats.longest_daily_streak < EXCLUDED.longest_daily_streak;`,
		uid,
		streak,
	)
	if err != nil {
		return false, errors.New("raising longest daily streak error: " + err.Error())
	}
	return ct.RowsAffected() > 0, nil
}

func (sr *UserStatsRepository) CreateIfAbsent(ctx context.Context, stats *entity.UserStats) (bool, error) {
	ct, err := sr.conn.Exec(ctx, `INSERT INTO user_stats (user_id, total_habits_created, total_completions, longest_daily_streak)
		VALUES ($1, $2, $3, $4) ON CONFLICT (user_id) DO NOTHING;`,
		stats.UserID,
		stats.TotalHabitsCreated,
		stats.TotalCompletions,
		stats.LongestDailyStreak,
	)
	if err != nil {
		return false, errors.New("creating user stats error: " + err.Error())
	}
	return ct.RowsAffected() > 0, nil
}

func (sr *UserStatsRepository) UserIDsWithoutStats(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := sr.conn.Query(ctx, `SELECT u.id FROM users u LEFT JOIN user_stats s ON s.user_id = u.id
		WHERE s.user_id IS NULL ORDER BY u.created_at;`)
	if err != nil {
		return nil, errors.New("listing users without stats error: " + err.Error())
	}
	defer rows.Close()
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err = rows.Scan(&id); err != nil {
			return nil, errors.New("user id parsing error: " + err.Error())
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.New("unexpected user id rows error: " + err.Error())
	}
	return ids, nil
}
