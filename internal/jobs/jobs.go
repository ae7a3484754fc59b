// Package jobs runs the periodic maintenance tasks of the API process.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

const (
	StatsBackfillJob  = "stats-backfill"
	LimiterCleanupJob = "limiter-cleanup"

	DefaultLimiterCleanupInterval = 10 * time.Minute
)

type Backfiller interface {
	Backfill(ctx context.Context) (int, error)
}

type Sweeper interface {
	Cleanup()
}

type Options struct {
	BackfillInterval       time.Duration
	LimiterCleanupInterval time.Duration
}

type Scheduler struct {
	sched  gocron.Scheduler
	ctx    context.Context
	cancel context.CancelFunc
}

// New registers the backfill job and, when limiter is not nil, the limiter cleanup job.
// Jobs start running after Start.
func New(stats Backfiller, limiter Sweeper, opts Options) (*Scheduler, error) {
	if stats == nil {
		return nil, errors.New("stats backfiller is nil")
	}
	if opts.BackfillInterval <= 0 {
		return nil, errors.New("backfill interval must be positive")
	}
	if opts.LimiterCleanupInterval <= 0 {
		opts.LimiterCleanupInterval = DefaultLimiterCleanupInterval
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.New("creating scheduler error: " + err.Error())
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{sched: sched, ctx: ctx, cancel: cancel}

	_, err = sched.NewJob(
		gocron.DurationJob(opts.BackfillInterval),
		gocron.NewTask(s.backfill, stats),
		gocron.WithName(StatsBackfillJob),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		cancel()
		return nil, errors.New("scheduling stats backfill error: " + err.Error())
	}
	if limiter != nil {
		_, err = sched.NewJob(
			gocron.DurationJob(opts.LimiterCleanupInterval),
			gocron.NewTask(limiter.Cleanup),
			gocron.WithName(LimiterCleanupJob),
		)
		if err != nil {
			cancel()
			return nil, errors.New("scheduling limiter cleanup error: " + err.Error())
		}
	}
	return s, nil
}

func (s *Scheduler) backfill(stats Backfiller) {
	started := time.Now()
	created, err := stats.Backfill(s.ctx)
	if err != nil {
		slog.Error("stats backfill failed", slog.String("error", err.Error()))
		return
	}
	if created > 0 {
		slog.Info("stats backfilled", slog.Int("users", created), slog.Duration("took", time.Since(started)))
	}
}

func (s *Scheduler) Start() {
	s.sched.Start()
}

// JobNames lists registered jobs.
func (s *Scheduler) JobNames() []string {
	jobs := s.sched.Jobs()
	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, j.Name())
	}
	return names
}

// Shutdown cancels running tasks and waits for them to return.
func (s *Scheduler) Shutdown() error {
	s.cancel()
	if err := s.sched.Shutdown(); err != nil {
		return errors.New("scheduler shutdown error: " + err.Error())
	}
	return nil
}
