// Package scheduler runs the periodic daily-grant sweep.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const defaultSweepTimeout = 5 * time.Minute

var ErrInvalidSchedule = errors.New("scheduler: invalid cron schedule")

// Sweeper applies pending daily grants and reports how many accounts were credited.
type Sweeper interface {
	ApplyDailyGrants(ctx context.Context) (int, error)
}

// Scheduler triggers Sweeper on a standard five-field cron schedule evaluated in UTC.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	logger  *zap.Logger
	timeout time.Duration
}

// New parses schedule and registers the sweep job. Overlapping runs are skipped.
func New(schedule string, sweeper Sweeper, logger *zap.Logger) (*Scheduler, error) {
	if sweeper == nil {
		return nil, errors.New("scheduler: sweeper is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cronLogger := zapCronLogger{sugar: logger.Sugar()}
	scheduler := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		sweeper: sweeper,
		logger:  logger,
		timeout: defaultSweepTimeout,
	}
	if _, err := scheduler.cron.AddFunc(strings.TrimSpace(schedule), func() {
		scheduler.Sweep(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSchedule, schedule, err)
	}
	return scheduler, nil
}

// Run starts the cron loop and blocks until ctx is done, then waits for a running sweep.
func (scheduler *Scheduler) Run(ctx context.Context) error {
	scheduler.cron.Start()
	scheduler.logger.Info("daily grant scheduler started")
	<-ctx.Done()
	<-scheduler.cron.Stop().Done()
	scheduler.logger.Info("daily grant scheduler stopped")
	return nil
}

// Sweep runs one pass immediately.
func (scheduler *Scheduler) Sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, scheduler.timeout)
	defer cancel()
	started := time.Now()
	granted, err := scheduler.sweeper.ApplyDailyGrants(sweepCtx)
	fields := []zap.Field{zap.Int("granted", granted), zap.Duration("elapsed", time.Since(started))}
	if err != nil {
		scheduler.logger.Error("daily grant sweep failed", append(fields, zap.Error(err))...)
		return
	}
	scheduler.logger.Info("daily grant sweep finished", fields...)
}

type zapCronLogger struct {
	sugar *zap.SugaredLogger
}

func (logger zapCronLogger) Info(message string, keysAndValues ...any) {
	logger.sugar.Debugw(message, keysAndValues...)
}

func (logger zapCronLogger) Error(err error, message string, keysAndValues ...any) {
	logger.sugar.Errorw(message, append(keysAndValues, "error", err)...)
}
