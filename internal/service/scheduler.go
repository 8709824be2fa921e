package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
)

const periodLayout = "2006-01"

// CurrentPeriod formats the UTC month containing now.
func CurrentPeriod(now time.Time) string {
	return now.UTC().Format(periodLayout)
}

// PreviousPeriod formats the UTC month before the one containing now.
func PreviousPeriod(now time.Time) string {
	y, m, _ := now.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0).Format(periodLayout)
}

// BatchScheduler runs the batch for the month that just closed on a cron schedule.
type BatchScheduler struct {
	runner PeriodRunner
	clock  clockwork.Clock
	cron   *cron.Cron
	log    *slog.Logger
}

func NewBatchScheduler(runner PeriodRunner, clock clockwork.Clock, log *slog.Logger) *BatchScheduler {
	return &BatchScheduler{
		runner: runner,
		clock:  clock,
		cron:   cron.New(cron.WithLocation(time.UTC)),
		log:    log,
	}
}

// Start registers schedule and blocks until ctx is cancelled.
func (s *BatchScheduler) Start(ctx context.Context, schedule string) error {
	if _, err := s.cron.AddFunc(schedule, func() { s.RunPrevious(ctx) }); err != nil {
		return fmt.Errorf("invalid batch schedule %q: %w", schedule, err)
	}

	s.log.Info("batch scheduler started", "schedule", schedule)
	s.cron.Start()

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.log.Info("batch scheduler stopped")
	return nil
}

// RunPrevious runs the batch for the previous calendar month.
func (s *BatchScheduler) RunPrevious(ctx context.Context) (*BatchResult, error) {
	period := PreviousPeriod(s.clock.Now())
	res, err := s.runner.RunPeriodBatch(ctx, period)
	if err != nil {
		s.log.Error("scheduled batch failed", "period", period, "error", err)
		return nil, err
	}
	s.log.Info("scheduled batch finished", "period", period, "message", res.Message)
	return res, nil
}
