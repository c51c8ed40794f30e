package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"gigmarket/pkg/logger"
)

// DeliveredOrderCompleter completes orders left in delivered past the grace period.
type DeliveredOrderCompleter interface {
	AutoCompleteDelivered(ctx context.Context, deliveredBefore time.Time) (int, error)
}

type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
}

func New() *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger))),
		timeout: 5 * time.Minute,
	}
}

// ScheduleAutoComplete registers the auto-complete job. A non-positive grace disables it.
func (s *Scheduler) ScheduleAutoComplete(spec string, grace time.Duration, completer DeliveredOrderCompleter) error {
	if grace <= 0 {
		logger.Info("Order auto-complete disabled")
		return nil
	}

	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		RunAutoComplete(ctx, time.Now(), grace, completer)
	})
	if err != nil {
		return err
	}
	logger.Info("Order auto-complete scheduled (%s, grace %s)", spec, grace)
	return nil
}

// RunAutoComplete performs one pass of the auto-complete job.
func RunAutoComplete(ctx context.Context, now time.Time, grace time.Duration, completer DeliveredOrderCompleter) {
	completed, err := completer.AutoCompleteDelivered(ctx, now.Add(-grace))
	if err != nil {
		logger.WithError(err).Error("Order auto-complete run failed")
		return
	}
	if completed > 0 {
		logger.Info("Auto-completed %d delivered orders", completed)
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
