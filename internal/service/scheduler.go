package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
)

const (
	reconcileInterval  = time.Minute
	payoutSyncInterval = 5 * time.Minute
	jobTimeout         = 30 * time.Second
)

// StartScheduler runs the background gateway reconciliation jobs until
// Shutdown is called on the returned scheduler.
func (s *Service) StartScheduler() (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	jobs := []struct {
		name     string
		interval time.Duration
		run      func(ctx context.Context) error
	}{
		{"reconcile-payment-orders", reconcileInterval, s.ReconcilePendingOrders},
		{"sync-payouts", payoutSyncInterval, s.SyncWithdrawals},
	}

	for _, job := range jobs {
		job := job
		_, err := sched.NewJob(
			gocron.DurationJob(job.interval),
			gocron.NewTask(func() {
				ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
				defer cancel()
				if err := job.run(ctx); err != nil {
					s.logger.Errorf("[Scheduler] %s failed: %v", job.name, err)
				}
			}),
			gocron.WithName(job.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to register job %s: %w", job.name, err)
		}
	}

	sched.Start()
	s.logger.Info("Scheduler started")
	return sched, nil
}
