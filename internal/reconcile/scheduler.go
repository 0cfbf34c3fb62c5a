// Package reconcile periodically recomputes jobs.bid_count from the stored
// bids. Place-bid keeps the counter exact inside a transaction; this job
// repairs drift introduced by anything writing to the tables directly.
package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"jobsync/marketplace-service/internal/metrics"
)

const lockKey = "jobsync:reconcile:bid-count"

// Recounter is implemented by jobs.Store.
type Recounter interface {
	RecountBids(ctx context.Context) (int64, error)
}

// Locker guards a run so that only one replica reconciles at a time.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// Scheduler wraps robfig/cron and manages the reconciliation loop.
type Scheduler struct {
	cron   *cron.Cron
	jobs   Recounter
	locker Locker
	log    *zap.Logger
	spec   string        // cron spec, e.g. "@every 60m"
	ttl    time.Duration // lock lifetime, one interval
	wg     sync.WaitGroup
}

// New creates a Scheduler that fires every intervalMinutes minutes.
func New(jobs Recounter, locker Locker, intervalMinutes int, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cronLogger{log.Sugar()})),
		jobs:   jobs,
		locker: locker,
		log:    log,
		spec:   fmt.Sprintf("@every %dm", intervalMinutes),
		ttl:    time.Duration(intervalMinutes) * time.Minute,
	}
}

// Start registers the job and starts the scheduler. It also runs one
// reconciliation immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.run(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.log.Info("reconcile scheduler started", zap.String("spec", s.spec))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()

	return nil
}

// Stop halts the scheduler and waits for every running reconciliation,
// including the one started by Start.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.log.Info("reconcile scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		s.log.Error("bid count reconciliation failed", zap.Error(err))
	}
}

// RunOnce reconciles every job unless another replica holds the lock. It
// reports whether the run happened.
func (s *Scheduler) RunOnce(ctx context.Context) (bool, error) {
	ok, err := s.locker.TryLock(ctx, lockKey, s.ttl)
	if err != nil {
		metrics.ReconcileRunsTotal.WithLabelValues("error").Inc()
		return false, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		metrics.ReconcileRunsTotal.WithLabelValues("skipped").Inc()
		s.log.Debug("reconciliation already running elsewhere")
		return false, nil
	}
	defer func() {
		if err := s.locker.Unlock(context.WithoutCancel(ctx), lockKey); err != nil {
			s.log.Warn("release reconcile lock failed", zap.Error(err))
		}
	}()

	start := time.Now()
	fixed, err := s.jobs.RecountBids(ctx)
	if err != nil {
		metrics.ReconcileRunsTotal.WithLabelValues("error").Inc()
		return true, err
	}
	metrics.ReconcileRunsTotal.WithLabelValues("ok").Inc()
	metrics.BidCountCorrectionsTotal.Add(float64(fixed))

	if fixed > 0 {
		s.log.Warn("bid_count drift corrected", zap.Int64("jobs", fixed), zap.Duration("took", time.Since(start)))
	} else {
		s.log.Debug("bid_count consistent", zap.Duration("took", time.Since(start)))
	}
	return true, nil
}

// cronLogger routes robfig/cron's logging through zap.
type cronLogger struct{ s *zap.SugaredLogger }

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.s.Errorw(msg, append(keysAndValues, "err", err)...)
}
