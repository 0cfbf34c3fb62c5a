package reconcile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"jobsync/marketplace-service/internal/reconcile"
)

type fakeRecounter struct {
	calls int
	fixed int64
	err   error
}

func (f *fakeRecounter) RecountBids(context.Context) (int64, error) {
	f.calls++
	return f.fixed, f.err
}

type fakeLocker struct {
	held     bool
	err      error
	unlocked int
	ttl      time.Duration
}

func (f *fakeLocker) TryLock(_ context.Context, _ string, ttl time.Duration) (bool, error) {
	f.ttl = ttl
	if f.err != nil {
		return false, f.err
	}
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLocker) Unlock(context.Context, string) error {
	f.held = false
	f.unlocked++
	return nil
}

func TestRunOnce_RecountsUnderLock(t *testing.T) {
	jobs := &fakeRecounter{fixed: 3}
	lock := &fakeLocker{}
	s := reconcile.New(jobs, lock, 15, zap.NewNop())

	ran, err := s.RunOnce(context.Background())
	if err != nil || !ran {
		t.Fatalf("RunOnce = %v, %v", ran, err)
	}
	if jobs.calls != 1 {
		t.Errorf("RecountBids called %d times", jobs.calls)
	}
	if lock.unlocked != 1 || lock.held {
		t.Error("lock not released after the run")
	}
	if lock.ttl != 15*time.Minute {
		t.Errorf("lock ttl = %s, want one interval", lock.ttl)
	}
}

func TestRunOnce_SkipsWhenLocked(t *testing.T) {
	jobs := &fakeRecounter{}
	lock := &fakeLocker{held: true}
	s := reconcile.New(jobs, lock, 60, zap.NewNop())

	ran, err := s.RunOnce(context.Background())
	if err != nil || ran {
		t.Fatalf("RunOnce = %v, %v; want skipped", ran, err)
	}
	if jobs.calls != 0 {
		t.Error("RecountBids must not run without the lock")
	}
}

func TestRunOnce_Errors(t *testing.T) {
	boom := errors.New("boom")

	s := reconcile.New(&fakeRecounter{}, &fakeLocker{err: boom}, 60, zap.NewNop())
	if _, err := s.RunOnce(context.Background()); !errors.Is(err, boom) {
		t.Errorf("lock error: err = %v", err)
	}

	lock := &fakeLocker{}
	s = reconcile.New(&fakeRecounter{err: boom}, lock, 60, zap.NewNop())
	if _, err := s.RunOnce(context.Background()); !errors.Is(err, boom) {
		t.Errorf("recount error: err = %v", err)
	}
	if lock.unlocked != 1 {
		t.Error("lock must be released when the recount fails")
	}
}

// blockingRecounter holds RecountBids open until release is closed.
type blockingRecounter struct {
	started chan struct{}
	release chan struct{}
	done    chan struct{}
}

func (b *blockingRecounter) RecountBids(context.Context) (int64, error) {
	close(b.started)
	<-b.release
	close(b.done)
	return 0, nil
}

func TestStop_WaitsForInitialRun(t *testing.T) {
	jobs := &blockingRecounter{
		started: make(chan struct{}),
		release: make(chan struct{}),
		done:    make(chan struct{}),
	}
	s := reconcile.New(jobs, &fakeLocker{}, 60, zap.NewNop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-jobs.started

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while the initial run was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(jobs.release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the run finished")
	}
	select {
	case <-jobs.done:
	default:
		t.Error("Stop returned before RecountBids completed")
	}
}
