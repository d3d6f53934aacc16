package unitrun

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/log"
)

// TestScheduler is responsible for scheduling test runs, either a single one
// or a periodic series.
type TestScheduler interface {
	Start(ctx context.Context) error
	Stop() error
	RegisterCallback(func() error)
	WaitForShutdown(ctx context.Context) error
	Stopped() bool
}

// DefaultTestScheduler implements the TestScheduler interface.
type DefaultTestScheduler struct {
	interval time.Duration
	runOnce  bool
	logger   log.Logger
	callback func() error

	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewDefaultTestScheduler creates a new DefaultTestScheduler.
func NewDefaultTestScheduler(interval time.Duration, runOnce bool, logger log.Logger) *DefaultTestScheduler {
	return &DefaultTestScheduler{
		interval: interval,
		runOnce:  runOnce,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// RegisterCallback registers the callback to be called when tests should run.
func (s *DefaultTestScheduler) RegisterCallback(callback func() error) {
	s.callback = callback
}

// Start starts the scheduler. In run-once mode the callback runs synchronously
// and its error is returned; in continuous mode the first run happens
// immediately and later runs happen on the interval in a goroutine.
func (s *DefaultTestScheduler) Start(ctx context.Context) error {
	if s.callback == nil {
		return errors.New("callback must be registered before starting scheduler")
	}

	s.done = make(chan struct{})
	s.running.Store(true)

	if s.runOnce {
		s.logger.Debug("scheduler running single pass")
		return s.callback()
	}

	s.logger.Debug("scheduler running continuously", "interval", s.interval)

	// First pass runs right away; the interval only paces later ones.
	if err := s.callback(); err != nil {
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Debug("scheduler loop started", "interval", s.interval)

		for {
			select {
			case <-time.After(s.interval):
				if !s.running.Load() {
					s.logger.Debug("scheduler stopped, leaving loop")
					return
				}

				s.logger.Info("starting scheduled test pass")
				if err := s.callback(); err != nil {
					s.logger.Error("scheduled test pass failed", "error", err)
				}

			case <-s.done:
				s.logger.Debug("stop requested, leaving scheduler loop")
				return

			case <-ctx.Done():
				s.logger.Debug("context canceled, leaving scheduler loop")
				s.running.Store(false)
				return
			}
		}
	}()

	return nil
}

// Stop stops the scheduler.
func (s *DefaultTestScheduler) Stop() error {
	if !s.running.Load() {
		s.logger.Debug("scheduler already stopped")
		return nil
	}

	// Flip the flag before closing done so no new pass starts
	s.running.Store(false)

	s.logger.Debug("signaling scheduler loop to stop")
	close(s.done)

	return nil
}

// Stopped returns true if the scheduler is stopped.
func (s *DefaultTestScheduler) Stopped() bool {
	return !s.running.Load()
}

// WaitForShutdown blocks until all goroutines have terminated or the context
// expires.
func (s *DefaultTestScheduler) WaitForShutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Debug("scheduler shut down cleanly")
		return nil
	case <-ctx.Done():
		s.logger.Warn("gave up waiting for scheduler shutdown", "error", ctx.Err())
		return ctx.Err()
	}
}
