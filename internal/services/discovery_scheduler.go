package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultDiscoverySchedule runs discovery every 15 minutes (cron with seconds field)
const DefaultDiscoverySchedule = "0 */15 * * * *"

// ErrDiscoveryInProgress is returned by RunNow while another run holds the scheduler
var ErrDiscoveryInProgress = errors.New("discovery run already in progress")

// PendingProcessor runs discovery over stored, unprocessed signals
type PendingProcessor interface {
	ProcessPending(ctx context.Context, trigger string) (*DiscoveryResult, error)
}

// DiscoveryScheduler triggers ProcessPending periodically. At most one run is active at a
// time; scheduled ticks that overlap a running batch are skipped.
type DiscoveryScheduler struct {
	processor PendingProcessor
	schedule  string
	timeout   time.Duration
	logger    *logrus.Logger

	cron    *cron.Cron
	runMu   sync.Mutex
	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	lastRun time.Time
	lastErr error
}

// NewDiscoveryScheduler creates a scheduler; an empty schedule uses DefaultDiscoverySchedule
func NewDiscoveryScheduler(processor PendingProcessor, schedule string, logger *logrus.Logger) *DiscoveryScheduler {
	if schedule == "" {
		schedule = DefaultDiscoverySchedule
	}
	return &DiscoveryScheduler{
		processor: processor,
		schedule:  schedule,
		timeout:   10 * time.Minute,
		logger:    logger,
		cron:      cron.New(cron.WithSeconds()),
	}
}

// Start registers the discovery job and starts the cron loop
func (s *DiscoveryScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("discovery scheduler is already running")
	}

	if _, err := s.cron.AddFunc(s.schedule, s.runScheduled); err != nil {
		return fmt.Errorf("invalid discovery schedule %q: %w", s.schedule, err)
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()
	s.running = true

	s.logger.WithField("schedule", s.schedule).Info("Discovery scheduler started")
	return nil
}

// Stop halts the cron loop and waits for an in-flight run to finish
func (s *DiscoveryScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	cancel()

	s.logger.Info("Discovery scheduler stopped")
}

// IsRunning reports whether the cron loop is active
func (s *DiscoveryScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunNow executes one discovery run immediately, outside the schedule
func (s *DiscoveryScheduler) RunNow(ctx context.Context) (*DiscoveryResult, error) {
	if !s.runMu.TryLock() {
		return nil, ErrDiscoveryInProgress
	}
	defer s.runMu.Unlock()

	return s.run(ctx, TriggerManual)
}

// LastRun returns the time and error of the most recent completed run
func (s *DiscoveryScheduler) LastRun() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastErr
}

func (s *DiscoveryScheduler) runScheduled() {
	if !s.runMu.TryLock() {
		s.logger.Warn("Skipping scheduled discovery, previous run still in progress")
		return
	}
	defer s.runMu.Unlock()

	s.mu.Lock()
	parent := s.ctx
	s.mu.Unlock()
	if parent == nil {
		parent = context.Background()
	}

	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	if _, err := s.run(ctx, TriggerScheduled); err != nil {
		s.logger.WithError(err).Error("Scheduled discovery failed")
	}
}

func (s *DiscoveryScheduler) run(ctx context.Context, trigger string) (*DiscoveryResult, error) {
	result, err := s.processor.ProcessPending(ctx, trigger)

	s.mu.Lock()
	s.lastRun = time.Now()
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return result, nil
}
