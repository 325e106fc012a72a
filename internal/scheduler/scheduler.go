// Package scheduler drives the reminder tick on a fixed interval.
package scheduler

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"WhatsappReminder/internal/api/reminder"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

const DefaultInterval = time.Minute

// Ticker is the part of the reminder service the scheduler drives.
type Ticker interface {
	RunTick(ctx context.Context) (reminder.TickResult, error)
}

type Scheduler struct {
	cron     *cron.Cron
	ticker   Ticker
	interval time.Duration
	timeout  time.Duration
	log      *logrus.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
}

func New(ticker Ticker, interval time.Duration, logger *logrus.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}

	c := cron.New(
		cron.WithLogger(cron.PrintfLogger(logger)),
		cron.WithChain(
			cron.Recover(cron.PrintfLogger(logger)),
			cron.SkipIfStillRunning(cron.PrintfLogger(logger)),
		),
	)

	return &Scheduler{
		cron:     c,
		ticker:   ticker,
		interval: interval,
		timeout:  5 * time.Minute,
		log:      logger,
	}
}

// Start registers the tick and runs one immediately. Calling Start twice is
// a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	job := cron.FuncJob(func() { s.tick(runCtx) })

	if _, err := s.cron.AddJob(fmt.Sprintf("@every %s", s.interval), job); err != nil {
		cancel()
		return fmt.Errorf("failed to schedule reminder tick: %w", err)
	}

	s.cancel = cancel
	s.started = true
	s.cron.Start()
	go s.tick(runCtx)

	s.log.WithField("interval", s.interval.String()).Info("Reminder scheduler started")
	return nil
}

// Stop stops scheduling and waits for a running tick to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}

	s.cancel()
	<-s.cron.Stop().Done()
	s.started = false
	s.log.Info("Reminder scheduler stopped")
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	tickCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.ticker.RunTick(tickCtx)
	if err != nil && !errors.Is(err, reminder.ErrTickInProgress) {
		s.log.WithField("error", err.Error()).Warn("Scheduled reminder tick failed")
	}
}
