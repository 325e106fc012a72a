package scheduler

import (
	"io"
	"sync/atomic"
	"testing"
	"time"

	"WhatsappReminder/internal/api/reminder"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"
)

type countingTicker struct {
	calls atomic.Int32
	err   error
}

func (c *countingTicker) RunTick(context.Context) (reminder.TickResult, error) {
	c.calls.Add(1)
	return reminder.TickResult{}, c.err
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestStartRunsImmediatelyAndOnInterval(t *testing.T) {
	ticker := &countingTicker{}
	s := New(ticker, time.Second, quietLogger())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.Eventually(t, func() bool { return ticker.calls.Load() >= 1 }, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return ticker.calls.Load() >= 2 }, 3*time.Second, 50*time.Millisecond)
}

func TestStartIsIdempotent(t *testing.T) {
	ticker := &countingTicker{}
	s := New(ticker, time.Hour, quietLogger())

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.Eventually(t, func() bool { return ticker.calls.Load() == 1 }, time.Second, 10*time.Millisecond)
	assert.Len(t, s.cron.Entries(), 1)
}

func TestStopCancelsFurtherTicks(t *testing.T) {
	ticker := &countingTicker{err: reminder.ErrTickInProgress}
	s := New(ticker, time.Second, quietLogger())

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return ticker.calls.Load() >= 1 }, time.Second, 10*time.Millisecond)
	s.Stop()

	calls := ticker.calls.Load()
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, calls, ticker.calls.Load())
}

func TestDefaultInterval(t *testing.T) {
	s := New(&countingTicker{}, 0, quietLogger())
	assert.Equal(t, DefaultInterval, s.interval)
}
