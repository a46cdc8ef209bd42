// Package scheduler runs periodic jobs such as feed polling and dashboard
// auto-refresh, with explicit cancellation.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is one periodic unit of work.
type Job func(ctx context.Context)

// CancelFunc stops a scheduled job. Calling it more than once is a no-op.
type CancelFunc func()

// Scheduler schedules jobs at fixed intervals.
type Scheduler interface {
	Schedule(interval time.Duration, job Job) CancelFunc
	Stop()
}

// Cron is the production scheduler backed by robfig/cron. A job still
// running when its next tick arrives is skipped, not queued.
type Cron struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger

	mu      sync.Mutex
	stopped bool
}

// NewCron starts an empty scheduler.
func NewCron(logger *zap.Logger) *Cron {
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := cronLogger{logger.Sugar()}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Cron{
		cron:   cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
	c.cron.Start()
	return c
}

// Schedule runs job every interval (rounded to whole seconds, minimum one).
func (c *Cron) Schedule(interval time.Duration, job Job) CancelFunc {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return func() {}
	}
	id := c.cron.Schedule(cron.Every(interval), cron.FuncJob(func() {
		if c.ctx.Err() != nil {
			return
		}
		job(c.ctx)
	}))
	c.logger.Debug("job scheduled", zap.Int("entry", int(id)), zap.Duration("interval", interval))

	var once sync.Once
	return func() {
		once.Do(func() { c.cron.Remove(id) })
	}
}

// Stop cancels every job and waits for running ones to return.
func (c *Cron) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	c.mu.Unlock()

	c.cancel()
	<-c.cron.Stop().Done()
}

type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
