// Package schedule runs purges periodically on a cron schedule.
// It uses robfig/cron/v3; a run that is still in progress when the next
// tick fires causes that tick to be skipped.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/i358/discord-message-deleter/internal/logger"
)

// RunFunc executes one scheduled run.
type RunFunc func(ctx context.Context) error

var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSpec validates a cron expression ("0 3 * * *", "*/30 * * * * *",
// "@daily", "@every 6h").
func ParseSpec(spec string) (cron.Schedule, error) {
	sched, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return sched, nil
}

// Scheduler manages the recurring job.
type Scheduler struct {
	cron     *cron.Cron
	schedule cron.Schedule
	spec     string
	run      RunFunc
	logger   *logger.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	entryID cron.EntryID
	runs    int
}

// New creates a scheduler for spec. Nothing runs until Start.
func New(spec string, run RunFunc, log *logger.Logger) (*Scheduler, error) {
	sched, err := ParseSpec(spec)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	adapter := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLogger(adapter),
			cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
		),
		schedule: sched,
		spec:     spec,
		run:      run,
		logger:   log,
	}, nil
}

// Start registers the job and starts the cron loop. Runs receive a context
// derived from ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already started")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.entryID = s.cron.Schedule(s.schedule, cron.FuncJob(s.execute))
	s.started = true

	s.cron.Start()
	s.logger.Info("purge scheduler started",
		logger.Field{Key: "spec", Value: s.spec},
		logger.Field{Key: "next_run", Value: s.schedule.Next(time.Now())})

	return nil
}

// Stop cancels the running job, if any, and waits for it to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return fmt.Errorf("scheduler not started")
	}
	s.started = false
	s.cron.Remove(s.entryID)
	s.cancel()
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info("purge scheduler stopped")
	return nil
}

// IsStarted reports whether Start was called without a matching Stop.
func (s *Scheduler) IsStarted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Next returns the next activation after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Runs returns the number of started runs.
func (s *Scheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

// RunNow executes the job synchronously outside the schedule.
func (s *Scheduler) RunNow(ctx context.Context) error {
	return s.runOnce(ctx)
}

func (s *Scheduler) execute() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	if ctx == nil || ctx.Err() != nil {
		return
	}
	if err := s.runOnce(ctx); err != nil {
		s.logger.Error("scheduled purge failed", err)
	}
}

func (s *Scheduler) runOnce(ctx context.Context) error {
	s.mu.Lock()
	s.runs++
	n := s.runs
	s.mu.Unlock()

	start := time.Now()
	s.logger.InfoCtx(ctx, "scheduled purge started", logger.Field{Key: "run", Value: n})

	err := s.run(ctx)

	s.logger.InfoCtx(ctx, "scheduled purge finished",
		logger.Field{Key: "run", Value: n},
		logger.Field{Key: "duration", Value: time.Since(start).String()},
		logger.Field{Key: "next_run", Value: s.schedule.Next(time.Now())})
	return err
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, err, kvFields(keysAndValues)...)
}

func kvFields(kv []any) []logger.Field {
	fields := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, logger.Field{Key: fmt.Sprint(kv[i]), Value: kv[i+1]})
	}
	return fields
}
