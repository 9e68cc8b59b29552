package purge

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/i358/discord-message-deleter/internal/constants"
	"github.com/i358/discord-message-deleter/internal/discord"
	"github.com/i358/discord-message-deleter/internal/logger"
	"github.com/i358/discord-message-deleter/internal/retry"
	"github.com/i358/discord-message-deleter/internal/snowflake"
)

// Options configures one purge run.
type Options struct {
	ChannelID string
	AuthorID  string

	// DeleteDelay is the pause after each deletion, clamped to [50ms, 5s].
	DeleteDelay time.Duration

	Retry retry.Config

	PageSize             int           // default 100
	HandoffCapacity      int           // default 100
	EmptyPageLimit       int           // default 3
	EmptyPageDelay       time.Duration // default 2s; negative disables the pause
	ZeroMatchPromptEvery int           // default 10
	DrainPollInterval    time.Duration // default 500ms
}

func (o *Options) applyDefaults() {
	if o.DeleteDelay < constants.MinDeleteDelay {
		o.DeleteDelay = constants.MinDeleteDelay
	}
	if o.DeleteDelay > constants.MaxDeleteDelay {
		o.DeleteDelay = constants.MaxDeleteDelay
	}
	if o.PageSize <= 0 || o.PageSize > constants.MessagesPerRequest {
		o.PageSize = constants.MessagesPerRequest
	}
	if o.HandoffCapacity <= 0 {
		o.HandoffCapacity = constants.HandoffCapacity
	}
	if o.EmptyPageLimit <= 0 {
		o.EmptyPageLimit = constants.EmptyPageLimit
	}
	if o.EmptyPageDelay == 0 {
		o.EmptyPageDelay = constants.EmptyPageDelay
	}
	if o.EmptyPageDelay < 0 {
		o.EmptyPageDelay = 0
	}
	if o.ZeroMatchPromptEvery <= 0 {
		o.ZeroMatchPromptEvery = constants.ZeroMatchPromptEvery
	}
	if o.DrainPollInterval <= 0 {
		o.DrainPollInterval = constants.DrainPollInterval
	}
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithDecider sets the continue/abort collaborator. Without one the engine
// keeps scanning.
func WithDecider(d Decider) EngineOption {
	return func(e *Engine) {
		e.decider = d
	}
}

// WithObserver sets the progress observer.
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) EngineOption {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithSleep replaces the sleep used for backoff, pacing and empty-page pauses.
func WithSleep(fn retry.SleepFunc) EngineOption {
	return func(e *Engine) {
		e.sleep = fn
	}
}

// WithRunID sets the run identifier; a random UUID is used otherwise.
func WithRunID(id string) EngineOption {
	return func(e *Engine) {
		e.runID = id
	}
}

// Engine wires the lister and the deleter for one channel and author.
type Engine struct {
	api      API
	opts     Options
	decider  Decider
	observer Observer
	recorder Recorder
	logger   *logger.Logger
	sleep    retry.SleepFunc
	runID    string
	now      func() time.Time

	stats atomic.Pointer[Stats]
}

// NewEngine validates opts and creates an Engine.
func NewEngine(api API, opts Options, log *logger.Logger, setters ...EngineOption) (*Engine, error) {
	if api == nil {
		return nil, fmt.Errorf("api is required")
	}
	if err := snowflake.Validate(opts.ChannelID, "channel_id"); err != nil {
		return nil, err
	}
	if err := snowflake.Validate(opts.AuthorID, "author_id"); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	if log == nil {
		log = logger.Nop()
	}

	e := &Engine{
		api:      api,
		opts:     opts,
		decider:  alwaysContinue,
		observer: nopObserver{},
		recorder: nopRecorder{},
		sleep:    retry.Sleep,
		now:      time.Now,
	}
	for _, set := range setters {
		set(e)
	}
	if e.runID == "" {
		e.runID = uuid.New().String()
	}
	e.logger = log.With(
		logger.Field{Key: "run_id", Value: e.runID},
		logger.Field{Key: "channel_id", Value: opts.ChannelID})

	return e, nil
}

// RunID returns the run identifier.
func (e *Engine) RunID() string {
	return e.runID
}

// Options returns the effective options after defaults.
func (e *Engine) Options() Options {
	return e.opts
}

// Progress returns the counters of the current (or last) run.
func (e *Engine) Progress() Progress {
	stats := e.stats.Load()
	if stats == nil {
		return Progress{}
	}
	return stats.Snapshot()
}

// Run executes the pipeline until the lister reaches Done and the deleter
// has drained the channel. The summary is always returned; the error is the
// lister's fatal error, if any.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	stats := NewStats(e.now())
	e.stats.Store(stats)

	handoff := make(chan discord.Message, e.opts.HandoffCapacity)
	deleterDone := make(chan struct{})

	e.logger.InfoCtx(ctx, "starting message deletion",
		logger.Field{Key: "author_id", Value: e.opts.AuthorID},
		logger.Field{Key: "delete_delay", Value: e.opts.DeleteDelay.String()})

	d := &deleter{
		api:      e.api,
		opts:     e.opts,
		stats:    stats,
		recorder: e.recorder,
		logger:   e.logger,
		sleep:    e.sleep,
	}
	l := &lister{
		api:      e.api,
		opts:     e.opts,
		stats:    stats,
		seen:     NewSeenSet(),
		out:      handoff,
		gone:     deleterDone,
		decider:  e.decider,
		observer: e.observer,
		recorder: e.recorder,
		logger:   e.logger,
		sleep:    e.sleep,
	}

	var (
		wg     sync.WaitGroup
		reason StopReason
		runErr error
	)
	wg.Add(2)

	go func() {
		defer wg.Done()
		defer close(deleterDone)
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("deleter panic recovered", fmt.Errorf("panic: %v", r))
			}
		}()
		d.run(ctx, handoff)
	}()

	go func() {
		defer wg.Done()
		defer close(handoff)
		reason, runErr = l.run(ctx)
	}()

	wg.Wait()

	progress := stats.Snapshot()
	summary := Summary{
		RunID:      e.runID,
		ChannelID:  e.opts.ChannelID,
		AuthorID:   e.opts.AuthorID,
		Deleted:    progress.Deleted,
		Failed:     progress.Failed,
		Skipped:    progress.Skipped,
		Found:      progress.Found,
		Batches:    progress.Batches,
		StartedAt:  stats.StartTime(),
		Elapsed:    e.now().Sub(stats.StartTime()),
		StopReason: reason,
	}
	if runErr != nil {
		summary.Error = runErr.Error()
		e.logger.ErrorCtx(ctx, "message deletion stopped with error", runErr,
			logger.Field{Key: "stop_reason", Value: string(reason)})
	}

	e.logger.InfoCtx(ctx, "operation complete",
		logger.Field{Key: "deleted", Value: summary.Deleted},
		logger.Field{Key: "failed", Value: summary.Failed},
		logger.Field{Key: "skipped", Value: summary.Skipped},
		logger.Field{Key: "found", Value: summary.Found},
		logger.Field{Key: "stop_reason", Value: string(reason)},
		logger.Field{Key: "elapsed", Value: summary.Elapsed.String()})

	e.observer.OnComplete(summary)
	return summary, runErr
}
