// Package purge deletes every message of one author in one channel.
//
// A lister goroutine pages backward through the channel history, keeps the
// author's messages it has not forwarded yet and hands each batch to a
// deleter goroutine over a bounded channel. The lister does not fetch the
// next page until the deleter has resolved every message of the current
// batch, so the two stages alternate. Completion is detected from runs of
// empty pages (history exhausted) or of pages without author matches (the
// Decider is asked whether to keep scanning).
package purge

import (
	"context"
	"time"

	"github.com/i358/discord-message-deleter/internal/discord"
	"github.com/i358/discord-message-deleter/internal/retry"
)

// API is the part of the Discord transport used by the pipeline.
// *discord.Client implements it.
type API interface {
	ListMessages(ctx context.Context, channelID, before string, limit int) (*discord.Response, error)
	DeleteMessage(ctx context.Context, channelID, messageID string) (*discord.Response, error)
}

// ZeroMatchPrompt describes the situation when the lister keeps finding pages
// without messages from the author.
type ZeroMatchPrompt struct {
	ConsecutiveBatches int    // pages in a row without a new author message
	TotalBatches       int    // non-empty pages fetched in this run
	Cursor             string // oldest message ID reached so far
	First              bool   // first prompt of the run
}

// Decider decides whether to keep scanning older history after pages
// without author matches. Returning false ends the run.
type Decider interface {
	ContinueScanning(ctx context.Context, p ZeroMatchPrompt) (bool, error)
}

// DeciderFunc adapts a function to Decider.
type DeciderFunc func(ctx context.Context, p ZeroMatchPrompt) (bool, error)

func (f DeciderFunc) ContinueScanning(ctx context.Context, p ZeroMatchPrompt) (bool, error) {
	return f(ctx, p)
}

// Observer receives progress after each batch and the final summary.
type Observer interface {
	OnProgress(p Progress)
	OnComplete(s Summary)
}

// Recorder receives pipeline measurements (see internal/metrics).
type Recorder interface {
	ObservePage(size, forwarded int)
	ObserveResolution(r Resolution)
	ObserveInProcess(n int)
	ObserveRetry(operation string, outcome retry.Outcome, wait time.Duration)
}

// StopReason explains why the lister reached Done.
type StopReason string

const (
	StopExhausted   StopReason = "exhausted"    // consecutive empty pages
	StopAborted     StopReason = "aborted"      // decider declined to continue
	StopDeleterGone StopReason = "deleter_gone" // consumer stopped early
	StopCancelled   StopReason = "cancelled"    // context cancelled
	StopFailed      StopReason = "failed"       // fatal listing error
)

// Summary is the final report of a run.
type Summary struct {
	RunID      string        `yaml:"run_id"`
	ChannelID  string        `yaml:"channel_id"`
	AuthorID   string        `yaml:"author_id"`
	Deleted    int           `yaml:"deleted"`
	Failed     int           `yaml:"failed"`
	Skipped    int           `yaml:"skipped"`
	Found      int           `yaml:"found"`
	Batches    int           `yaml:"batches"`
	StartedAt  time.Time     `yaml:"started_at"`
	Elapsed    time.Duration `yaml:"elapsed"`
	StopReason StopReason    `yaml:"stop_reason"`
	Error      string        `yaml:"error,omitempty"`
}

// ElapsedSeconds returns the run duration in seconds.
func (s Summary) ElapsedSeconds() float64 {
	return s.Elapsed.Seconds()
}

type nopObserver struct{}

func (nopObserver) OnProgress(Progress) {}
func (nopObserver) OnComplete(Summary) {}

type nopRecorder struct{}

func (nopRecorder) ObservePage(int, int) {}
func (nopRecorder) ObserveResolution(Resolution) {}
func (nopRecorder) ObserveInProcess(int) {}
func (nopRecorder) ObserveRetry(string, retry.Outcome, time.Duration) {}

// alwaysContinue is used when no Decider is configured.
var alwaysContinue = DeciderFunc(func(context.Context, ZeroMatchPrompt) (bool, error) {
	return true, nil
})
