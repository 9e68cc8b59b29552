package purge

import (
	"context"
	"errors"
	"fmt"

	"github.com/i358/discord-message-deleter/internal/discord"
	"github.com/i358/discord-message-deleter/internal/logger"
	"github.com/i358/discord-message-deleter/internal/retry"
	"github.com/i358/discord-message-deleter/internal/snowflake"
)

// lister is the producer side of the pipeline. It owns the cursor and the
// seen set.
type lister struct {
	api      API
	opts     Options
	stats    *Stats
	seen     *SeenSet
	out      chan<- discord.Message
	gone     <-chan struct{} // closed when the deleter exits
	decider  Decider
	observer Observer
	recorder Recorder
	logger   *logger.Logger
	sleep    retry.SleepFunc

	cursor      string
	emptyPages  int
	zeroMatches int
	prompted    bool
}

// run drives the lister until Done. The returned error is non-nil only for
// fatal conditions (listing failure, decider failure, cancellation).
func (l *lister) run(ctx context.Context) (StopReason, error) {
	first := true

	for {
		if !first {
			if err := l.stats.WaitDrained(ctx, l.opts.DrainPollInterval, l.gone); err != nil {
				if errors.Is(err, errDeleterGone) {
					l.logger.WarnCtx(ctx, "deleter stopped, lister done")
					return StopDeleterGone, nil
				}
				return StopCancelled, err
			}
		}
		first = false

		page, err := l.fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return StopCancelled, ctx.Err()
			}
			return StopFailed, err
		}

		if len(page) == 0 {
			l.emptyPages++
			l.logger.InfoCtx(ctx, "no messages found in this batch",
				logger.Field{Key: "attempt", Value: l.emptyPages},
				logger.Field{Key: "limit", Value: l.opts.EmptyPageLimit},
				logger.Field{Key: "cursor", Value: l.cursor})

			if l.emptyPages >= l.opts.EmptyPageLimit {
				l.logger.InfoCtx(ctx, "channel history exhausted",
					logger.Field{Key: "empty_pages", Value: l.emptyPages})
				return StopExhausted, nil
			}
			if err := l.sleep(ctx, l.opts.EmptyPageDelay); err != nil {
				return StopCancelled, err
			}
			continue
		}
		l.emptyPages = 0

		l.advance(ctx, page)
		batch, matched := l.filter(page)
		l.stats.RecordPage()
		l.recorder.ObservePage(len(page), len(batch))

		if matched > 0 && len(batch) == 0 {
			l.zeroMatches = 0
			l.logger.InfoCtx(ctx, "author messages in batch were already processed",
				logger.Field{Key: "matched", Value: matched},
				logger.Field{Key: "cursor", Value: l.cursor})
			l.observer.OnProgress(l.stats.Snapshot())
			continue
		}

		if matched == 0 {
			l.zeroMatches++
			l.logger.InfoCtx(ctx, "no author messages in batch, skipping to older history",
				logger.Field{Key: "page_size", Value: len(page)},
				logger.Field{Key: "consecutive", Value: l.zeroMatches},
				logger.Field{Key: "cursor", Value: l.cursor})
			l.observer.OnProgress(l.stats.Snapshot())

			if !l.shouldPrompt() {
				continue
			}

			prompt := ZeroMatchPrompt{
				ConsecutiveBatches: l.zeroMatches,
				TotalBatches:       l.stats.Snapshot().Batches,
				Cursor:             l.cursor,
				First:              !l.prompted,
			}
			l.prompted = true

			keepGoing, err := l.decider.ContinueScanning(ctx, prompt)
			if err != nil {
				if ctx.Err() != nil {
					return StopCancelled, ctx.Err()
				}
				return StopFailed, fmt.Errorf("failed to get continue decision: %w", err)
			}
			if !keepGoing {
				l.logger.InfoCtx(ctx, "scan aborted by decision",
					logger.Field{Key: "consecutive", Value: l.zeroMatches})
				return StopAborted, nil
			}
			l.zeroMatches = 0
			continue
		}
		l.zeroMatches = 0

		l.stats.BeginBatch(len(batch))
		l.recorder.ObserveInProcess(l.stats.InProcess())
		l.logger.InfoCtx(ctx, "found messages to delete in this batch",
			logger.Field{Key: "count", Value: len(batch)},
			logger.Field{Key: "page_size", Value: len(page)})

		for i, msg := range batch {
			select {
			case l.out <- msg:
			case <-l.gone:
				l.abandon(len(batch) - i)
				l.logger.WarnCtx(ctx, "deleter stopped while forwarding batch")
				return StopDeleterGone, nil
			case <-ctx.Done():
				l.abandon(len(batch) - i)
				return StopCancelled, ctx.Err()
			}
		}

		l.observer.OnProgress(l.stats.Snapshot())
	}
}

// abandon releases n published messages that were never forwarded.
func (l *lister) abandon(n int) {
	for range n {
		l.stats.Resolve(Abandoned)
	}
}

// shouldPrompt: the first zero-match batch of the run, then every
// ZeroMatchPromptEvery consecutive ones.
func (l *lister) shouldPrompt() bool {
	if !l.prompted {
		return true
	}
	return l.zeroMatches >= l.opts.ZeroMatchPromptEvery
}

// advance moves the cursor to the oldest message of the page, matched or not.
func (l *lister) advance(ctx context.Context, page []discord.Message) {
	newest := page[0].ID
	oldest := page[len(page)-1].ID

	if l.cursor != "" && !snowflake.Newer(l.cursor, oldest) {
		l.logger.WarnCtx(ctx, "page is not older than cursor",
			logger.Field{Key: "cursor", Value: l.cursor},
			logger.Field{Key: "oldest", Value: oldest})
	}

	fields := []logger.Field{
		{Key: "newest_id", Value: newest},
		{Key: "oldest_id", Value: oldest},
	}
	if t, err := snowflake.CreatedAt(newest); err == nil {
		fields = append(fields, logger.Field{Key: "newest_at", Value: t})
	}
	if t, err := snowflake.CreatedAt(oldest); err == nil {
		fields = append(fields, logger.Field{Key: "oldest_at", Value: t})
	}
	l.logger.DebugCtx(ctx, "page range", fields...)

	l.cursor = oldest
}

// filter keeps unseen messages of the target author in page order and marks
// them seen. matched counts author messages before dedup.
func (l *lister) filter(page []discord.Message) (batch []discord.Message, matched int) {
	for _, msg := range page {
		if msg.Author.ID != l.opts.AuthorID {
			continue
		}
		matched++
		if l.seen.Seen(msg.ID) {
			l.logger.Debug("skipping already processed message",
				logger.Field{Key: "message_id", Value: msg.ID})
			continue
		}
		l.seen.MarkSeen(msg.ID)
		batch = append(batch, msg)
	}
	return batch, matched
}

// fetch requests one page before the cursor, retrying 429 and 5xx.
func (l *lister) fetch(ctx context.Context) ([]discord.Message, error) {
	backoff := retry.NewBackoff(l.opts.Retry)

	l.logger.DebugCtx(ctx, "fetching messages",
		logger.Field{Key: "before", Value: l.cursor},
		logger.Field{Key: "limit", Value: l.opts.PageSize})

	for {
		resp, err := l.api.ListMessages(ctx, l.opts.ChannelID, l.cursor, l.opts.PageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to get messages: %w", err)
		}

		outcome := retry.Classify(resp.StatusCode)
		switch outcome {
		case retry.Success:
			messages, err := resp.Messages()
			if err != nil {
				return nil, err
			}
			l.logger.DebugCtx(ctx, "messages received from API",
				logger.Field{Key: "count", Value: len(messages)})
			return messages, nil

		case retry.RateLimited, retry.ServerError:
			wait, err := nextWait(backoff, outcome, resp)
			if err != nil {
				return nil, fmt.Errorf("failed to get messages: %w: %w", err, resp.AsError())
			}
			l.logger.WarnCtx(ctx, "listing retry",
				logger.Field{Key: "status", Value: resp.StatusCode},
				logger.Field{Key: "outcome", Value: outcome.String()},
				logger.Field{Key: "wait", Value: wait.String()},
				logger.Field{Key: "attempt", Value: backoff.Attempts()})
			l.recorder.ObserveRetry("list", outcome, wait)

			if err := l.sleep(ctx, wait); err != nil {
				return nil, err
			}

		default:
			return nil, fmt.Errorf("failed to get messages: %w", resp.AsError())
		}
	}
}
