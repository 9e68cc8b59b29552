package purge

import (
	"context"
	"fmt"
	"time"

	"github.com/i358/discord-message-deleter/internal/discord"
	"github.com/i358/discord-message-deleter/internal/logger"
	"github.com/i358/discord-message-deleter/internal/retry"
)

// deleter is the consumer side of the pipeline.
type deleter struct {
	api      API
	opts     Options
	stats    *Stats
	recorder Recorder
	logger   *logger.Logger
	sleep    retry.SleepFunc
}

// run deletes messages until in is closed and drained. After cancellation
// the remaining messages are released without a request.
func (d *deleter) run(ctx context.Context, in <-chan discord.Message) {
	for msg := range in {
		if ctx.Err() != nil {
			d.resolve(Abandoned)
			continue
		}

		res := d.delete(ctx, msg)
		d.resolve(res)

		if res == Abandoned {
			continue
		}
		// Pacing is best effort: a cancelled sleep just abandons the rest.
		_ = d.sleep(ctx, d.opts.DeleteDelay)
	}
}

func (d *deleter) resolve(res Resolution) {
	d.stats.Resolve(res)
	d.recorder.ObserveResolution(res)
	d.recorder.ObserveInProcess(d.stats.InProcess())
}

// delete issues the delete request for msg and classifies the result,
// retrying 429 and 5xx with a fresh per-message backoff.
func (d *deleter) delete(ctx context.Context, msg discord.Message) Resolution {
	backoff := retry.NewBackoff(d.opts.Retry)
	log := d.logger.With(logger.Field{Key: "message_id", Value: msg.ID})

	for {
		resp, err := d.api.DeleteMessage(ctx, d.opts.ChannelID, msg.ID)
		if err != nil {
			if ctx.Err() != nil {
				return Abandoned
			}
			log.ErrorCtx(ctx, "error deleting message", err)
			return Failed
		}

		outcome := retry.Classify(resp.StatusCode)
		switch outcome {
		case retry.Success:
			log.InfoCtx(ctx, "deleted message")
			return Deleted

		case retry.NotFound:
			log.InfoCtx(ctx, "message not found, skipping")
			return Skipped

		case retry.Forbidden:
			log.WarnCtx(ctx, "failed to delete message",
				logger.Field{Key: "status", Value: resp.StatusCode},
				logger.Field{Key: "body", Value: resp.Text()})
			return Failed

		case retry.RateLimited, retry.ServerError:
			wait, err := nextWait(backoff, outcome, resp)
			if err != nil {
				log.ErrorCtx(ctx, "giving up on message", err,
					logger.Field{Key: "status", Value: resp.StatusCode})
				return Failed
			}
			log.WarnCtx(ctx, "delete retry",
				logger.Field{Key: "status", Value: resp.StatusCode},
				logger.Field{Key: "outcome", Value: outcome.String()},
				logger.Field{Key: "wait", Value: wait.String()},
				logger.Field{Key: "attempt", Value: backoff.Attempts()})
			d.recorder.ObserveRetry("delete", outcome, wait)

			if err := d.sleep(ctx, wait); err != nil {
				return Abandoned
			}

		default:
			log.WarnCtx(ctx, "failed to delete message",
				logger.Field{Key: "status", Value: resp.StatusCode},
				logger.Field{Key: "body", Value: resp.Text()})
			return Failed
		}
	}
}

// nextWait computes the retry wait; on 429 the server-supplied retry_after
// competes with the local backoff.
func nextWait(b *retry.Backoff, outcome retry.Outcome, resp *discord.Response) (time.Duration, error) {
	var serverWait time.Duration
	if outcome == retry.RateLimited {
		serverWait = resp.RateLimit().Wait()
	}
	wait, err := b.Next(outcome, serverWait)
	if err != nil {
		return 0, fmt.Errorf("status %d: %w", resp.StatusCode, err)
	}
	return wait, nil
}
