// Package prompt implements the interactive side of a purge run: the final
// confirmation, the channel ID prompt and the continue/abort decision asked
// when older history keeps yielding no messages from the author.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/i358/discord-message-deleter/internal/constants"
	"github.com/i358/discord-message-deleter/internal/purge"
	"github.com/i358/discord-message-deleter/internal/snowflake"
)

// ErrNoInput is returned when the input stream ends before an answer.
var ErrNoInput = errors.New("no input")

// Zero-match policies.
const (
	ModeAsk      = "ask"
	ModeContinue = "continue"
	ModeStop     = "stop"
)

// Terminal asks questions on a line-oriented input/output pair.
type Terminal struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer

	startReader sync.Once
	lines       chan lineResult
}

type lineResult struct {
	line string
	err  error
}

// NewTerminal создает Terminal поверх in и out
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		in:    bufio.NewReader(in),
		out:   out,
		lines: make(chan lineResult),
	}
}

// Confirm prints question and reports whether the answer is y or yes.
// Anything else, including an empty line, is a no.
func (t *Terminal) Confirm(ctx context.Context, question string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprint(t.out, question)
	answer, err := t.readLine(ctx)
	if err != nil {
		return false, err
	}
	return isYes(answer), nil
}

// AskChannel prompts until the user enters a channel ID that has the
// snowflake format and passes check. check may be nil.
func (t *Terminal) AskChannel(ctx context.Context, check func(ctx context.Context, channelID string) error) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for {
		fmt.Fprint(t.out, constants.MsgEnterChannel)
		id, err := t.readLine(ctx)
		if err != nil {
			return "", err
		}

		if !snowflake.Valid(id) {
			fmt.Fprintln(t.out, constants.MsgInvalidChannelFormat)
			continue
		}
		if check != nil {
			if err := check(ctx, id); err != nil {
				if ctx.Err() != nil {
					return "", ctx.Err()
				}
				fmt.Fprintln(t.out, constants.MsgChannelUnavailable)
				continue
			}
		}
		return id, nil
	}
}

// ContinueScanning implements purge.Decider.
func (t *Terminal) ContinueScanning(ctx context.Context, p purge.ZeroMatchPrompt) (bool, error) {
	return t.Confirm(ctx, "\n"+fmt.Sprintf(constants.MsgZeroMatchPrompt, p.ConsecutiveBatches))
}

// readLine returns the next input line, giving up when ctx is done. A
// single reader goroutine owns the input; a line that arrives after a
// cancelled read is kept for the next call.
func (t *Terminal) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t.startReader.Do(func() { go t.readLoop() })

	select {
	case r, ok := <-t.lines:
		if !ok {
			return "", ErrNoInput
		}
		line := strings.TrimSpace(r.line)
		if r.err != nil {
			if errors.Is(r.err, io.EOF) && line != "" {
				return line, nil
			}
			if errors.Is(r.err, io.EOF) {
				return "", ErrNoInput
			}
			return "", fmt.Errorf("failed to read input: %w", r.err)
		}
		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// readLoop feeds lines until the first read error, then closes lines.
func (t *Terminal) readLoop() {
	defer close(t.lines)
	for {
		line, err := t.in.ReadString('\n')
		t.lines <- lineResult{line: line, err: err}
		if err != nil {
			return
		}
	}
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// Fixed returns a Decider that always gives answer without asking.
func Fixed(answer bool) purge.Decider {
	return purge.DeciderFunc(func(context.Context, purge.ZeroMatchPrompt) (bool, error) {
		return answer, nil
	})
}

// ForMode returns the Decider for an on_zero_match policy.
func ForMode(mode string, term *Terminal) (purge.Decider, error) {
	switch mode {
	case ModeAsk:
		if term == nil {
			return nil, fmt.Errorf("mode %q needs a terminal", mode)
		}
		return term, nil
	case ModeContinue:
		return Fixed(true), nil
	case ModeStop:
		return Fixed(false), nil
	default:
		return nil, fmt.Errorf("unknown zero-match mode: %s (expected: ask, continue, stop)", mode)
	}
}
