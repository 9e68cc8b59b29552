package prompt

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i358/discord-message-deleter/internal/purge"
)

func TestTerminal_Confirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"  yes  \n", true},
		{"n\n", false},
		{"\n", false},
		{"sure\n", false},
		{"y", true},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			out := &bytes.Buffer{}
			term := NewTerminal(strings.NewReader(tt.input), out)

			got, err := term.Confirm(context.Background(), "Continue? (y/N): ")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Continue? (y/N): ", out.String())
		})
	}
}

func TestTerminal_Confirm_EOF(t *testing.T) {
	term := NewTerminal(strings.NewReader(""), io.Discard)

	_, err := term.Confirm(context.Background(), "?")
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestTerminal_Confirm_Cancelled(t *testing.T) {
	reader, writer := io.Pipe()
	defer writer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	term := NewTerminal(reader, io.Discard)
	_, err := term.Confirm(ctx, "?")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTerminal_LineAfterCancelledReadIsKept(t *testing.T) {
	reader, writer := io.Pipe()
	defer writer.Close()

	term := NewTerminal(reader, io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := term.Confirm(ctx, "?")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	go func() {
		_, _ = writer.Write([]byte("yes\nn\n"))
	}()

	got, err := term.Confirm(context.Background(), "?")
	require.NoError(t, err)
	assert.True(t, got)

	got, err = term.Confirm(context.Background(), "?")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestTerminal_AskChannel(t *testing.T) {
	input := strings.Join([]string{
		"general",
		"200000000000000009",
		"200000000000000001",
	}, "\n") + "\n"
	out := &bytes.Buffer{}
	term := NewTerminal(strings.NewReader(input), out)

	var checked []string
	check := func(_ context.Context, id string) error {
		checked = append(checked, id)
		if id == "200000000000000009" {
			return errors.New("404")
		}
		return nil
	}

	id, err := term.AskChannel(context.Background(), check)
	require.NoError(t, err)

	assert.Equal(t, "200000000000000001", id)
	assert.Equal(t, []string{"200000000000000009", "200000000000000001"}, checked)
	assert.Contains(t, out.String(), "Invalid channel ID format")
	assert.Contains(t, out.String(), "Channel not found or no access")
	assert.Equal(t, 3, strings.Count(out.String(), "Enter channel ID: "))
}

func TestTerminal_AskChannel_EOF(t *testing.T) {
	term := NewTerminal(strings.NewReader("nope\n"), io.Discard)

	_, err := term.AskChannel(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestTerminal_ContinueScanning(t *testing.T) {
	out := &bytes.Buffer{}
	term := NewTerminal(strings.NewReader("y\nn\n"), out)
	var decider purge.Decider = term

	ok, err := decider.ContinueScanning(context.Background(), purge.ZeroMatchPrompt{ConsecutiveBatches: 1, First: true})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = decider.ContinueScanning(context.Background(), purge.ZeroMatchPrompt{ConsecutiveBatches: 10})
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Contains(t, out.String(), "in the last 1 batch(es)")
	assert.Contains(t, out.String(), "in the last 10 batch(es)")
}

func TestForMode(t *testing.T) {
	ctx := context.Background()
	term := NewTerminal(strings.NewReader(""), io.Discard)

	d, err := ForMode(ModeContinue, nil)
	require.NoError(t, err)
	ok, err := d.ContinueScanning(ctx, purge.ZeroMatchPrompt{})
	require.NoError(t, err)
	assert.True(t, ok)

	d, err = ForMode(ModeStop, nil)
	require.NoError(t, err)
	ok, err = d.ContinueScanning(ctx, purge.ZeroMatchPrompt{})
	require.NoError(t, err)
	assert.False(t, ok)

	d, err = ForMode(ModeAsk, term)
	require.NoError(t, err)
	assert.Same(t, term, d)

	_, err = ForMode(ModeAsk, nil)
	assert.Error(t, err)

	_, err = ForMode("sometimes", term)
	assert.Error(t, err)
}
