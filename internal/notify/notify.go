// Package notify sends the final run report to an external chat.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"

	"github.com/i358/discord-message-deleter/internal/logger"
	"github.com/i358/discord-message-deleter/internal/purge"
	"github.com/i358/discord-message-deleter/internal/report"
)

// Notifier delivers a run summary.
type Notifier interface {
	Notify(ctx context.Context, s purge.Summary) error
}

// BotInterface defines the Telegram bot API methods used by the notifier.
type BotInterface interface {
	// GetMe returns basic information about the bot.
	GetMe(ctx context.Context) (*telego.User, error)

	// SendMessage sends a text message to a chat.
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

// Telegram sends summaries to one chat.
type Telegram struct {
	bot     BotInterface
	chatID  int64
	printer *report.Printer
	logger  *logger.Logger
}

// NewTelegram creates a notifier backed by a real bot. An empty apiServer
// uses the public Bot API.
func NewTelegram(token string, chatID int64, apiServer string, log *logger.Logger) (*Telegram, error) {
	opts := []telego.BotOption{telego.WithDiscardLogger()}
	if apiServer != "" {
		opts = append(opts, telego.WithAPIServer(apiServer))
	}
	bot, err := telego.NewBot(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return NewTelegramWithBot(bot, chatID, log), nil
}

// NewTelegramWithBot creates a notifier for an existing bot (tests, shared bots).
func NewTelegramWithBot(bot BotInterface, chatID int64, log *logger.Logger) *Telegram {
	if log == nil {
		log = logger.Nop()
	}
	return &Telegram{
		bot:     bot,
		chatID:  chatID,
		printer: report.NewPrinter(nil, "en"),
		logger:  log,
	}
}

// Check verifies the bot token with getMe.
func (t *Telegram) Check(ctx context.Context) error {
	me, err := t.bot.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("telegram getMe failed: %w", err)
	}
	t.logger.DebugCtx(ctx, "telegram bot ready", logger.Field{Key: "username", Value: me.Username})
	return nil
}

// Notify sends the formatted summary as plain text.
func (t *Telegram) Notify(ctx context.Context, s purge.Summary) error {
	_, err := t.bot.SendMessage(ctx, &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: t.chatID},
		Text:   t.Text(s),
	})
	if err != nil {
		return fmt.Errorf("failed to send telegram notification: %w", err)
	}

	t.logger.InfoCtx(ctx, "telegram notification sent",
		logger.Field{Key: "chat_id", Value: t.chatID},
		logger.Field{Key: "run_id", Value: s.RunID})
	return nil
}

// Text renders the notification body.
func (t *Telegram) Text(s purge.Summary) string {
	var b strings.Builder
	b.WriteString("🧹 msgpurge run ")
	b.WriteString(s.RunID)
	b.WriteString("\nChannel: ")
	b.WriteString(s.ChannelID)
	b.WriteString("\nAuthor: ")
	b.WriteString(s.AuthorID)
	b.WriteString(t.printer.FormatSummary(s))
	return b.String()
}
