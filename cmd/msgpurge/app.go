package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/i358/discord-message-deleter/internal/config"
	"github.com/i358/discord-message-deleter/internal/constants"
	"github.com/i358/discord-message-deleter/internal/discord"
	"github.com/i358/discord-message-deleter/internal/logger"
	"github.com/i358/discord-message-deleter/internal/metrics"
	"github.com/i358/discord-message-deleter/internal/notify"
	"github.com/i358/discord-message-deleter/internal/prompt"
	"github.com/i358/discord-message-deleter/internal/purge"
	"github.com/i358/discord-message-deleter/internal/report"
	"github.com/i358/discord-message-deleter/internal/retry"
)

const notifyTimeout = 30 * time.Second

// loadEnvFile loads --env-file, or ./.env when it exists.
func loadEnvFile() error {
	if envPath != "" {
		return config.LoadEnv(envPath)
	}
	return config.LoadEnvOptional(constants.DefaultEnvPath)
}

// loadConfig loads --config, or ./config.toml when it exists.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	return config.LoadOptional(constants.DefaultConfigPath)
}

// app holds the components shared by the run and schedule commands.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	client   *discord.Client
	metrics  *metrics.PrometheusMetrics
	notifier notify.Notifier
	out      io.Writer
}

// newApp builds the shared components. An enabled Telegram notifier is
// checked with getMe so a bad bot token fails before any deletion.
func newApp(ctx context.Context, cfg *config.Config, out io.Writer) (*app, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.SetDefault(log)

	a := &app{
		cfg: cfg,
		log: log,
		out: out,
	}

	var opts []discord.Option
	if cfg.Metrics.Enabled {
		a.metrics = metrics.New()
		opts = append(opts, discord.WithObserver(a.metrics))
	}

	a.client = discord.NewClient(discord.Config{
		Token:             cfg.Discord.Token,
		BaseURL:           cfg.Discord.BaseURL,
		Timeout:           cfg.Discord.Timeout(),
		RequestsPerSecond: cfg.Discord.RequestRate(),
		Burst:             cfg.Discord.Burst,
	}, log, opts...)

	if cfg.Notify.Telegram.Enabled {
		tg, err := notify.NewTelegram(cfg.Notify.Telegram.Token, cfg.Notify.Telegram.ChatID, cfg.Notify.Telegram.APIServer, log)
		if err != nil {
			_ = log.Close()
			return nil, err
		}
		if err := tg.Check(ctx); err != nil {
			_ = log.Close()
			return nil, err
		}
		a.notifier = tg
	}

	return a, nil
}

func (a *app) close() {
	_ = a.log.Close()
}

// startMetrics serves /metrics when enabled and returns the shutdown func.
func (a *app) startMetrics() (func(), error) {
	if a.metrics == nil {
		return func() {}, nil
	}

	srv, err := metrics.Serve(a.cfg.Metrics.Addr, a.cfg.Metrics.Path, a.metrics, a.log)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(a.out, "📈 Metrics: http://%s%s\n", srv.Addr(), a.cfg.Metrics.Path)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			a.log.Warn("metrics server shutdown failed", logger.Field{Key: "error", Value: err})
		}
	}, nil
}

// decider returns the zero-match decision for the configured policy. Without
// a terminal the "ask" policy falls back to stopping.
func (a *app) decider(term *prompt.Terminal, interactive bool) (purge.Decider, error) {
	mode := a.cfg.Purge.OnZeroMatch
	if mode == prompt.ModeAsk && !interactive {
		a.log.Warn("no terminal for the zero-match prompt, stopping at the first empty-handed batch")
		mode = prompt.ModeStop
	}
	return prompt.ForMode(mode, term)
}

func (a *app) engineOptions() purge.Options {
	return purge.Options{
		ChannelID:   a.cfg.Purge.ChannelID,
		AuthorID:    a.cfg.Purge.AuthorID,
		DeleteDelay: a.cfg.Purge.DeleteDelay(),
		Retry: retry.Config{
			InitialBackoff: a.cfg.Retry.InitialBackoff(),
			MaxBackoff:     a.cfg.Retry.MaxBackoff(),
			MaxRetries:     a.cfg.Retry.MaxRetries,
		},
		EmptyPageLimit:       a.cfg.Purge.EmptyPageLimit,
		EmptyPageDelay:       a.cfg.Purge.EmptyPageDelay(),
		ZeroMatchPromptEvery: a.cfg.Purge.ZeroMatchPromptEvery,
	}
}

// purgeOnce runs the engine and publishes the summary: metrics, report file
// and notification. Publishing failures are logged, never returned.
func (a *app) purgeOnce(ctx context.Context, decider purge.Decider, observer purge.Observer) (purge.Summary, error) {
	setters := []purge.EngineOption{
		purge.WithDecider(decider),
		purge.WithObserver(observer),
	}
	if a.metrics != nil {
		setters = append(setters, purge.WithRecorder(a.metrics))
	}

	engine, err := purge.NewEngine(a.client, a.engineOptions(), a.log, setters...)
	if err != nil {
		return purge.Summary{}, err
	}

	summary, runErr := engine.Run(ctx)

	if a.metrics != nil {
		a.metrics.ObserveRun(summary)
	}

	if path := a.cfg.Report.Path; path != "" {
		if err := report.WriteFile(path, summary, time.Now()); err != nil {
			a.log.Error("failed to write report", err, logger.Field{Key: "path", Value: path})
		} else {
			a.log.Info("report written", logger.Field{Key: "path", Value: path})
		}
	}

	if a.notifier != nil {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		if err := a.notifier.Notify(nctx, summary); err != nil {
			a.log.Error("failed to send notification", err)
		}
		cancel()
	}

	return summary, runErr
}

// printConfigSummary prints the effective settings; the token is masked.
func printConfigSummary(out io.Writer, cfg *config.Config) {
	channel := cfg.Purge.ChannelID
	if channel == "" {
		channel = "(ask)"
	}

	fmt.Fprintln(out, "\n📋 Configuration:")
	fmt.Fprintf(out, "  Token:         %s\n", config.MaskToken(cfg.Discord.Token))
	if owner, ok := config.TokenUserID(cfg.Discord.Token); ok {
		fmt.Fprintf(out, "  Token owner:   %s\n", owner)
	}
	fmt.Fprintf(out, "  Author ID:     %s\n", cfg.Purge.AuthorID)
	fmt.Fprintf(out, "  Channel ID:    %s\n", channel)
	fmt.Fprintf(out, "  Delete delay:  %s\n", cfg.Purge.DeleteDelay())
	fmt.Fprintf(out, "  On no matches: %s\n", cfg.Purge.OnZeroMatch)
	if cfg.Report.Path != "" {
		fmt.Fprintf(out, "  Report:        %s\n", cfg.Report.Path)
	}
}

// isTerminal reports whether in is an interactive terminal. Readers that are
// not files (tests, pipes set up by callers) count as interactive.
func isTerminal(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return true
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
