package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/i358/discord-message-deleter/internal/config"
	"github.com/i358/discord-message-deleter/internal/constants"
	"github.com/i358/discord-message-deleter/internal/discord"
	"github.com/i358/discord-message-deleter/internal/prompt"
	"github.com/i358/discord-message-deleter/internal/report"
)

var (
	runChannelID   string
	runAuthorID    string
	runDelayMs     int
	runOnZeroMatch string
	runLogLevel    string
	runReportPath  string
	runYes         bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Delete the author's messages in a channel",
	Long: `Validate the token and the channel, show the effective settings, ask
for confirmation and delete every message of the author in the channel.

Credentials come from the config file, the .env file or the environment
(DISCORD_TOKEN, AUTHOR_ID, CHANNEL_ID). Flags override all of them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runPurge(ctx, cmd, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	addTargetFlags(runCmd)
	runCmd.Flags().BoolVarP(&runYes, "yes", "y", false, "Skip the confirmation prompt")
}

// addTargetFlags registers the flags shared by run and schedule.
func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&runChannelID, "channel", "", "Channel ID (overrides purge.channel_id)")
	cmd.Flags().StringVar(&runAuthorID, "author", "", "Author ID (overrides purge.author_id)")
	cmd.Flags().IntVar(&runDelayMs, "delay", 0, "Delay between deletions in ms, 50-5000 (overrides purge.delete_delay_ms)")
	cmd.Flags().StringVar(&runOnZeroMatch, "on-zero-match", "", "ask, continue or stop when pages hold no author messages")
	cmd.Flags().StringVar(&runLogLevel, "log-level", "", "Log level (overrides logging.level)")
	cmd.Flags().StringVar(&runReportPath, "report", "", "Write a YAML run report to this path")
}

// applyRunFlags copies explicitly set flags over the configuration.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("channel") {
		cfg.Purge.ChannelID = runChannelID
	}
	if flags.Changed("author") {
		cfg.Purge.AuthorID = runAuthorID
	}
	if flags.Changed("delay") {
		cfg.Purge.DeleteDelayMs = runDelayMs
	}
	if flags.Changed("on-zero-match") {
		cfg.Purge.OnZeroMatch = runOnZeroMatch
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = runLogLevel
	}
	if flags.Changed("report") {
		cfg.Report.Path = runReportPath
	}
}

func runPurge(ctx context.Context, cmd *cobra.Command, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, constants.MsgBanner)

	if err := loadEnvFile(); err != nil {
		fmt.Fprintf(out, constants.MsgConfigLoadError, err)
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(out, constants.MsgConfigLoadError, err)
		return err
	}
	applyRunFlags(cmd, cfg)

	if errs := cfg.Validate(); len(errs) > 0 {
		fmt.Fprint(out, constants.MsgConfigValidationError)
		for _, e := range errs {
			fmt.Fprintf(out, constants.MsgConfigValidatePrefix, e)
		}
		return fmt.Errorf("%d configuration errors", len(errs))
	}

	a, err := newApp(ctx, cfg, out)
	if err != nil {
		fmt.Fprintf(out, "❌ %v\n", err)
		return err
	}
	defer a.close()

	interactive := isTerminal(in)
	term := prompt.NewTerminal(in, out)

	user, err := a.client.ValidateToken(ctx)
	if err != nil {
		fmt.Fprintf(out, "❌ %v\n", err)
		return err
	}
	fmt.Fprintf(out, "✅ Token valid, logged in as %s\n", user.Username)

	channel, err := a.resolveChannel(ctx, term, interactive)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✅ Channel: #%s (%s)\n", channel.Name, discord.ChannelTypeName(channel.Type))

	printConfigSummary(out, cfg)

	if !runYes {
		if !interactive {
			return errors.New("confirmation requires a terminal, pass --yes to skip it")
		}
		ok, err := term.Confirm(ctx, constants.MsgConfirm)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, constants.MsgAborted)
			return nil
		}
	}

	decider, err := a.decider(term, interactive)
	if err != nil {
		return err
	}

	stopMetrics, err := a.startMetrics()
	if err != nil {
		return err
	}
	defer stopMetrics()

	fmt.Fprintln(out, constants.MsgStarting)
	printer := report.NewPrinter(out, cfg.Report.Language)
	_, err = a.purgeOnce(ctx, decider, printer)
	return err
}

// resolveChannel validates the configured channel, or asks for one when none
// is configured and a terminal is available.
func (a *app) resolveChannel(ctx context.Context, term *prompt.Terminal, interactive bool) (*discord.Channel, error) {
	if id := a.cfg.Purge.ChannelID; id != "" {
		channel, err := a.client.ValidateChannel(ctx, id)
		if err != nil {
			fmt.Fprintln(a.out, "❌ "+constants.MsgChannelUnavailable)
			return nil, err
		}
		return channel, nil
	}

	if !interactive {
		return nil, fmt.Errorf("channel ID is required (set purge.channel_id, %s or --channel)", config.EnvChannelID)
	}

	var channel *discord.Channel
	id, err := term.AskChannel(ctx, func(ctx context.Context, id string) error {
		c, err := a.client.ValidateChannel(ctx, id)
		if err != nil {
			return err
		}
		channel = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.cfg.Purge.ChannelID = id
	return channel, nil
}
