package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/i358/discord-message-deleter/internal/constants"
	"github.com/i358/discord-message-deleter/internal/logger"
	"github.com/i358/discord-message-deleter/internal/prompt"
	"github.com/i358/discord-message-deleter/internal/report"
	"github.com/i358/discord-message-deleter/internal/schedule"
)

var (
	scheduleSpec       string
	scheduleRunOnStart bool
)

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run purges periodically on a cron schedule",
	Long: `Run the purge on a cron schedule until interrupted. Each run starts from
the most recent message, so new messages of the author are picked up.

Runs are unattended: the zero-match policy "ask" becomes "stop".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runSchedule(ctx, cmd, cmd.OutOrStdout())
	},
}

func init() {
	addTargetFlags(scheduleCmd)
	scheduleCmd.Flags().StringVar(&scheduleSpec, "spec", "", "Cron expression (overrides schedule.spec)")
	scheduleCmd.Flags().BoolVar(&scheduleRunOnStart, "run-on-start", false, "Run once immediately before waiting for the schedule")
}

func runSchedule(ctx context.Context, cmd *cobra.Command, out io.Writer) error {
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

	cfg.Schedule.Enabled = true
	if cmd.Flags().Changed("spec") {
		cfg.Schedule.Spec = scheduleSpec
	}
	if cmd.Flags().Changed("run-on-start") {
		cfg.Schedule.RunOnStart = scheduleRunOnStart
	}
	if cfg.Purge.OnZeroMatch == prompt.ModeAsk {
		cfg.Purge.OnZeroMatch = prompt.ModeStop
	}

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

	if _, err := a.client.ValidateToken(ctx); err != nil {
		fmt.Fprintf(out, "❌ %v\n", err)
		return err
	}
	if _, err := a.client.ValidateChannel(ctx, cfg.Purge.ChannelID); err != nil {
		fmt.Fprintln(out, "❌ "+constants.MsgChannelUnavailable)
		return err
	}

	decider, err := prompt.ForMode(cfg.Purge.OnZeroMatch, nil)
	if err != nil {
		return err
	}

	stopMetrics, err := a.startMetrics()
	if err != nil {
		return err
	}
	defer stopMetrics()

	printer := report.NewPrinter(out, cfg.Report.Language)
	sched, err := schedule.New(cfg.Schedule.Spec, func(ctx context.Context) error {
		_, err := a.purgeOnce(ctx, decider, printer)
		return err
	}, a.log)
	if err != nil {
		return err
	}

	printConfigSummary(out, cfg)

	if cfg.Schedule.RunOnStart {
		if err := sched.RunNow(ctx); err != nil {
			a.log.Error("initial purge failed", err)
		}
	}

	if err := sched.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "⏰ Schedule %q, next run at %s\n", cfg.Schedule.Spec, sched.Next(time.Now()).Format(time.RFC3339))

	<-ctx.Done()
	a.log.Info("shutdown signal received", logger.Field{Key: "runs", Value: sched.Runs()})
	return sched.Stop()
}
