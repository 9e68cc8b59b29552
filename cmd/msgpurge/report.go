package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/i358/discord-message-deleter/internal/report"
)

var reportLanguage string

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Inspect saved run reports",
}

// reportShowCmd prints a YAML report written by a previous run
var reportShowCmd = &cobra.Command{
	Use:   "show <report-file>",
	Short: "Print the summary of a saved run report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		f, err := report.ReadFile(args[0])
		if err != nil {
			fmt.Fprintf(out, "❌ %v\n", err)
			return err
		}

		fmt.Fprintf(out, "Run:       %s\n", f.Run.RunID)
		fmt.Fprintf(out, "Channel:   %s\n", f.Run.ChannelID)
		fmt.Fprintf(out, "Author:    %s\n", f.Run.AuthorID)
		fmt.Fprintf(out, "Generated: %s\n", f.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
		fmt.Fprintln(out, report.NewPrinter(nil, reportLanguage).FormatSummary(f.Run))
		return nil
	},
}

func init() {
	reportShowCmd.Flags().StringVar(&reportLanguage, "lang", "en", "Number formatting language (BCP 47)")
	reportCmd.AddCommand(reportShowCmd)
}
