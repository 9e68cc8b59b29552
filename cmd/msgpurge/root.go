package main

import (
	"github.com/spf13/cobra"
)

var (
	configPath string
	envPath    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "msgpurge",
	Short: "msgpurge - delete every message of one author in a Discord channel",
	Long: `msgpurge pages backward through a Discord channel's history and deletes
every message written by the configured author, one request at a time,
honouring Discord rate limits.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default ./config.toml if present)")
	rootCmd.PersistentFlags().StringVar(&envPath, "env-file", "", "Path to .env file (default ./.env if present)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(reportCmd)
}
