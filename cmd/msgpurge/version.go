package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/i358/discord-message-deleter/internal/version"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Long:  `Display the version, build time, git commit and Go version of msgpurge.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "msgpurge - Discord message deleter")
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}
