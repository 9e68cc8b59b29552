package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/i358/discord-message-deleter/internal/config"
	"github.com/i358/discord-message-deleter/internal/constants"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Validate msgpurge configuration.`,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate [config-file]",
	Short: "Validate configuration file",
	Long: `Validate the configuration file and check for errors.
The .env file and DISCORD_TOKEN, AUTHOR_ID, CHANNEL_ID are applied first,
the same way the run command does.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if len(args) > 0 {
			path = args[0]
		}
		if path == "" {
			path = constants.DefaultConfigPath
		}

		out := cmd.OutOrStdout()
		if err := loadEnvFile(); err != nil {
			fmt.Fprintf(out, constants.MsgConfigLoadError, err)
			return err
		}

		cfg, err := config.Load(path)
		if err != nil {
			fmt.Fprintf(out, constants.MsgConfigLoadError, err)
			return err
		}

		if errs := cfg.Validate(); len(errs) > 0 {
			fmt.Fprint(out, constants.MsgConfigValidationError)
			for _, e := range errs {
				fmt.Fprintf(out, constants.MsgConfigValidatePrefix, e)
			}
			return fmt.Errorf("%d configuration errors", len(errs))
		}

		fmt.Fprintln(out, constants.MsgConfigValid)
		printConfigSummary(out, cfg)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)
}
