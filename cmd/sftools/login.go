package main

import (
	"os"

	"github.com/natserract/sftools/pkg/oauth"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Perform the OAuth device flow and save the tokens to the config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer logger.Sync()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		o := oauth.NewWithLogger(cfg, logger)
		if err := o.RequestAccessToken(cmd.Context(), os.Stdout); err != nil {
			return err
		}

		return cfg.Save()
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
