package main

import (
	"github.com/natserract/sftools/pkg/config"
	"github.com/natserract/sftools/pkg/oauth"
	"github.com/natserract/sftools/pkg/salesforce"
	"github.com/natserract/sftools/pkg/salesforce/rest"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagSandbox bool
	flagConfig  string
	flagVerbose bool
	flagDryRun  bool
)

var rootCmd = &cobra.Command{
	Use:           "sftools",
	Short:         "Convenience CLI for Salesforce SOQL queries and SOSL searches",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&flagSandbox, "sandbox", "S", false, "Use the sandbox config file instead of production")
	pf.StringVar(&flagConfig, "config", "", "Alternate config file to use")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	pf.BoolVar(&flagDryRun, "dry-run", false, "Do not perform destructive operations")
}

func newLogger() (*zap.Logger, error) {
	if flagVerbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func loadConfig() (*config.Config, error) {
	if flagConfig != "" {
		return config.Load(flagConfig)
	}
	if flagSandbox {
		return config.Sandbox()
	}
	return config.Production()
}

// newClient wires the REST transport and OAuth refresher into a client.
func newClient(logger *zap.Logger) (*salesforce.SF, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	transport := rest.New(cfg, logger)
	refresher := oauth.NewWithLogger(cfg, logger)
	sf := salesforce.NewWithLogger(cfg, transport, refresher, logger)
	sf.DryRun = flagDryRun
	return sf, nil
}
