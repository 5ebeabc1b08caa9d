package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/iliamunaev/order-chain/internal/config"
	"github.com/iliamunaev/order-chain/internal/logging"
)

type rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	f := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Customers, orders and tracking services with injectable faults",
		Long: `chain runs a three hop service chain: customers calls orders,
which fans out to tracking for every order of the customer.

Any request may carry a directive that asks one hop to delay and/or fail:
  ?customizeBehaviorTargetApp=orders&emulateDelay=yes&delayInMs=300
  ?customizeBehaviorTargetApp=tracking&emulateFailure=yes&httpFailureCode=503`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "YAML configuration file")
	pf.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides the file)")
	pf.StringVar(&f.logFormat, "log-format", "", "log format: text or json (overrides the file)")

	cmd.AddCommand(newServeCmd(f), newStackCmd(f))
	return cmd
}

// load reads the configuration and applies the flag overrides.
func (f *rootFlags) load() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, nil, err
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.logFormat != "" {
		cfg.Log.Format = f.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}
	return cfg, logging.New(level, cfg.Log.Format), nil
}
