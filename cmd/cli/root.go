package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dvloznov/finance-clusters/internal/config"
	"github.com/dvloznov/finance-clusters/internal/logger"
)

// rootOptions holds global CLI flags.
type rootOptions struct {
	ConfigPath string
	LogLevel   string
	LogJSON    bool
}

// app carries what PersistentPreRunE initialized to the subcommands.
type app struct {
	opts rootOptions
	cfg  *config.Config
	log  zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "spendmap",
		Short: "Cluster accounts by spending profile with a self-organizing map",
		Long: "spendmap aggregates categorized transactions per account, trains a\n" +
			"self-organizing map on the normalized spending profiles and groups\n" +
			"accounts that land on the same neuron.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&a.opts.ConfigPath, "config", "c", "", "config file path (default: SPENDMAP_* environment only)")
	pf.StringVar(&a.opts.LogLevel, "log-level", "", "log level (debug, info, warn, error); overrides log.level")
	pf.BoolVar(&a.opts.LogJSON, "log-json", false, "log as JSON lines")

	cmd.AddCommand(
		newClusterCmd(a),
		newMatrixCmd(a),
		newGridSizeCmd(),
	)

	return cmd
}

// setup loads the configuration and builds the logger. Logs go to the
// command's stderr so reports on stdout stay machine-readable.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Read(a.opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	if a.opts.LogLevel != "" {
		cfg.Log.Level = a.opts.LogLevel
	}
	if a.opts.LogJSON {
		cfg.Log.JSON = true
	}

	log, err := logger.NewWithOptions(logger.Options{
		Level:  cfg.Log.Level,
		JSON:   cfg.Log.JSON,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	a.cfg = cfg
	a.log = log
	cmd.SetContext(logger.WithContext(cmd.Context(), log))
	return nil
}
