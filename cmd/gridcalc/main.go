// Command gridcalc evaluates grid documents from the command line.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app carries the state shared by every subcommand
type app struct {
	out    io.Writer
	logger *zap.Logger
	cfg    Config

	configPath string
	verbose    bool
	style      string
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gridcalc",
		Short: "Evaluate spreadsheet grid files",
		Long: `gridcalc loads rectangular grids of numbers, text and formulas from YAML,
TOML or CSV files and prints their evaluated values.

Formulas start with "=" and support + - * /, parentheses, cell references
such as B3, and a whole-formula SUM(A1:B4).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", defaultConfigPath, "path to the config file")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&a.style, "style", "", "output style: table or plain (overrides config)")

	rootCmd.AddCommand(
		newEvalCmd(a),
		newGetCmd(a),
		newSetCmd(a),
		newWatchCmd(a),
	)
	return rootCmd
}

// setup resolves configuration, applies flag overrides and builds the logger
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := loadConfig(a.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	if a.style != "" {
		cfg.Output.Style = a.style
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	if a.out == nil {
		a.out = cmd.OutOrStdout()
	}
	if a.logger == nil {
		a.logger, err = newLogger(cfg.Logging.Level)
		if err != nil {
			return err
		}
	}
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func main() {
	if err := newRootCmd(&app{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
