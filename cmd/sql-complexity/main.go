package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"sql-complexity/internal/config"
	"sql-complexity/internal/logger"
	"sql-complexity/internal/rules"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "sql-complexity",
	Short: "Score the structural complexity of SQL statements",
	Long: `sql-complexity extracts SQL statements from batch files, .sql scripts
and application source, scores each one against a weighted rule catalogue
for its source dialect, and reports composite 0-10 scores and grades to
help plan migrations between database engines.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default: ./"+config.DefaultFile+")")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose logging (same as --log-level=debug)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	rootCmd.AddCommand(scoreCmd, rulesCmd, historyCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error:"), err)
		os.Exit(1)
	}
}

// setup loads and validates the configuration and builds the logger.
func setup(flags *pflag.FlagSet) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile, flags)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if cfg.NoColor {
		color.NoColor = true
	}

	level, _ := logger.ParseLevel(cfg.LogLevel)
	log := logger.New(logger.Options{Level: level, NoColor: color.NoColor})
	if cfg.File != "" {
		log.Debug("loaded config", "file", cfg.File)
	}
	return cfg, log, nil
}

// loadRules returns the configured catalogue, or the embedded default.
func loadRules(cfg *config.Config, log *slog.Logger) (*rules.RuleTable, error) {
	if cfg.Rules == "" {
		return rules.Default()
	}
	rt, err := rules.LoadFile(cfg.Rules)
	if err != nil {
		return nil, err
	}
	log.Info("loaded rule catalogue", "file", cfg.Rules, "version", rt.Version, "rules", rt.Size())
	return rt, nil
}
