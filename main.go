package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Someblueman/codeanalysis/internal/analysis"
	"github.com/Someblueman/codeanalysis/internal/config"
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cli holds the persistent flags shared by every command.
type cli struct {
	configPath string
	logLevel   string
	timeout    time.Duration
	workers    int
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "codeanalysis",
		Short:         "Resilient static analysis for Python source",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", 0, "Per-call timeout for served and exec requests")
	root.PersistentFlags().IntVar(&c.workers, "workers", 0, "Parallel workers for directory analysis")

	root.AddCommand(
		newActionCmd(c, analysis.ActionAnalyze, "Extract structure, complexity and patterns"),
		newActionCmd(c, analysis.ActionComplexity, "Report cyclomatic complexity per function"),
		newActionCmd(c, analysis.ActionSignatures, "List function signatures"),
		newSpecCmd(c),
		newExecCmd(c),
		newServeCmd(c),
	)
	return root
}

// load resolves the config file and applies flag overrides.
func (c *cli) load(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	cfg := config.Default()
	if c.configPath != "" {
		loaded, err := config.Load(c.configPath)
		if err != nil {
			return config.Config{}, nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = c.logLevel
	}
	if flags.Changed("timeout") {
		cfg.Server.Timeout = c.timeout
	}
	if flags.Changed("workers") {
		cfg.Batch.Workers = c.workers
	}
	if err := cfg.Normalize(); err != nil {
		return config.Config{}, nil, err
	}

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := newLogger(cmd.ErrOrStderr(), level)
	return cfg, logger, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newEngine(cfg config.Config, logger *slog.Logger) *analysis.Engine {
	return analysis.NewEngine(cfg.AnalysisOptions(logger))
}
