// Package main is the entry point for the timecalc command.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/timecalc/pkg/config"
	"github.com/lemonberrylabs/timecalc/pkg/runtime"
	"github.com/lemonberrylabs/timecalc/pkg/store"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// exitError carries a process exit code without an additional message.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "timecalc",
		Short:         "Calculator for hh:mm time quantities",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.Version = version + " (commit=" + commit + ", built=" + date + ")"
	rootCmd.SetVersionTemplate("timecalc version {{.Version}}\n")

	rootCmd.PersistentFlags().String("config", "", "TOML config file (env TIMECALC_CONFIG)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (env TIMECALC_LOG_LEVEL)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json (env TIMECALC_LOG_FORMAT)")

	rootCmd.AddCommand(
		newEvalCmd(),
		newAnnotateCmd(),
		newCheckCmd(),
		newReplCmd(),
		newServeCmd(),
	)
	return rootCmd
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig loads the configuration named by --config (or TIMECALC_CONFIG)
// and applies the logging flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := envOrDefault(config.EnvConfig, "")
	if v, _ := cmd.Flags().GetString("config"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		cfg.Log.Format = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger from the log configuration.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// setup loads the configuration, installs the logger and builds the engine
// shared by all subcommands.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, *runtime.Engine, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := newLogger(cfg.Log, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	engine := runtime.NewEngine(runtime.Options{
		Store:     store.New(cfg.History.Capacity),
		CacheSize: cfg.Cache.Size,
		Logger:    logger,
	})
	return cfg, logger, engine, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
