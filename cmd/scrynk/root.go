package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/scrynk/scrynk/config"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for scrynk.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrynk",
		Short: "Front end for the scrynk email-extraction service",
		Long: `scrynk collects credentials and a post URL, asks the extraction service
for the emails found in the post's comments, and shows or downloads them.

Configuration is read from defaults, then a YAML file (--config, or
.scrynk.yaml in the working or home directory), then SCRYNK_* environment
variables, then command-line flags.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to a YAML configuration file")
	cmd.PersistentFlags().String("api-base-url", "", "Base URL of the extraction service (overrides config)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewExtractCmd())
	cmd.AddCommand(NewDownloadCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves the configuration for a command and initialises
// logging from it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}

	if base, _ := cmd.Flags().GetString("api-base-url"); base != "" {
		cfg.API.BaseURL = base
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	initLogger(cmd.ErrOrStderr(), cfg.Log)
	return cfg, nil
}

// initLogger configures slog based on the LogConfig. Logs go to w so that
// command output on stdout stays clean.
func initLogger(w io.Writer, cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}
