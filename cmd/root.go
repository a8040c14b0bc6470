package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/talentline/apiserver/config"
	"github.com/talentline/apiserver/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "talentline",
	Short: "Talentline job board backend",
	Long: `Talentline job board backend. It serves the HTTP API, runs database
migrations and consumes application events.`,
	SilenceUsage: true,
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// setup loads configuration and installs the process-wide logger.
func setup() (config.Config, *slog.Logger) {
	cfg := config.LoadConfig()
	logger := logging.New(cfg.IsDevelopment()).With("env", cfg.Env)
	slog.SetDefault(logger)
	return cfg, logger
}
