// Command prodex-reindex (re)embeds the product catalog offline, against
// the same store and provider configuration as the API server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/prodex/internal/app"
	"github.com/kailas-cloud/prodex/internal/config"
	logpkg "github.com/kailas-cloud/prodex/internal/logger"
	"github.com/kailas-cloud/prodex/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		env      string
		force    bool
		delay    time.Duration
		jsonOut  bool
		logLevel string
	)

	rootCmd := &cobra.Command{
		Use:          "prodex-reindex",
		Short:        "Maintain product embeddings offline",
		Version:      version.String(),
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&env, "env", config.GetEnv(), "Config environment (local, dev, prod)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Print the result as JSON")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Embed products whose embedding is missing or stale",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), env, logLevel, func(ctx context.Context, a *app.App) error {
				if cmd.Flags().Changed("delay") {
					a.Reindex.WithItemDelay(delay)
				}
				report, err := a.Reindex.Run(ctx, force)
				if perr := printReport(cmd.OutOrStdout(), &report, jsonOut); perr != nil {
					return perr
				}
				return err
			})
		},
	}
	runCmd.Flags().BoolVar(&force, "force", false, "Re-embed every product")
	runCmd.Flags().DurationVar(&delay, "delay", 0, "Pause between items (overrides config)")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show embedding coverage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), env, logLevel, func(ctx context.Context, a *app.App) error {
				stats, err := a.Reindex.Stats(ctx)
				if err != nil {
					return err
				}
				return printStats(cmd.OutOrStdout(), &stats, jsonOut)
			})
		},
	}

	rootCmd.AddCommand(runCmd, statsCmd)
	return rootCmd
}

// withApp loads config, builds the services and runs fn on a context
// cancelled by SIGINT/SIGTERM.
func withApp(parent context.Context, env, logLevel string, fn func(ctx context.Context, a *app.App) error) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if logLevel == "" {
		logLevel = cfg.Logging.Level
	}
	logger, err := logpkg.NewLogger(env, logLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	a, err := app.New(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.Embedder.Available() {
		logger.Warn("No embedding provider configured, nothing can be embedded")
	}
	if err := fn(ctx, a); err != nil {
		logger.Error("Command failed", zap.Error(err))
		return err
	}
	return nil
}
