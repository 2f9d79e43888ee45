package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/riskibarqy/puppy-bowl/internal/app"
	"github.com/riskibarqy/puppy-bowl/internal/config"
	"github.com/riskibarqy/puppy-bowl/internal/observability"
	"github.com/riskibarqy/puppy-bowl/internal/platform/logging"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the roster web client",
		Example: `  # Serve on the default address (:8080)
  puppybowl serve

  # Serve another cohort on a custom port
  PUPPYBOWL_COHORT=2601-Demo puppybowl serve --addr :9090`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTPAddr = addr
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides APP_HTTP_ADDR)")
	return cmd
}

func runServe(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}

	logger := logging.NewJSON(cfg.LogLevel).With(
		"service", cfg.ServiceName,
		"version", cfg.ServiceVersion,
		"env", cfg.AppEnv,
	)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return fmt.Errorf("init uptrace: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("uptrace shutdown failed", "error", err)
		}
	}()

	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		return fmt.Errorf("init pyroscope: %w", err)
	}
	defer func() {
		if err := stopProfiler(); err != nil {
			logger.Warn("pyroscope stop failed", "error", err)
		}
	}()

	pprofServer, err := observability.StartPprofServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("start pprof: %w", err)
	}
	defer func() {
		if err := observability.StopPprofServer(pprofServer, logger, 5*time.Second); err != nil {
			logger.Warn("pprof shutdown failed", "error", err)
		}
	}()

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("puppy bowl client configured",
		"remote_base_url", cfg.PuppyBowlBaseURL,
		"cohort", cfg.PuppyBowlCohort,
		"session_ttl", cfg.SessionTTL.String(),
	)
	return application.Run(ctx)
}
