package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/gkisanet/2026.gemini-file-search/internal/config"
	"github.com/gkisanet/2026.gemini-file-search/internal/core/domain"
	"github.com/gkisanet/2026.gemini-file-search/internal/infrastructure/queue/nats"
	"github.com/gkisanet/2026.gemini-file-search/internal/observability/logging"
	"github.com/gkisanet/2026.gemini-file-search/internal/observability/metrics"
)

const service = "activity"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var envFile string
	cmd := &cobra.Command{
		Use:           "activity",
		Short:         "Tail console admin activity from NATS",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(envFile); err != nil {
				return err
			}
			cfg := config.Load()
			logger := logging.NewJSONLogger(service, cfg.LogLevel)
			slog.SetDefault(logger)
			if err := run(cmd.Context(), cfg, logger); err != nil {
				logger.Error("activity_failed", "error", err)
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	return cmd
}

func run(parent context.Context, cfg config.Config, logger *slog.Logger) error {
	if cfg.NATSURL == "" {
		return fmt.Errorf("NATS_URL is not set")
	}
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	stream, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		return err
	}
	defer stream.Close()

	m := metrics.NewActivityMetrics(service)
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/metrics", m.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + cfg.ActivityMetricsPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("activity_metrics_listening", "port", cfg.ActivityMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("activity_metrics_server_error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("activity_subscribed", "subject", cfg.NATSSubject)
	return stream.Subscribe(ctx, func(_ context.Context, event domain.ActivityEvent) error {
		m.ObserveEvent(service, string(event.Kind), nil)
		m.ObserveLag(service, time.Since(event.OccurredAt))
		logger.Info("admin_activity",
			"kind", event.Kind,
			"actor", event.Actor,
			"target_id", event.TargetID,
			"detail", event.Detail,
			"occurred_at", event.OccurredAt,
		)
		return nil
	})
}
