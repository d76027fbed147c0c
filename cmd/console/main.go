package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gkisanet/2026.gemini-file-search/internal/bootstrap"
	"github.com/gkisanet/2026.gemini-file-search/internal/config"
	"github.com/gkisanet/2026.gemini-file-search/internal/observability/logging"
)

const sweepInterval = time.Minute

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var addr string
	var envFile string
	cmd := &cobra.Command{
		Use:           "console",
		Short:         "Web console for the document-grounded chat backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(envFile); err != nil {
				return err
			}
			cfg := config.Load()
			if addr == "" {
				addr = ":" + cfg.ConsolePort
			}
			logger := logging.NewJSONLogger("console", cfg.LogLevel)
			slog.SetDefault(logger)
			if err := run(cmd.Context(), cfg, addr, logger); err != nil {
				logger.Error("console_failed", "error", err)
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :$CONSOLE_PORT)")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	return cmd
}

func run(parent context.Context, cfg config.Config, addr string, logger *slog.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	go app.Workspaces.Run(ctx, sweepInterval, func(evicted, remaining int) {
		app.Metrics.RecordEvictions(evicted)
		app.Metrics.SetWorkspaces(remaining)
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           app.Router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Minute,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("console_listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("console_shutdown_error", "error", err)
	}

	drainCtx, cancelDrain := context.WithTimeout(context.Background(), cfg.ShutdownDrain())
	defer cancelDrain()
	logger.Info("background_tasks_draining", "timeout", cfg.ShutdownDrain().String())
	if err := app.Router.Wait(drainCtx); err != nil {
		logger.Warn("background_tasks_abandoned", "error", err)
	}
	logger.Info("console_stopped")
	return nil
}
