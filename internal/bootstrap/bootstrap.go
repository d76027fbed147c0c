package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	httpadapter "github.com/gkisanet/2026.gemini-file-search/internal/adapters/http"
	"github.com/gkisanet/2026.gemini-file-search/internal/config"
	"github.com/gkisanet/2026.gemini-file-search/internal/core/ports"
	"github.com/gkisanet/2026.gemini-file-search/internal/core/usecase"
	"github.com/gkisanet/2026.gemini-file-search/internal/infrastructure/auth"
	"github.com/gkisanet/2026.gemini-file-search/internal/infrastructure/backend"
	"github.com/gkisanet/2026.gemini-file-search/internal/infrastructure/queue/nats"
	"github.com/gkisanet/2026.gemini-file-search/internal/infrastructure/repository/memory"
	"github.com/gkisanet/2026.gemini-file-search/internal/infrastructure/repository/postgres"
	"github.com/gkisanet/2026.gemini-file-search/internal/infrastructure/repository/redis"
	"github.com/gkisanet/2026.gemini-file-search/internal/infrastructure/resilience"
	"github.com/gkisanet/2026.gemini-file-search/internal/infrastructure/storage/localfs"
	"github.com/gkisanet/2026.gemini-file-search/internal/observability/metrics"
	"github.com/gkisanet/2026.gemini-file-search/internal/view"
)

const consoleService = "console"

type App struct {
	Config config.Config

	Metrics    *metrics.ConsoleMetrics
	Workspaces *usecase.Registry
	Router     *httpadapter.Router

	closeFns []func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	app := &App{Config: cfg, Metrics: metrics.NewConsoleMetrics(consoleService)}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	breakerCfg := resilience.DefaultConfig()
	breakerCfg.RetryMaxAttempts = cfg.BackendRetryMaxAttempts
	breakerCfg.BreakerEnabled = cfg.BackendBreakerEnabled
	breakerCfg.OnStateChange = app.Metrics.RecordBreakerTransition
	breakerCfg.Logger = logger
	executor := resilience.NewExecutor(breakerCfg)

	client := backend.New(cfg.BackendURL, backend.Options{
		APIPrefix:          cfg.BackendAPIPrefix,
		Timeout:            cfg.BackendTimeout(),
		ResilienceExecutor: executor,
		Observer:           app.Metrics,
	})

	credentials, err := app.credentialStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	staging, err := localfs.New(cfg.StagingPath)
	if err != nil {
		return nil, fmt.Errorf("init staging storage: %w", err)
	}
	// Staged files belong to workspaces, which do not survive a restart.
	if err := staging.Purge(); err != nil {
		return nil, fmt.Errorf("purge staging storage: %w", err)
	}

	activity, err := app.activityPublisher(cfg, logger)
	if err != nil {
		return nil, err
	}

	opts := usecase.WorkspaceOptions{
		Location:          cfg.Location(),
		ToastTTL:          cfg.ToastTTL(),
		DocSearchDelay:    cfg.DocSearchDelay(),
		StoreSearchDelay:  cfg.StoreSearchDelay(),
		StoreFileLimit:    cfg.StoreFilePageLimit,
		RefreshCategories: cfg.StoreCategoriesRefresh,
		Logger:            logger,
	}
	app.Workspaces = usecase.NewRegistry(usecase.Dependencies{
		Backend:     client,
		Credentials: credentials,
		Staging:     staging,
		Activity:    activity,
		Tokens:      auth.NewExpiryInspector(),
	}, opts, cfg.WorkspaceIdle())

	renderer, err := view.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	app.Router = httpadapter.NewRouter(httpadapter.Options{
		Workspaces:     app.Workspaces,
		Renderer:       renderer,
		Metrics:        app.Metrics,
		Health:         executor,
		Logger:         logger,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		CookieSecure:   cfg.CookieSecure,
	})

	logger.Info("console_bootstrapped",
		"backend_url", cfg.BackendURL,
		"credential_store", cfg.CredentialStore,
		"activity_stream", cfg.NATSURL != "",
	)
	ok = true
	return app, nil
}

func (a *App) credentialStore(ctx context.Context, cfg config.Config) (ports.CredentialStore, error) {
	switch cfg.CredentialStore {
	case "", "memory":
		return memory.NewCredentialStore(), nil
	case "postgres":
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		a.closeFns = append(a.closeFns, func() { _ = db.Close() })
		repo := postgres.NewCredentialRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		return repo, nil
	case "redis":
		store, client, err := redis.Open(redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.RedisCredentialTTL(),
		})
		if err != nil {
			return nil, fmt.Errorf("open redis: %w", err)
		}
		a.closeFns = append(a.closeFns, func() { _ = client.Close() })
		return store, nil
	default:
		return nil, fmt.Errorf("unknown credential store %q", cfg.CredentialStore)
	}
}

// activityPublisher returns nil when no NATS server is configured; workspaces
// then skip publishing.
func (a *App) activityPublisher(cfg config.Config, logger *slog.Logger) (ports.ActivityPublisher, error) {
	if cfg.NATSURL == "" {
		return nil, nil
	}
	publishCfg := resilience.DefaultConfig()
	publishCfg.Logger = logger
	stream, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(publishCfg),
	})
	if err != nil {
		return nil, fmt.Errorf("init activity stream: %w", err)
	}
	a.closeFns = append(a.closeFns, stream.Close)
	return stream, nil
}

func (a *App) Close() {
	for i := len(a.closeFns) - 1; i >= 0; i-- {
		a.closeFns[i]()
	}
	a.closeFns = nil
}
