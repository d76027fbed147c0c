package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gkisanet/2026.gemini-file-search/internal/core/usecase"
	"github.com/gkisanet/2026.gemini-file-search/internal/observability/metrics"
	"github.com/gkisanet/2026.gemini-file-search/internal/view"
)

const defaultMaxUploadBytes = 512 << 20

// WorkspaceSource hands out the workspace of a browser, creating it on first
// use.
type WorkspaceSource interface {
	Get(ctx context.Context, browserID string) *usecase.Workspace
}

// HealthReporter exposes the backend circuit breaker states.
type HealthReporter interface {
	Degraded() bool
	States() map[string]string
}

type Options struct {
	Workspaces     WorkspaceSource
	Renderer       *view.Renderer
	Metrics        *metrics.ConsoleMetrics
	Health         HealthReporter
	Logger         *slog.Logger
	RateLimitRPS   float64
	RateLimitBurst int
	CookieSecure   bool
	MaxUploadBytes int64
}

type Router struct {
	workspaces     WorkspaceSource
	renderer       *view.Renderer
	metrics        *metrics.ConsoleMetrics
	health         HealthReporter
	logger         *slog.Logger
	rateLimitRPS   float64
	rateLimitBurst int
	cookieSecure   bool
	maxUploadBytes int64

	// background tracks chat completions and uploads that outlive their
	// request.
	background sync.WaitGroup
}

func NewRouter(opts Options) *Router {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	return &Router{
		workspaces:     opts.Workspaces,
		renderer:       opts.Renderer,
		metrics:        opts.Metrics,
		health:         opts.Health,
		logger:         opts.Logger,
		rateLimitRPS:   opts.RateLimitRPS,
		rateLimitBurst: opts.RateLimitBurst,
		cookieSecure:   opts.CookieSecure,
		maxUploadBytes: opts.MaxUploadBytes,
	}
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(accessLogMiddleware(rt.logger))
	if rt.metrics != nil {
		r.Use(rt.metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	r.Get("/healthz", rt.healthz)
	r.Handle("/static/*", http.StripPrefix("/static/", view.Static()))

	var onLimited func()
	if rt.metrics != nil {
		onLimited = rt.metrics.RecordRateLimited
	}

	r.Group(func(r chi.Router) {
		r.Use(rateLimitMiddleware(rt.rateLimitRPS, rt.rateLimitBurst, onLimited))
		r.Use(sameOriginMiddleware)
		r.Use(rt.workspaceMiddleware)

		r.Get("/", rt.home)
		r.Post("/login", rt.login)
		r.Post("/logout", rt.logout)
		r.Get("/toasts", rt.toasts)

		r.Group(func(r chi.Router) {
			r.Use(rt.requireLogin)
			r.Post("/sessions", rt.newSession)
			r.Get("/sessions/{sessionID}", rt.selectSession)
			r.Post("/sessions/{sessionID}/delete", rt.deleteSession)
			r.Post("/chat", rt.sendMessage)
			r.Get("/chat/transcript", rt.transcript)
			r.Post("/feedback/open", rt.openFeedback)
			r.Post("/feedback/close", rt.closeFeedback)
			r.Post("/feedback", rt.submitFeedback)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(rt.requireAdmin)
			r.Get("/", rt.adminDashboard)

			r.Get("/feedbacks", rt.filterFeedbacks)
			r.Post("/feedbacks/{correctionID}/approve", rt.approveFeedback)
			r.Post("/feedbacks/{correctionID}/reject", rt.openReject)
			r.Post("/feedbacks/reject", rt.confirmReject)
			r.Post("/feedbacks/reject/close", rt.closeReject)

			r.Get("/documents", rt.searchDocuments)
			r.Post("/documents/{documentID}/latest", rt.setLatest)
			r.Get("/documents/group/{group}", rt.openGroup)
			r.Post("/documents/group/close", rt.closeGroup)

			r.Get("/store_files", rt.storeFilesPage)
			r.Get("/store_files/search", rt.searchStoreFiles)
			r.Get("/store_files/filter", rt.filterStoreFiles)

			r.Post("/upload/files", rt.stageFiles)
			r.Post("/upload/clear", rt.clearStaged)
			r.Post("/upload", rt.upload)
			r.Get("/upload/status", rt.uploadStatus)
		})
	})
	return r
}

// Wait blocks until background chat completions and uploads have finished
// or ctx ends.
func (rt *Router) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		rt.background.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// goBackground runs fn after the request has been answered. The context
// keeps the request values but not its cancellation.
func (rt *Router) goBackground(r *http.Request, name string, fn func(ctx context.Context) error) {
	ctx := context.WithoutCancel(r.Context())
	rt.background.Add(1)
	go func() {
		defer rt.background.Done()
		start := time.Now()
		if err := fn(ctx); err != nil && !leavesPage(err) {
			rt.logger.Warn("background_task_failed",
				"task", name,
				"request_id", requestIDFromContext(ctx),
				"duration_ms", time.Since(start).Milliseconds(),
				"error", err,
			)
		}
	}()
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	status := "ok"
	var breakers map[string]string
	if rt.health != nil {
		breakers = rt.health.States()
		if rt.health.Degraded() {
			status = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": status, "backend": breakers})
}

// finish ends a form action with a redirect, so toasts queued by the action
// are shown once by the next page load.
func (rt *Router) finish(w http.ResponseWriter, r *http.Request, target string, err error) {
	switch {
	case errors.Is(err, usecase.ErrSuperseded):
		w.WriteHeader(http.StatusNoContent)
		return
	case leavesPage(err):
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// fragment answers a live-update request with one panel of the page.
func (rt *Router) fragment(w http.ResponseWriter, name string, data any, err error) {
	if errors.Is(err, usecase.ErrSuperseded) || leavesPage(err) {
		w.WriteHeader(mapErrorToHTTPStatus(err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if renderErr := rt.renderer.Fragment(w, name, data); renderErr != nil {
		rt.logger.Error("render_fragment_failed", "fragment", name, "error", renderErr)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (rt *Router) page(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := rt.renderer.Page(w, name, data); err != nil {
		rt.logger.Error("render_page_failed", "page", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func isPartial(r *http.Request) bool {
	return r.URL.Query().Get("partial") == "1"
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
