package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gkisanet/2026.gemini-file-search/internal/core/domain"
	"github.com/gkisanet/2026.gemini-file-search/internal/core/ports"
)

const (
	defaultDocSearchDelay   = 300 * time.Millisecond
	defaultStoreSearchDelay = 400 * time.Millisecond
	defaultUploadTick       = time.Second
)

// Dependencies are the adapters shared by every workspace.
type Dependencies struct {
	Backend     ports.Backend
	Credentials ports.CredentialStore
	Staging     ports.FileStaging
	Activity    ports.ActivityPublisher
	Tokens      ports.TokenInspector
}

type WorkspaceOptions struct {
	Location          *time.Location
	ToastTTL          time.Duration
	DocSearchDelay    time.Duration
	StoreSearchDelay  time.Duration
	StoreFileLimit    int
	RefreshCategories bool
	UploadTick        time.Duration
	Now               func() time.Time
	Logger            *slog.Logger
}

func (o WorkspaceOptions) withDefaults() WorkspaceOptions {
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.ToastTTL <= 0 {
		o.ToastTTL = DefaultToastTTL
	}
	if o.StoreFileLimit <= 0 {
		o.StoreFileLimit = domain.DefaultStoreFileLimit
	}
	if o.UploadTick <= 0 {
		o.UploadTick = defaultUploadTick
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// DefaultWorkspaceOptions carries the production search delays. A zero
// delay in WorkspaceOptions runs searches immediately.
func DefaultWorkspaceOptions() WorkspaceOptions {
	return WorkspaceOptions{
		DocSearchDelay:   defaultDocSearchDelay,
		StoreSearchDelay: defaultStoreSearchDelay,
	}
}

// Workspace is the console state of one browser together with the operations
// that change it. All methods are safe for concurrent use; backend calls are
// made without holding the state lock.
type Workspace struct {
	id   string
	deps Dependencies
	opts WorkspaceOptions

	toasts      *Notifier
	docSearch   *Debouncer
	storeSearch *Debouncer

	restoreOnce sync.Once

	mu       sync.Mutex
	state    State
	lastSeen time.Time
	// sending counts chat requests in flight for any transcript, including
	// ones no longer on screen.
	sending int
}

func NewWorkspace(id string, deps Dependencies, opts WorkspaceOptions) *Workspace {
	opts = opts.withDefaults()
	if deps.Activity == nil {
		deps.Activity = noopActivity{}
	}
	if deps.Tokens == nil {
		deps.Tokens = neverExpires{}
	}
	return &Workspace{
		id:          id,
		deps:        deps,
		opts:        opts,
		toasts:      NewNotifier(opts.ToastTTL, opts.Now),
		docSearch:   NewDebouncer(opts.DocSearchDelay),
		storeSearch: NewDebouncer(opts.StoreSearchDelay),
		state:       initialState(opts),
		lastSeen:    opts.Now(),
	}
}

func initialState(opts WorkspaceOptions) State {
	return State{
		Admin: AdminState{
			Store: StoreBrowser{
				Query: domain.StoreFileQuery{Page: 1, Limit: opts.StoreFileLimit},
			},
			Upload: UploadState{StoreType: domain.StorePrimary, Status: UploadIdle},
		},
	}
}

func (w *Workspace) ID() string { return w.id }

func (w *Workspace) Location() *time.Location { return w.opts.Location }

// Snapshot is a point-in-time copy of the workspace for rendering.
type Snapshot struct {
	State    State
	Toasts   []Toast
	Now      time.Time
	Location *time.Location
}

// Snapshot copies the state and hands over the queued toasts, which are
// therefore displayed once.
func (w *Workspace) Snapshot() Snapshot {
	w.mu.Lock()
	state := w.state.clone()
	w.lastSeen = w.opts.Now()
	w.mu.Unlock()
	return Snapshot{
		State:    state,
		Toasts:   w.toasts.Drain(),
		Now:      w.opts.Now(),
		Location: w.opts.Location,
	}
}

// State returns a copy of the state without consuming toasts.
func (w *Workspace) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.clone()
}

func (w *Workspace) Toasts() *Notifier { return w.toasts }

func (w *Workspace) idleSince() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen
}

func (w *Workspace) busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Admin.Upload.Busy || w.sending > 0
}

func (w *Workspace) touch() {
	w.mu.Lock()
	w.lastSeen = w.opts.Now()
	w.mu.Unlock()
}

// api returns the backend bound to the current token.
func (w *Workspace) api() ports.BackendAPI {
	w.mu.Lock()
	token := w.state.Auth.Token
	w.mu.Unlock()
	return w.deps.Backend.WithToken(token)
}

// fail reports a failed backend call. An expired or revoked token ends the
// login silently; anything else becomes an error toast.
func (w *Workspace) fail(ctx context.Context, op, prefix string, err error) error {
	if domain.IsKind(err, domain.ErrUnauthorized) {
		w.opts.Logger.Info("workspace_logged_out", "workspace", w.id, "op", op)
		w.logout(ctx)
		return err
	}
	w.opts.Logger.Warn("workspace_request_failed", "workspace", w.id, "op", op, "error", err)
	w.toasts.Show(ToastError, prefix+domain.UserMessage(err))
	return err
}

// reject reports a locally invalid action; no request is made.
func (w *Workspace) reject(field, message string) error {
	w.toasts.Show(ToastError, message)
	return domain.NewInputError(field, message)
}

func (w *Workspace) requireLogin(op string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.state.Auth.LoggedIn() {
		return domain.WrapError(domain.ErrUnauthorized, op, errNotLoggedIn)
	}
	return nil
}

func (w *Workspace) requireAdmin(op string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.state.Auth.LoggedIn() {
		return domain.WrapError(domain.ErrUnauthorized, op, errNotLoggedIn)
	}
	if !w.state.Auth.User.IsAdmin() {
		return domain.WrapError(domain.ErrForbidden, op, errNotAdmin)
	}
	return nil
}

func (w *Workspace) publish(ctx context.Context, kind domain.ActivityKind, targetID, detail string) {
	w.mu.Lock()
	actor := ""
	if w.state.Auth.User != nil {
		actor = w.state.Auth.User.Username
	}
	w.mu.Unlock()
	event := domain.ActivityEvent{
		Kind:       kind,
		Actor:      actor,
		TargetID:   targetID,
		Detail:     detail,
		OccurredAt: w.opts.Now().UTC(),
	}
	if err := w.deps.Activity.PublishActivity(ctx, event); err != nil {
		w.opts.Logger.Warn("activity_publish_failed", "kind", kind, "error", err)
	}
}

type noopActivity struct{}

func (noopActivity) PublishActivity(context.Context, domain.ActivityEvent) error { return nil }

type neverExpires struct{}

func (neverExpires) Expired(string) bool { return false }
