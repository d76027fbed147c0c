package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/gkisanet/2026.gemini-file-search/internal/core/domain"
)

var (
	errNotLoggedIn = errors.New("not logged in")
	errNotAdmin    = errors.New("admin role required")
)

// Login exchanges credentials for a token. A rejected login is shown on the
// login view instead of as a toast.
func (w *Workspace) Login(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		w.setLoginError("아이디와 비밀번호를 입력하세요")
		return domain.NewInputError("username", "username and password are required")
	}

	result, err := w.deps.Backend.Login(ctx, username, password)
	if err != nil {
		w.opts.Logger.Warn("login_failed", "workspace", w.id, "username", username, "error", err)
		w.setLoginError(domain.UserMessage(err))
		return err
	}

	if w.State().Auth.LoggedIn() {
		// Another account was signed in from this browser; none of its
		// conversations or admin views may carry over.
		w.logout(ctx)
	}

	creds := domain.Credentials{Token: result.Token, User: result.User}
	if err := w.deps.Credentials.Save(ctx, w.id, creds); err != nil {
		// The login itself worked; only persistence across restarts is lost.
		w.opts.Logger.Warn("credentials_save_failed", "workspace", w.id, "error", err)
	}

	w.mu.Lock()
	w.state.Auth = AuthState{Token: result.Token, User: &creds.User}
	w.mu.Unlock()

	_ = w.LoadSessions(ctx)
	return nil
}

func (w *Workspace) setLoginError(message string) {
	w.mu.Lock()
	w.state.Auth.LoginError = message
	w.mu.Unlock()
}

// Logout forgets the token and every piece of per-user state.
func (w *Workspace) Logout(ctx context.Context) {
	w.logout(ctx)
}

func (w *Workspace) logout(ctx context.Context) {
	w.docSearch.Cancel()
	w.storeSearch.Cancel()

	w.mu.Lock()
	staged := w.state.Admin.Upload.Selected
	generation := w.state.Chat.generation + 1
	w.state = initialState(w.opts)
	w.state.Chat.generation = generation
	w.mu.Unlock()

	w.releaseStaged(ctx, staged)
	if err := w.deps.Credentials.Delete(ctx, w.id); err != nil {
		w.opts.Logger.Warn("credentials_delete_failed", "workspace", w.id, "error", err)
	}
}

// Restore loads persisted credentials once per workspace. Expired tokens are
// discarded.
func (w *Workspace) Restore(ctx context.Context) {
	w.restoreOnce.Do(func() {
		creds, err := w.deps.Credentials.Load(ctx, w.id)
		if err != nil {
			if !domain.IsKind(err, domain.ErrNotFound) {
				w.opts.Logger.Warn("credentials_load_failed", "workspace", w.id, "error", err)
			}
			return
		}
		if creds.Token == "" || w.deps.Tokens.Expired(creds.Token) {
			if err := w.deps.Credentials.Delete(ctx, w.id); err != nil {
				w.opts.Logger.Warn("credentials_delete_failed", "workspace", w.id, "error", err)
			}
			return
		}

		user := creds.User
		w.mu.Lock()
		w.state.Auth = AuthState{Token: creds.Token, User: &user}
		w.mu.Unlock()

		_ = w.LoadSessions(ctx)
	})
}
