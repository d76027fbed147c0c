package httpadapter

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/gkisanet/2026.gemini-file-search/internal/core/usecase"
)

const (
	consoleCookie       = "console_sid"
	consoleCookieMaxAge = 30 * 24 * 60 * 60
)

type workspaceContextKey struct{}

func workspaceFromContext(ctx context.Context) *usecase.Workspace {
	ws, _ := ctx.Value(workspaceContextKey{}).(*usecase.Workspace)
	return ws
}

// workspaceMiddleware identifies the browser by its console cookie, issuing
// a new one when it is missing or malformed, and attaches its workspace.
func (rt *Router) workspaceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		browserID := ""
		if cookie, err := r.Cookie(consoleCookie); err == nil {
			if id, err := uuid.Parse(cookie.Value); err == nil {
				browserID = id.String()
			}
		}
		if browserID == "" {
			browserID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     consoleCookie,
				Value:    browserID,
				Path:     "/",
				MaxAge:   consoleCookieMaxAge,
				HttpOnly: true,
				Secure:   rt.cookieSecure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ws := rt.workspaces.Get(r.Context(), browserID)
		ctx := context.WithValue(r.Context(), workspaceContextKey{}, ws)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (rt *Router) requireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !workspaceFromContext(r.Context()).State().Auth.LoggedIn() {
			rt.denied(w, r, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAdmin sends non-admin users back to the chat view.
func (rt *Router) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := workspaceFromContext(r.Context()).State().Auth
		switch {
		case !auth.LoggedIn():
			rt.denied(w, r, http.StatusUnauthorized)
		case !auth.IsAdmin():
			rt.denied(w, r, http.StatusForbidden)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func (rt *Router) denied(w http.ResponseWriter, r *http.Request, status int) {
	if isPartial(r) {
		w.WriteHeader(status)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
