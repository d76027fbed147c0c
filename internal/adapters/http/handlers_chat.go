package httpadapter

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gkisanet/2026.gemini-file-search/internal/view"
)

func (rt *Router) home(w http.ResponseWriter, r *http.Request) {
	snap := workspaceFromContext(r.Context()).Snapshot()
	if !snap.State.Auth.LoggedIn() {
		rt.page(w, view.PageLogin, view.NewLoginView(snap))
		return
	}
	rt.page(w, view.PageChat, view.NewChatView(snap))
}

func (rt *Router) login(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFromContext(r.Context())
	_ = ws.Login(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (rt *Router) logout(w http.ResponseWriter, r *http.Request) {
	workspaceFromContext(r.Context()).Logout(r.Context())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// toasts hands over queued toasts to a polling page.
func (rt *Router) toasts(w http.ResponseWriter, r *http.Request) {
	snap := workspaceFromContext(r.Context()).Snapshot()
	if len(snap.Toasts) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	rt.fragment(w, view.FragmentToasts, view.NewToasts(snap.Toasts, snap.Now), nil)
}

func (rt *Router) newSession(w http.ResponseWriter, r *http.Request) {
	err := workspaceFromContext(r.Context()).NewSession(r.Context())
	rt.finish(w, r, "/", err)
}

func (rt *Router) selectSession(w http.ResponseWriter, r *http.Request) {
	err := workspaceFromContext(r.Context()).SelectSession(r.Context(), chi.URLParam(r, "sessionID"))
	rt.finish(w, r, "/", err)
}

func (rt *Router) deleteSession(w http.ResponseWriter, r *http.Request) {
	err := workspaceFromContext(r.Context()).DeleteSession(r.Context(), chi.URLParam(r, "sessionID"))
	rt.finish(w, r, "/", err)
}

// sendMessage appends the user message right away and waits for the
// assistant in the background; the page polls the transcript meanwhile.
func (rt *Router) sendMessage(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFromContext(r.Context())
	pending, err := ws.BeginSend(r.Context(), r.PostFormValue("message"))
	if err == nil && pending != nil {
		rt.goBackground(r, "chat", pending.Complete)
	}
	rt.finish(w, r, "/", err)
}

func (rt *Router) transcript(w http.ResponseWriter, r *http.Request) {
	state := workspaceFromContext(r.Context()).State()
	rt.fragment(w, view.FragmentTranscript, view.NewTranscript(state.Chat), nil)
}

func (rt *Router) openFeedback(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PostFormValue("index"))
	if err != nil {
		index = -1
	}
	err = workspaceFromContext(r.Context()).OpenFeedback(index)
	rt.finish(w, r, "/", err)
}

func (rt *Router) closeFeedback(w http.ResponseWriter, r *http.Request) {
	workspaceFromContext(r.Context()).CloseFeedback()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (rt *Router) submitFeedback(w http.ResponseWriter, r *http.Request) {
	err := workspaceFromContext(r.Context()).SubmitFeedback(r.Context(), r.PostFormValue("text"))
	rt.finish(w, r, "/", err)
}
