package usecase

import (
	"context"
	"strings"

	"github.com/gkisanet/2026.gemini-file-search/internal/core/domain"
)

// LoadSessions refreshes the sidebar. Failures toast without touching the
// transcript.
func (w *Workspace) LoadSessions(ctx context.Context) error {
	if err := w.requireLogin("usecase.load_sessions"); err != nil {
		return err
	}
	sessions, err := w.api().ListSessions(ctx)
	if err != nil {
		return w.fail(ctx, "load_sessions", "대화 목록 로드 실패: ", err)
	}
	w.mu.Lock()
	w.state.Chat.Sessions = sessions
	w.mu.Unlock()
	return nil
}

// NewSession creates an empty conversation on the backend and makes it the
// active one.
func (w *Workspace) NewSession(ctx context.Context) error {
	if err := w.requireLogin("usecase.new_session"); err != nil {
		return err
	}
	id, err := w.api().CreateSession(ctx)
	if err != nil {
		return w.fail(ctx, "create_session", "새 대화 생성 실패: ", err)
	}

	w.mu.Lock()
	w.showTranscriptLocked(id, nil)
	w.mu.Unlock()

	_ = w.LoadSessions(ctx)
	return nil
}

// showTranscriptLocked makes id the active conversation with messages as its
// transcript. Replies still in flight for the previous one stop counting as
// pending. The caller holds w.mu.
func (w *Workspace) showTranscriptLocked(id string, messages []domain.Message) {
	chat := &w.state.Chat
	chat.generation++
	chat.CurrentSessionID = id
	chat.Messages = messages
	chat.Feedback = FeedbackModal{}
	chat.Pending = 0
}

// SelectSession replaces the transcript with the stored history of id. The
// session id and its messages change together once the history arrives; a
// failed load leaves the current conversation as it was. If another switch
// happens while the history is loading, the late response is dropped.
func (w *Workspace) SelectSession(ctx context.Context, id string) error {
	if err := w.requireLogin("usecase.select_session"); err != nil {
		return err
	}
	w.mu.Lock()
	w.state.Chat.selecting++
	selecting := w.state.Chat.selecting
	generation := w.state.Chat.generation
	w.mu.Unlock()

	detail, err := w.api().GetSession(ctx, id)
	if err != nil {
		return w.fail(ctx, "select_session", "대화 로드 실패: ", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Chat.selecting != selecting || w.state.Chat.generation != generation {
		w.opts.Logger.Debug("stale_session_dropped", "workspace", w.id, "session_id", id)
		return nil
	}
	w.showTranscriptLocked(id, detail.Messages)
	return nil
}

// DeleteSession removes a session; deleting the active one empties the
// transcript.
func (w *Workspace) DeleteSession(ctx context.Context, id string) error {
	if err := w.requireLogin("usecase.delete_session"); err != nil {
		return err
	}
	if err := w.api().DeleteSession(ctx, id); err != nil {
		return w.fail(ctx, "delete_session", "대화 삭제 실패: ", err)
	}

	w.mu.Lock()
	if w.state.Chat.CurrentSessionID == id {
		w.showTranscriptLocked("", nil)
	}
	w.mu.Unlock()

	w.toasts.Show(ToastSuccess, "대화가 삭제되었습니다")
	_ = w.LoadSessions(ctx)
	return nil
}

// PendingSend is a user message already shown in the transcript whose
// assistant reply has not been requested yet.
type PendingSend struct {
	ws         *Workspace
	sessionID  string
	text       string
	generation uint64
	// shown is set when the user message was appended to the transcript on
	// screen; only those sends count as pending.
	shown bool
	done  bool
}

// SendMessage appends the user message and waits for the assistant reply.
func (w *Workspace) SendMessage(ctx context.Context, text string) error {
	send, err := w.BeginSend(ctx, text)
	if err != nil || send == nil {
		return err
	}
	return send.Complete(ctx)
}

// BeginSend validates the message, creates a session if none is active and
// appends the user message optimistically. A blank message returns a nil
// PendingSend and no error.
func (w *Workspace) BeginSend(ctx context.Context, text string) (*PendingSend, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if err := w.requireLogin("usecase.send_message"); err != nil {
		return nil, err
	}

	w.mu.Lock()
	sessionID := w.state.Chat.CurrentSessionID
	generation := w.state.Chat.generation
	w.mu.Unlock()

	if sessionID == "" {
		created, err := w.api().CreateSession(ctx)
		if err != nil {
			if domain.IsKind(err, domain.ErrUnauthorized) {
				return nil, w.fail(ctx, "create_session", "", err)
			}
			w.opts.Logger.Warn("workspace_request_failed", "workspace", w.id, "op", "create_session", "error", err)
			w.toasts.Show(ToastError, "세션 생성 실패")
			return nil, err
		}
		sessionID = created
	}

	send := &PendingSend{ws: w, sessionID: sessionID, text: text, generation: generation}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.sending++
	if w.state.Chat.generation != generation {
		// The user moved to another conversation while the session was being
		// created; the message still goes to the session it was typed for.
		w.opts.Logger.Debug("send_target_switched", "workspace", w.id, "session_id", sessionID)
		return send, nil
	}
	if w.state.Chat.CurrentSessionID == "" {
		w.state.Chat.CurrentSessionID = sessionID
	}
	w.state.Chat.Messages = append(w.state.Chat.Messages, domain.Message{
		Role:      domain.RoleUser,
		Content:   text,
		CreatedAt: domain.NewTimestamp(w.opts.Now()),
	})
	w.state.Chat.Pending++
	send.shown = true
	return send, nil
}

func (p *PendingSend) SessionID() string { return p.sessionID }

// Complete requests the assistant reply. The reply is appended only when the
// same conversation is still on screen; the session list is refreshed either
// way on success.
func (p *PendingSend) Complete(ctx context.Context) error {
	if p.done {
		return nil
	}
	p.done = true
	w := p.ws

	reply, err := w.api().Chat(ctx, p.sessionID, p.text)

	w.mu.Lock()
	if w.sending > 0 {
		w.sending--
	}
	if p.shown && w.state.Chat.generation == p.generation && w.state.Chat.Pending > 0 {
		w.state.Chat.Pending--
	}
	w.mu.Unlock()

	if err != nil {
		return w.fail(ctx, "chat", "응답 생성 실패: ", err)
	}

	w.mu.Lock()
	if w.state.Chat.generation == p.generation && w.state.Chat.CurrentSessionID == p.sessionID {
		w.state.Chat.Messages = append(w.state.Chat.Messages, domain.Message{
			Role:      domain.RoleAssistant,
			Content:   reply.Answer,
			Citations: reply.Citations,
			CreatedAt: domain.NewTimestamp(w.opts.Now()),
		})
	} else {
		w.opts.Logger.Debug("stale_reply_dropped", "workspace", w.id, "session_id", p.sessionID)
	}
	w.mu.Unlock()

	_ = w.LoadSessions(ctx)
	return nil
}
