package usecase

import (
	"context"
	"strings"

	"github.com/gkisanet/2026.gemini-file-search/internal/core/domain"
)

const feedbackReceived = "피드백이 접수되었습니다"

// OpenFeedback targets the transcript message at index.
func (w *Workspace) OpenFeedback(index int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if index < 0 || index >= len(w.state.Chat.Messages) {
		return domain.NewInputError("message_index", "message index out of range")
	}
	w.state.Chat.Feedback = FeedbackModal{Open: true, TargetIndex: index}
	return nil
}

func (w *Workspace) CloseFeedback() {
	w.mu.Lock()
	w.state.Chat.Feedback = FeedbackModal{}
	w.mu.Unlock()
}

// SubmitFeedback sends the correction for the targeted message. The
// transcript is left as it is.
func (w *Workspace) SubmitFeedback(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return w.reject("user_feedback", "피드백 내용을 입력해주세요")
	}
	if err := w.requireLogin("usecase.submit_feedback"); err != nil {
		return err
	}

	w.mu.Lock()
	modal := w.state.Chat.Feedback
	sessionID := w.state.Chat.CurrentSessionID
	w.mu.Unlock()
	if !modal.Open || sessionID == "" {
		return domain.NewInputError("message_index", "no message selected for feedback")
	}

	receipt, err := w.api().SubmitFeedback(ctx, domain.FeedbackSubmission{
		SessionID:    sessionID,
		MessageIndex: modal.TargetIndex,
		UserFeedback: text,
	})
	if err != nil {
		return w.fail(ctx, "submit_feedback", "피드백 제출 실패: ", err)
	}

	w.CloseFeedback()
	message := feedbackReceived
	if receipt != nil && receipt.Message != "" {
		message = receipt.Message
	}
	w.toasts.Show(ToastSuccess, message)
	return nil
}
