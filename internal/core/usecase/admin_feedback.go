package usecase

import (
	"context"
	"strings"

	"github.com/gkisanet/2026.gemini-file-search/internal/core/domain"
)

// LoadFeedbacks lists corrections under filter ("" for all). The filter is
// remembered for later reloads.
func (w *Workspace) LoadFeedbacks(ctx context.Context, filter string) error {
	if err := w.requireAdmin("usecase.load_feedbacks"); err != nil {
		return err
	}
	status, err := domain.ParseCorrectionFilter(filter)
	if err != nil {
		w.toasts.Show(ToastError, domain.UserMessage(err))
		return err
	}

	w.mu.Lock()
	w.state.Admin.FeedbackFilter = status
	w.mu.Unlock()

	return w.reloadFeedbacks(ctx)
}

func (w *Workspace) reloadFeedbacks(ctx context.Context) error {
	w.mu.Lock()
	status := w.state.Admin.FeedbackFilter
	w.mu.Unlock()

	list, err := w.api().ListFeedbacks(ctx, status)
	if err != nil {
		return w.fail(ctx, "list_feedbacks", "피드백 목록 로드 실패: ", err)
	}
	w.mu.Lock()
	if w.state.Admin.FeedbackFilter == status {
		w.state.Admin.Feedback = list
	}
	w.mu.Unlock()
	return nil
}

func (w *Workspace) ApproveFeedback(ctx context.Context, id string) error {
	if err := w.requireAdmin("usecase.approve_feedback"); err != nil {
		return err
	}
	result, err := w.api().ApproveFeedback(ctx, id)
	if err != nil {
		return w.fail(ctx, "approve_feedback", "승인 실패: ", err)
	}
	w.toasts.Show(ToastSuccess, messageOr(result, "교정이 승인되어 Store에 반영되었습니다"))
	w.publish(ctx, domain.ActivityFeedbackApproved, id, "")
	return w.reloadFeedbacks(ctx)
}

func (w *Workspace) OpenReject(id string) {
	w.mu.Lock()
	w.state.Admin.Reject = RejectModal{Open: true, TargetID: id}
	w.mu.Unlock()
}

func (w *Workspace) CloseReject() {
	w.mu.Lock()
	w.state.Admin.Reject = RejectModal{}
	w.mu.Unlock()
}

// ConfirmReject rejects the correction chosen by OpenReject. A blank reason
// keeps the modal open and sends nothing.
func (w *Workspace) ConfirmReject(ctx context.Context, reason string) error {
	if err := w.requireAdmin("usecase.reject_feedback"); err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return w.reject("reason", "거절 사유를 입력하세요")
	}

	w.mu.Lock()
	modal := w.state.Admin.Reject
	w.mu.Unlock()
	if !modal.Open || modal.TargetID == "" {
		return domain.NewInputError("correction_id", "no correction selected")
	}

	result, err := w.api().RejectFeedback(ctx, modal.TargetID, reason)
	if err != nil {
		return w.fail(ctx, "reject_feedback", "거절 실패: ", err)
	}
	w.CloseReject()
	w.toasts.Show(ToastInfo, messageOr(result, "교정이 거절되었습니다"))
	w.publish(ctx, domain.ActivityFeedbackRejected, modal.TargetID, reason)
	return w.reloadFeedbacks(ctx)
}

func messageOr(result *domain.ActionResult, fallback string) string {
	if result == nil || strings.TrimSpace(result.Message) == "" {
		return fallback
	}
	return result.Message
}
