package usecase

import (
	"context"
	"strings"

	"github.com/gkisanet/2026.gemini-file-search/internal/core/domain"
)

// LoadDocuments fetches version groups matching search right away.
func (w *Workspace) LoadDocuments(ctx context.Context, search string) error {
	if err := w.requireAdmin("usecase.load_documents"); err != nil {
		return err
	}
	search = strings.TrimSpace(search)
	w.mu.Lock()
	w.state.Admin.DocSearch = search
	w.mu.Unlock()
	return w.reloadDocuments(ctx)
}

// SearchDocuments is LoadDocuments behind the typing debounce. Callers
// replaced by a later keystroke receive ErrSuperseded.
func (w *Workspace) SearchDocuments(ctx context.Context, search string) error {
	if err := w.requireAdmin("usecase.search_documents"); err != nil {
		return err
	}
	return w.docSearch.Submit(ctx, func(ctx context.Context) error {
		return w.LoadDocuments(ctx, search)
	})
}

func (w *Workspace) reloadDocuments(ctx context.Context) error {
	w.mu.Lock()
	search := w.state.Admin.DocSearch
	w.mu.Unlock()

	list, err := w.api().ListDocuments(ctx, search)
	if err != nil {
		return w.fail(ctx, "list_documents", "문서 목록 로드 실패: ", err)
	}
	w.mu.Lock()
	if w.state.Admin.DocSearch == search {
		w.state.Admin.Documents = list
	}
	w.mu.Unlock()
	return nil
}

// SetLatest marks one document as the latest of its group. Which other
// version loses the flag is decided by the backend.
func (w *Workspace) SetLatest(ctx context.Context, documentID string) error {
	if err := w.requireAdmin("usecase.set_latest"); err != nil {
		return err
	}
	result, err := w.api().SetLatestDocument(ctx, documentID)
	if err != nil {
		return w.fail(ctx, "set_latest", "최신 버전 지정 실패: ", err)
	}
	w.toasts.Show(ToastSuccess, messageOr(result, "최신 버전으로 지정되었습니다"))
	w.publish(ctx, domain.ActivityDocumentLatest, documentID, "")

	w.mu.Lock()
	group := w.state.Admin.Group
	w.mu.Unlock()
	if group != nil {
		_ = w.OpenGroup(ctx, group.VersionGroup)
	}
	return w.reloadDocuments(ctx)
}

// OpenGroup loads every version of one group for the detail panel.
func (w *Workspace) OpenGroup(ctx context.Context, versionGroup string) error {
	if err := w.requireAdmin("usecase.open_group"); err != nil {
		return err
	}
	detail, err := w.api().GetDocumentGroup(ctx, versionGroup)
	if err != nil {
		return w.fail(ctx, "get_document_group", "문서 그룹 로드 실패: ", err)
	}
	w.mu.Lock()
	w.state.Admin.Group = detail
	w.mu.Unlock()
	return nil
}

func (w *Workspace) CloseGroup() {
	w.mu.Lock()
	w.state.Admin.Group = nil
	w.mu.Unlock()
}
