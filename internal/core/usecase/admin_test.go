package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gkisanet/2026.gemini-file-search/internal/core/domain"
)

func TestAdminOperationsRequireAdminRole(t *testing.T) {
	h := newHarness(nil).loggedIn("user")
	err := h.ws.LoadFeedbacks(context.Background(), "")
	if !domain.IsKind(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if len(h.backend.Calls()) != 0 {
		t.Fatalf("no request expected")
	}
}

func TestLoadFeedbacksRejectsUnknownFilter(t *testing.T) {
	h := newHarness(nil).loggedIn("admin")
	err := h.ws.LoadFeedbacks(context.Background(), "superseded")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if h.backend.count("list_feedbacks") != 0 {
		t.Fatalf("no request expected")
	}
}

func TestApproveReloadsWithCurrentFilter(t *testing.T) {
	h := newHarness(&fakeBackend{actionResult: &domain.ActionResult{Message: "승인됨"}}).loggedIn("admin")
	if err := h.ws.LoadFeedbacks(context.Background(), "pending"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := h.ws.ApproveFeedback(context.Background(), "c1"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if got := h.backend.statuses; len(got) != 2 || got[1] != domain.CorrectionPending {
		t.Fatalf("expected reload with pending filter, got %v", got)
	}
	if toast := lastToast(t, h.ws); toast.Message != "승인됨" || toast.Kind != ToastSuccess {
		t.Fatalf("unexpected toast: %+v", toast)
	}
	if len(h.activity.events) != 1 || h.activity.events[0].Kind != domain.ActivityFeedbackApproved || h.activity.events[0].Actor != "kim" {
		t.Fatalf("unexpected activity: %+v", h.activity.events)
	}
}

func TestRejectNeedsReason(t *testing.T) {
	h := newHarness(nil).loggedIn("admin")
	h.ws.OpenReject("c9")

	err := h.ws.ConfirmReject(context.Background(), "  ")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if h.backend.count("reject_feedback") != 0 {
		t.Fatalf("no request expected")
	}
	if toast := lastToast(t, h.ws); toast.Message != "거절 사유를 입력하세요" {
		t.Fatalf("unexpected toast: %q", toast.Message)
	}

	if err := h.ws.ConfirmReject(context.Background(), "근거 부족"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if h.backend.rejected["c9"] != "근거 부족" {
		t.Fatalf("unexpected reject call: %+v", h.backend.rejected)
	}
	if h.ws.State().Admin.Reject.Open {
		t.Fatalf("modal must close")
	}
}

func TestSetLatestReloadsWithCurrentSearch(t *testing.T) {
	h := newHarness(&fakeBackend{actionResult: &domain.ActionResult{Message: "지정 완료"}}).loggedIn("admin")
	if err := h.ws.LoadDocuments(context.Background(), "manual"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := h.ws.SetLatest(context.Background(), "d2"); err != nil {
		t.Fatalf("set latest: %v", err)
	}
	if got := h.backend.docSearches; len(got) != 2 || got[1] != "manual" {
		t.Fatalf("expected reload with search, got %v", got)
	}
	if toast := lastToast(t, h.ws); toast.Message != "지정 완료" {
		t.Fatalf("unexpected toast: %q", toast.Message)
	}
}

func TestSetLatestFailureToastsServerMessage(t *testing.T) {
	h := newHarness(&fakeBackend{actionErr: &domain.RequestError{Status: 404, Message: "문서를 찾을 수 없습니다"}}).loggedIn("admin")
	if err := h.ws.SetLatest(context.Background(), "missing"); err == nil {
		t.Fatalf("expected error")
	}
	if toast := lastToast(t, h.ws); !strings.HasSuffix(toast.Message, "문서를 찾을 수 없습니다") {
		t.Fatalf("unexpected toast: %q", toast.Message)
	}
}

func TestDocumentSearchIsDebounced(t *testing.T) {
	h := newHarness(nil).loggedIn("admin")
	ws := NewWorkspace("browser-1", h.deps(), WorkspaceOptions{DocSearchDelay: 50 * time.Millisecond})
	ws.state.Auth = h.ws.state.Auth

	var wg sync.WaitGroup
	results := make([]error, 3)
	for i, term := range []string{"m", "ma", "man"} {
		wg.Add(1)
		go func(i int, term string) {
			defer wg.Done()
			results[i] = ws.SearchDocuments(context.Background(), term)
		}(i, term)
		time.Sleep(10 * time.Millisecond)
	}
	wg.Wait()

	if got := h.backend.docSearches; len(got) != 1 || got[0] != "man" {
		t.Fatalf("expected one search for the last term, got %v", got)
	}
	for i := 0; i < 2; i++ {
		if !errors.Is(results[i], ErrSuperseded) {
			t.Fatalf("call %d: expected superseded, got %v", i, results[i])
		}
	}
	if results[2] != nil {
		t.Fatalf("last call: %v", results[2])
	}
}

func TestStoreFilterResetsPage(t *testing.T) {
	h := newHarness(nil).loggedIn("admin")
	if err := h.ws.LoadStoreFiles(context.Background(), 3); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := h.ws.FilterStoreFiles(context.Background(), "매뉴얼", "correction"); err != nil {
		t.Fatalf("filter: %v", err)
	}
	queries := h.backend.storeQueries
	if len(queries) != 2 {
		t.Fatalf("expected 2 queries, got %+v", queries)
	}
	want := domain.StoreFileQuery{Page: 1, Limit: 20, Category: "매뉴얼", StoreType: domain.StoreCorrection}
	if queries[1] != want {
		t.Fatalf("query = %+v, want %+v", queries[1], want)
	}
	if queries[0].Page != 3 {
		t.Fatalf("first query page = %d", queries[0].Page)
	}
}

func TestStoreSearchResetsPage(t *testing.T) {
	h := newHarness(nil).loggedIn("admin")
	h.ws.state.Admin.Store.Query.Page = 4
	if err := h.ws.SearchStoreFiles(context.Background(), " report "); err != nil {
		t.Fatalf("search: %v", err)
	}
	got := h.backend.storeQueries
	if len(got) != 1 || got[0].Page != 1 || got[0].Search != "report" {
		t.Fatalf("unexpected query: %+v", got)
	}
}

func TestStoreCategoriesPopulatedOnce(t *testing.T) {
	backend := &fakeBackend{storePages: []*domain.StoreFilePage{
		{Total: 0, Page: 1},
		{Total: 2, Page: 1, Categories: []domain.CategoryCount{{Name: "A", Count: 2}}},
		{Total: 3, Page: 1, Categories: []domain.CategoryCount{{Name: "B", Count: 3}}},
	}}
	h := newHarness(backend).loggedIn("admin")
	for i := 0; i < 3; i++ {
		if err := h.ws.LoadStoreFiles(context.Background(), 1); err != nil {
			t.Fatalf("load %d: %v", i, err)
		}
	}
	cats := h.ws.State().Admin.Store.Categories
	if len(cats) != 1 || cats[0].Name != "A" {
		t.Fatalf("categories must stay at first populated value, got %+v", cats)
	}
}

func TestStoreCategoriesRefreshOption(t *testing.T) {
	backend := &fakeBackend{storePages: []*domain.StoreFilePage{
		{Categories: []domain.CategoryCount{{Name: "A", Count: 2}}},
		{Categories: []domain.CategoryCount{{Name: "B", Count: 3}}},
	}}
	h := newHarness(backend)
	h.ws = NewWorkspace("browser-1", h.deps(), WorkspaceOptions{RefreshCategories: true})
	h.loggedIn("admin")
	_ = h.ws.LoadStoreFiles(context.Background(), 1)
	_ = h.ws.LoadStoreFiles(context.Background(), 1)
	if cats := h.ws.State().Admin.Store.Categories; len(cats) != 1 || cats[0].Name != "B" {
		t.Fatalf("expected refreshed categories, got %+v", cats)
	}
}

func TestUploadWithoutInputsSendsNothing(t *testing.T) {
	h := newHarness(nil).loggedIn("admin")
	err := h.ws.Upload(context.Background(), UploadForm{StoreType: "primary"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if len(h.backend.Calls()) != 0 {
		t.Fatalf("no request expected, got %v", h.backend.Calls())
	}
	if toast := lastToast(t, h.ws); toast.Kind != ToastError {
		t.Fatalf("expected error toast")
	}
}

func TestUploadStagedFiles(t *testing.T) {
	h := newHarness(&fakeBackend{uploadResult: &domain.UploadResult{Results: []domain.UploadFileResult{
		{Success: true, File: "a.pdf"},
		{Success: false, File: "b.pdf", Error: "bad"},
	}}}).loggedIn("admin")
	h.ws.state.Admin.Upload.Path = "/srv/docs"

	err := h.ws.StageFiles(context.Background(), []IncomingFile{
		{Name: `C:\\docs\\a.pdf`, Content: strings.NewReader("AAA")},
		{Name: "dir/b.pdf", Content: strings.NewReader("BB")},
	})
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	state := h.ws.State()
	if state.Admin.Upload.Path != "" {
		t.Fatalf("selecting files must clear the path")
	}
	if len(state.Admin.Upload.Selected) != 2 || state.Admin.Upload.Selected[0].Name != "a.pdf" || state.Admin.Upload.Selected[1].Size != 2 {
		t.Fatalf("unexpected selection: %+v", state.Admin.Upload.Selected)
	}

	if err := h.ws.Upload(context.Background(), UploadForm{StoreType: "primary", VersionGroup: "manual"}); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if h.backend.uploadedBody["a.pdf"] != "AAA" || h.backend.uploadedBody["b.pdf"] != "BB" {
		t.Fatalf("unexpected uploaded bodies: %+v", h.backend.uploadedBody)
	}
	if toast := lastToast(t, h.ws); toast.Message != "1/2개 파일 업로드 완료" {
		t.Fatalf("unexpected toast: %q", toast.Message)
	}
	state = h.ws.State()
	if state.Admin.Upload.Busy || len(state.Admin.Upload.Selected) != 0 || state.Admin.Upload.VersionGroup != "" {
		t.Fatalf("inputs must reset: %+v", state.Admin.Upload)
	}
	if h.staging.Len() != 0 {
		t.Fatalf("staged files must be released")
	}
	if h.backend.count("list_documents") != 1 || h.backend.count("list_store_files") != 1 {
		t.Fatalf("expected reloads, calls=%v", h.backend.Calls())
	}
}

func TestUploadFailureClearsBusyAndReportsStatus(t *testing.T) {
	h := newHarness(&fakeBackend{uploadErr: &domain.RequestError{Status: 400, Message: "경로가 없습니다"}}).loggedIn("admin")

	err := h.ws.Upload(context.Background(), UploadForm{Path: "/nope"})
	if err == nil {
		t.Fatalf("expected error")
	}
	state := h.ws.State()
	if state.Admin.Upload.Busy {
		t.Fatalf("busy must be cleared")
	}
	if state.Admin.Upload.Status != UploadFailed || !strings.Contains(state.Admin.Upload.Message, "경로가 없습니다") {
		t.Fatalf("unexpected status: %+v", state.Admin.Upload)
	}
	if toast := lastToast(t, h.ws); toast.Message != "업로드 실패: 경로가 없습니다" {
		t.Fatalf("unexpected toast: %q", toast.Message)
	}
	if got := h.backend.pathRequests; len(got) != 1 || got[0].StoreType != domain.StorePrimary {
		t.Fatalf("unexpected path request: %+v", got)
	}
}

func TestUploadTickerUpdatesElapsed(t *testing.T) {
	backend := &fakeBackend{uploadResult: &domain.UploadResult{Message: "done"}}
	h := newHarness(backend)
	h.ws = NewWorkspace("browser-1", h.deps(), WorkspaceOptions{UploadTick: 5 * time.Millisecond})
	h.loggedIn("admin")

	var sawElapsed bool
	backend.uploadHook = func() {
		deadline := time.Now().Add(time.Second)
		for time.Now().Before(deadline) {
			if h.ws.State().Admin.Upload.Elapsed > 0 {
				sawElapsed = true
				return
			}
			time.Sleep(2 * time.Millisecond)
		}
	}

	if err := h.ws.Upload(context.Background(), UploadForm{Path: "/srv"}); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !sawElapsed {
		t.Fatalf("ticker never updated the elapsed time")
	}
	if h.ws.State().Admin.Upload.Busy {
		t.Fatalf("busy must be cleared")
	}
}

func TestOpenDashboardStopsAfterLogout(t *testing.T) {
	h := newHarness(&fakeBackend{feedbackErrs: errUnauthorized}).loggedIn("admin")
	err := h.ws.OpenDashboard(context.Background())
	if !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if got := h.backend.Calls(); len(got) != 1 {
		t.Fatalf("expected to stop after the first panel, calls=%v", got)
	}
}

func TestBeginUploadMarksBusyBeforeRequest(t *testing.T) {
	h := newHarness(&fakeBackend{uploadResult: &domain.UploadResult{Message: "ok"}}).loggedIn("admin")

	pending, err := h.ws.BeginUpload(context.Background(), UploadForm{Path: "/srv", StoreType: "correction"})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if pending.FromFiles() {
		t.Fatalf("server path upload reported as file upload")
	}
	state := h.ws.State()
	if !state.Admin.Upload.Busy || state.Admin.Upload.Status != UploadRunning {
		t.Fatalf("expected running upload, got %+v", state.Admin.Upload)
	}
	if !strings.HasPrefix(state.Admin.Upload.Message, "?개 파일 업로드") {
		t.Fatalf("unexpected status message %q", state.Admin.Upload.Message)
	}
	if len(h.backend.Calls()) != 0 {
		t.Fatalf("nothing may be sent before Run, calls=%v", h.backend.Calls())
	}

	if _, err := h.ws.BeginUpload(context.Background(), UploadForm{Path: "/other"}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("second upload must be rejected while busy, got %v", err)
	}
	_ = h.ws.Toasts().Drain()

	if err := pending.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if h.ws.State().Admin.Upload.Busy {
		t.Fatalf("busy must be cleared after run")
	}
	if got := h.backend.pathRequests; len(got) != 1 || got[0].StoreType != domain.StoreCorrection {
		t.Fatalf("unexpected path request: %+v", got)
	}
}
