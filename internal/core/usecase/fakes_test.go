package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/gkisanet/2026.gemini-file-search/internal/core/domain"
	"github.com/gkisanet/2026.gemini-file-search/internal/core/ports"
)

var errUnauthorized = domain.WrapError(domain.ErrUnauthorized, "backend.call", errors.New("status 401"))

type fakeBackend struct {
	mu    sync.Mutex
	calls []string
	token string

	loginResult *domain.LoginResult
	loginErr    error

	sessions       []domain.Session
	listSessionErr error
	createdID      string
	createErr      error
	createHook     func()
	details        map[string]*domain.SessionDetail
	getSessionErr  error
	getSessionHook func(id string)
	deleteErr      error
	chatReply      *domain.ChatReply
	chatErr        error
	chatHook       func(sessionID, message string)

	feedbackReceipt *domain.FeedbackReceipt
	feedbackErr     error
	submissions     []domain.FeedbackSubmission

	feedbackList *domain.FeedbackList
	feedbackErrs error
	statuses     []domain.CorrectionStatus
	actionResult *domain.ActionResult
	actionErr    error
	rejected     map[string]string

	documents   *domain.DocumentList
	docSearches []string
	group       *domain.DocumentGroupDetail

	storePages   []*domain.StoreFilePage
	storeQueries []domain.StoreFileQuery
	stores       []domain.Store

	uploadResult *domain.UploadResult
	uploadErr    error
	uploadHook   func()
	pathRequests []domain.UploadPathRequest
	uploadedBody map[string]string
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) count(call string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeBackend) Login(_ context.Context, username, _ string) (*domain.LoginResult, error) {
	f.record("login")
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if f.loginResult != nil {
		return f.loginResult, nil
	}
	return &domain.LoginResult{Token: "tok-" + username, User: domain.User{ID: "u1", Username: username, Role: "user"}}, nil
}

func (f *fakeBackend) WithToken(token string) ports.BackendAPI {
	f.mu.Lock()
	f.token = token
	f.mu.Unlock()
	return f
}

func (f *fakeBackend) ListSessions(context.Context) ([]domain.Session, error) {
	f.record("list_sessions")
	if f.listSessionErr != nil {
		return nil, f.listSessionErr
	}
	return f.sessions, nil
}

func (f *fakeBackend) CreateSession(context.Context) (string, error) {
	f.record("create_session")
	if f.createHook != nil {
		f.createHook()
	}
	if f.createErr != nil {
		return "", f.createErr
	}
	if f.createdID == "" {
		return "s-new", nil
	}
	return f.createdID, nil
}

func (f *fakeBackend) GetSession(_ context.Context, id string) (*domain.SessionDetail, error) {
	f.record("get_session")
	if f.getSessionHook != nil {
		f.getSessionHook(id)
	}
	if f.getSessionErr != nil {
		return nil, f.getSessionErr
	}
	if detail, ok := f.details[id]; ok {
		return detail, nil
	}
	return &domain.SessionDetail{Session: domain.Session{ID: id}}, nil
}

func (f *fakeBackend) DeleteSession(context.Context, string) error {
	f.record("delete_session")
	return f.deleteErr
}

func (f *fakeBackend) Chat(_ context.Context, sessionID, message string) (*domain.ChatReply, error) {
	f.record("chat")
	if f.chatHook != nil {
		f.chatHook(sessionID, message)
	}
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	if f.chatReply != nil {
		return f.chatReply, nil
	}
	return &domain.ChatReply{Answer: "answer to " + message}, nil
}

func (f *fakeBackend) SubmitFeedback(_ context.Context, submission domain.FeedbackSubmission) (*domain.FeedbackReceipt, error) {
	f.record("submit_feedback")
	if f.feedbackErr != nil {
		return nil, f.feedbackErr
	}
	f.mu.Lock()
	f.submissions = append(f.submissions, submission)
	f.mu.Unlock()
	if f.feedbackReceipt != nil {
		return f.feedbackReceipt, nil
	}
	return &domain.FeedbackReceipt{}, nil
}

func (f *fakeBackend) ListFeedbacks(_ context.Context, status domain.CorrectionStatus) (*domain.FeedbackList, error) {
	f.record("list_feedbacks")
	f.mu.Lock()
	f.statuses = append(f.statuses, status)
	f.mu.Unlock()
	if f.feedbackErrs != nil {
		return nil, f.feedbackErrs
	}
	if f.feedbackList != nil {
		return f.feedbackList, nil
	}
	return &domain.FeedbackList{}, nil
}

func (f *fakeBackend) ApproveFeedback(context.Context, string) (*domain.ActionResult, error) {
	f.record("approve_feedback")
	return f.actionResult, f.actionErr
}

func (f *fakeBackend) RejectFeedback(_ context.Context, id, reason string) (*domain.ActionResult, error) {
	f.record("reject_feedback")
	if f.actionErr != nil {
		return nil, f.actionErr
	}
	f.mu.Lock()
	if f.rejected == nil {
		f.rejected = map[string]string{}
	}
	f.rejected[id] = reason
	f.mu.Unlock()
	return f.actionResult, nil
}

func (f *fakeBackend) ListDocuments(_ context.Context, search string) (*domain.DocumentList, error) {
	f.record("list_documents")
	f.mu.Lock()
	f.docSearches = append(f.docSearches, search)
	f.mu.Unlock()
	if f.documents != nil {
		return f.documents, nil
	}
	return &domain.DocumentList{}, nil
}

func (f *fakeBackend) GetDocumentGroup(_ context.Context, group string) (*domain.DocumentGroupDetail, error) {
	f.record("get_document_group")
	if f.group != nil {
		return f.group, nil
	}
	return &domain.DocumentGroupDetail{VersionGroup: group}, nil
}

func (f *fakeBackend) SetLatestDocument(context.Context, string) (*domain.ActionResult, error) {
	f.record("set_latest")
	return f.actionResult, f.actionErr
}

func (f *fakeBackend) ListStoreFiles(_ context.Context, query domain.StoreFileQuery) (*domain.StoreFilePage, error) {
	f.record("list_store_files")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.storeQueries = append(f.storeQueries, query)
	if len(f.storePages) == 0 {
		return &domain.StoreFilePage{Page: query.Page, Limit: query.Limit, TotalPages: 1}, nil
	}
	page := f.storePages[0]
	if len(f.storePages) > 1 {
		f.storePages = f.storePages[1:]
	}
	return page, nil
}

func (f *fakeBackend) ListStores(context.Context) ([]domain.Store, error) {
	f.record("list_stores")
	return f.stores, nil
}

func (f *fakeBackend) UploadPath(_ context.Context, req domain.UploadPathRequest) (*domain.UploadResult, error) {
	f.record("upload_path")
	if f.uploadHook != nil {
		f.uploadHook()
	}
	f.mu.Lock()
	f.pathRequests = append(f.pathRequests, req)
	f.mu.Unlock()
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return f.uploadResult, nil
}

func (f *fakeBackend) UploadFiles(_ context.Context, files []domain.UploadFile, _ domain.StoreType, _ string) (*domain.UploadResult, error) {
	f.record("upload_files")
	if f.uploadHook != nil {
		f.uploadHook()
	}
	f.mu.Lock()
	if f.uploadedBody == nil {
		f.uploadedBody = map[string]string{}
	}
	for _, file := range files {
		data, _ := io.ReadAll(file.Content)
		f.uploadedBody[file.Name] = string(data)
	}
	f.mu.Unlock()
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return f.uploadResult, nil
}

type fakeCredentials struct {
	mu    sync.Mutex
	items map[string]domain.Credentials
}

func newFakeCredentials() *fakeCredentials {
	return &fakeCredentials{items: map[string]domain.Credentials{}}
}

func (f *fakeCredentials) Load(_ context.Context, id string) (*domain.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	creds, ok := f.items[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "fake.load", fmt.Errorf("browser %s", id))
	}
	return &creds, nil
}

func (f *fakeCredentials) Save(_ context.Context, id string, creds domain.Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[id] = creds
	return nil
}

func (f *fakeCredentials) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
	return nil
}

type fakeStaging struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newFakeStaging() *fakeStaging {
	return &fakeStaging{files: map[string][]byte{}}
}

func (f *fakeStaging) Save(_ context.Context, key string, data io.Reader) error {
	payload, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[key] = payload
	return nil
}

func (f *fakeStaging) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	payload, ok := f.files[key]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "fake.open", errors.New(key))
	}
	return io.NopCloser(bytes.NewReader(payload)), nil
}

func (f *fakeStaging) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, key)
	return nil
}

func (f *fakeStaging) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.files)
}

type fakeActivity struct {
	mu     sync.Mutex
	events []domain.ActivityEvent
}

func (f *fakeActivity) PublishActivity(_ context.Context, event domain.ActivityEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

type fakeTokens struct{ expired map[string]bool }

func (f fakeTokens) Expired(token string) bool { return f.expired[token] }

type harness struct {
	backend  *fakeBackend
	creds    *fakeCredentials
	staging  *fakeStaging
	activity *fakeActivity
	ws       *Workspace
}

func newHarness(backend *fakeBackend) *harness {
	if backend == nil {
		backend = &fakeBackend{}
	}
	h := &harness{
		backend:  backend,
		creds:    newFakeCredentials(),
		staging:  newFakeStaging(),
		activity: &fakeActivity{},
	}
	h.ws = NewWorkspace("browser-1", h.deps(), WorkspaceOptions{})
	return h
}

func (h *harness) deps() Dependencies {
	return Dependencies{
		Backend:     h.backend,
		Credentials: h.creds,
		Staging:     h.staging,
		Activity:    h.activity,
	}
}

// loggedIn puts the workspace in a logged-in state without backend calls.
func (h *harness) loggedIn(role string) *harness {
	user := domain.User{ID: "u1", Username: "kim", Role: role}
	h.ws.mu.Lock()
	h.ws.state.Auth = AuthState{Token: "tok", User: &user}
	h.ws.mu.Unlock()
	return h
}

func lastToast(t *testing.T, ws *Workspace) Toast {
	t.Helper()
	toasts := ws.Toasts().Drain()
	if len(toasts) == 0 {
		t.Fatalf("expected a toast, got none")
	}
	return toasts[len(toasts)-1]
}
