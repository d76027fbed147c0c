package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gkisanet/2026.gemini-file-search/internal/core/domain"
	"github.com/gkisanet/2026.gemini-file-search/internal/core/ports"
	"github.com/gkisanet/2026.gemini-file-search/internal/infrastructure/resilience"
)

// CallObserver receives one observation per backend call.
type CallObserver interface {
	ObserveBackendCall(operation, outcome string, duration time.Duration)
}

type Options struct {
	APIPrefix          string
	Timeout            time.Duration
	HTTPClient         *http.Client
	ResilienceExecutor *resilience.Executor
	Observer           CallObserver
}

// Client is the only way the console talks to the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
	observer   CallObserver
}

func New(baseURL string, options Options) *Client {
	prefix := strings.Trim(options.APIPrefix, "/")
	base := strings.TrimRight(baseURL, "/")
	if prefix != "" {
		base += "/" + prefix
	}

	httpClient := options.HTTPClient
	if httpClient == nil {
		timeout := options.Timeout
		if timeout <= 0 {
			timeout = 600 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		executor:   options.ResilienceExecutor,
		observer:   options.Observer,
	}
}

func (c *Client) Login(ctx context.Context, username, password string) (*domain.LoginResult, error) {
	var out domain.LoginResult
	req := map[string]string{"username": username, "password": password}
	if err := c.doJSON(ctx, "login", http.MethodPost, "/auth/login", "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) WithToken(token string) ports.BackendAPI {
	return &Session{client: c, token: token}
}

// Session is a Client bound to one bearer token.
type Session struct {
	client *Client
	token  string
}

func (s *Session) do(ctx context.Context, operation, method, path string, payload, out any) error {
	return s.client.doJSON(ctx, operation, method, path, s.token, payload, out)
}

func (s *Session) ListSessions(ctx context.Context) ([]domain.Session, error) {
	var out struct {
		Sessions []domain.Session `json:"sessions"`
	}
	if err := s.do(ctx, "list_sessions", http.MethodGet, "/sessions", nil, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

func (s *Session) CreateSession(ctx context.Context) (string, error) {
	var out struct {
		SessionID string `json:"session_id"`
	}
	if err := s.do(ctx, "create_session", http.MethodPost, "/sessions", nil, &out); err != nil {
		return "", err
	}
	if out.SessionID == "" {
		return "", fmt.Errorf("create session: empty session_id in response")
	}
	return out.SessionID, nil
}

func (s *Session) GetSession(ctx context.Context, sessionID string) (*domain.SessionDetail, error) {
	var out domain.SessionDetail
	if err := s.do(ctx, "get_session", http.MethodGet, "/sessions/"+url.PathEscape(sessionID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) DeleteSession(ctx context.Context, sessionID string) error {
	return s.do(ctx, "delete_session", http.MethodDelete, "/sessions/"+url.PathEscape(sessionID), nil, nil)
}

func (s *Session) Chat(ctx context.Context, sessionID, message string) (*domain.ChatReply, error) {
	var out domain.ChatReply
	path := "/sessions/" + url.PathEscape(sessionID) + "/chat"
	if err := s.do(ctx, "chat", http.MethodPost, path, map[string]string{"message": message}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) SubmitFeedback(ctx context.Context, submission domain.FeedbackSubmission) (*domain.FeedbackReceipt, error) {
	var out domain.FeedbackReceipt
	if err := s.do(ctx, "submit_feedback", http.MethodPost, "/feedback", submission, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) ListFeedbacks(ctx context.Context, status domain.CorrectionStatus) (*domain.FeedbackList, error) {
	path := "/admin/feedbacks"
	if status != "" {
		path += "?status=" + url.QueryEscape(string(status))
	}
	var out domain.FeedbackList
	if err := s.do(ctx, "list_feedbacks", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) ApproveFeedback(ctx context.Context, correctionID string) (*domain.ActionResult, error) {
	var out domain.ActionResult
	path := "/admin/feedbacks/" + url.PathEscape(correctionID) + "/approve"
	if err := s.do(ctx, "approve_feedback", http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) RejectFeedback(ctx context.Context, correctionID, reason string) (*domain.ActionResult, error) {
	var out domain.ActionResult
	path := "/admin/feedbacks/" + url.PathEscape(correctionID) + "/reject"
	if err := s.do(ctx, "reject_feedback", http.MethodPost, path, map[string]string{"reason": reason}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) ListDocuments(ctx context.Context, search string) (*domain.DocumentList, error) {
	path := "/admin/documents"
	if search != "" {
		path += "?search=" + url.QueryEscape(search)
	}
	var out domain.DocumentList
	if err := s.do(ctx, "list_documents", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) GetDocumentGroup(ctx context.Context, versionGroup string) (*domain.DocumentGroupDetail, error) {
	var out domain.DocumentGroupDetail
	path := "/admin/documents/group/" + url.PathEscape(versionGroup)
	if err := s.do(ctx, "get_document_group", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) SetLatestDocument(ctx context.Context, documentID string) (*domain.ActionResult, error) {
	var out domain.ActionResult
	path := "/admin/documents/" + url.PathEscape(documentID) + "/set-latest"
	if err := s.do(ctx, "set_latest", http.MethodPut, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) ListStoreFiles(ctx context.Context, query domain.StoreFileQuery) (*domain.StoreFilePage, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit < 1 {
		limit = domain.DefaultStoreFileLimit
	}
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(limit))
	if query.Search != "" {
		params.Set("search", query.Search)
	}
	if query.Category != "" {
		params.Set("category", query.Category)
	}
	if query.StoreType != "" {
		params.Set("store_type", string(query.StoreType))
	}

	var out domain.StoreFilePage
	if err := s.do(ctx, "list_store_files", http.MethodGet, "/admin/store_files?"+params.Encode(), nil, &out); err != nil {
		return nil, err
	}
	if out.Limit <= 0 {
		out.Limit = limit
	}
	if out.TotalPages <= 0 {
		out.TotalPages = domain.TotalPages(out.Total, out.Limit)
	}
	if out.Page <= 0 {
		out.Page = page
	}
	return &out, nil
}

func (s *Session) ListStores(ctx context.Context) ([]domain.Store, error) {
	var out struct {
		Stores []domain.Store `json:"stores"`
	}
	if err := s.do(ctx, "list_stores", http.MethodGet, "/admin/stores", nil, &out); err != nil {
		return nil, err
	}
	return out.Stores, nil
}

func (s *Session) UploadPath(ctx context.Context, req domain.UploadPathRequest) (*domain.UploadResult, error) {
	var out domain.UploadResult
	if err := s.do(ctx, "upload_path", http.MethodPost, "/admin/upload", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) UploadFiles(ctx context.Context, files []domain.UploadFile, storeType domain.StoreType, versionGroup string) (*domain.UploadResult, error) {
	if len(files) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "backend.upload_files", fmt.Errorf("no files"))
	}
	var out domain.UploadResult
	if err := s.client.doMultipart(ctx, "upload_files", "/admin/upload_client", s.token, files, map[string]string{
		"store_type":    string(storeType),
		"version_group": versionGroup,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
