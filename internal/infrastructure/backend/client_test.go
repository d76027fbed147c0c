package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gkisanet/2026.gemini-file-search/internal/core/domain"
	"github.com/gkisanet/2026.gemini-file-search/internal/infrastructure/resilience"
)

type recordedCall struct {
	operation string
	outcome   string
}

type fakeObserver struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (f *fakeObserver) ObserveBackendCall(operation, outcome string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{operation: operation, outcome: outcome})
}

func TestLoginSendsCredentialsWithoutToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("login must not carry a token")
		}
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if payload["username"] != "kim" || payload["password"] != "pw" {
			t.Errorf("unexpected payload: %v", payload)
		}
		_, _ = w.Write([]byte(`{"token":"jwt","user":{"user_id":"u1","username":"kim","role":"admin"}}`))
	}))
	defer server.Close()

	client := New(server.URL, Options{APIPrefix: "/api"})
	result, err := client.Login(context.Background(), "kim", "pw")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.Token != "jwt" || !result.User.IsAdmin() || result.User.ID != "u1" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestAuthorizedCallsCarryBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		_, _ = w.Write([]byte(`{"sessions":[{"id":"s1","title":"","updated_at":"2026-01-02 03:04:05"}]}`))
	}))
	defer server.Close()

	sessions, err := New(server.URL, Options{APIPrefix: "api"}).WithToken("tok").ListSessions(context.Background())
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessions) != 1 || sessions[0].DisplayTitle() != domain.UntitledSession {
		t.Fatalf("unexpected sessions: %+v", sessions)
	}
	if sessions[0].UpdatedAt.Raw != "2026-01-02 03:04:05" {
		t.Fatalf("unexpected timestamp: %+v", sessions[0].UpdatedAt)
	}
}

func TestUnauthorizedMapsToDomainKind(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"토큰이 만료되었습니다"}`))
	}))
	defer server.Close()

	_, err := New(server.URL, Options{}).WithToken("old").ListSessions(context.Background())
	if !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestServerDetailBecomesUserMessage(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
		kind   error
	}{
		{"fastapi detail", http.StatusNotFound, `{"detail":"세션을 찾을 수 없습니다"}`, "세션을 찾을 수 없습니다", domain.ErrNotFound},
		{"error field", http.StatusBadRequest, `{"error":"bad path"}`, "bad path", domain.ErrInvalidInput},
		{"validation list", http.StatusUnprocessableEntity, `{"detail":[{"msg":"field required"},{"msg":"too long"}]}`, "field required; too long", domain.ErrInvalidInput},
		{"no message", http.StatusBadRequest, `{}`, domain.GenericRequestFailure, domain.ErrInvalidInput},
		{"not json", http.StatusBadGateway, `upstream down`, domain.GenericRequestFailure, domain.ErrTemporary},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			_, err := New(server.URL, Options{}).WithToken("t").GetSession(context.Background(), "s1")
			if err == nil {
				t.Fatalf("expected error")
			}
			if got := domain.UserMessage(err); got != tc.want {
				t.Fatalf("UserMessage() = %q, want %q", got, tc.want)
			}
			if !domain.IsKind(err, tc.kind) {
				t.Fatalf("expected kind %v, got %v", tc.kind, err)
			}
			var reqErr *domain.RequestError
			if !errors.As(err, &reqErr) || reqErr.Status != tc.status {
				t.Fatalf("expected RequestError with status %d, got %v", tc.status, err)
			}
		})
	}
}

func TestUnreachableBackendIsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := New(url, Options{Timeout: time.Second}).WithToken("t").ListSessions(context.Background())
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary, got %v", err)
	}
	if domain.UserMessage(err) != backendUnavailable {
		t.Fatalf("unexpected message: %q", domain.UserMessage(err))
	}
}

func TestStoreFilesQueryParameters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/admin/store_files" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if q.Get("page") != "2" || q.Get("limit") != "20" || q.Get("search") != "보고서" || q.Get("category") != "규정" || q.Get("store_type") != "correction" {
			t.Errorf("unexpected query: %v", q)
		}
		_, _ = w.Write([]byte(`{"total":45,"page":2,"files":[{"file_name":"a.pdf","file_size":1536}]}`))
	}))
	defer server.Close()

	page, err := New(server.URL, Options{}).WithToken("t").ListStoreFiles(context.Background(), domain.StoreFileQuery{
		Page: 2, Limit: 20, Search: "보고서", Category: "규정", StoreType: domain.StoreCorrection,
	})
	if err != nil {
		t.Fatalf("ListStoreFiles() error = %v", err)
	}
	if page.TotalPages != 3 || page.Limit != 20 {
		t.Fatalf("expected derived paging, got %+v", page)
	}
}

func TestDocumentsDecodeIntegerLatestFlag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("search") != "manual" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"groups":[{"version_group":"manual","documents":[{"id":"d1","file_name":"manual_20250101.pdf","version_date":"20250101","is_latest":1}],"latest":{"id":"d1","is_latest":1}}],"total_documents":1,"total_groups":1}`))
	}))
	defer server.Close()

	list, err := New(server.URL, Options{}).WithToken("t").ListDocuments(context.Background(), "manual")
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	doc := list.Groups[0].Documents[0]
	if !bool(doc.IsLatest) || doc.VersionDateLabel() != "2025-01-01" {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if list.Groups[0].Latest == nil || list.Groups[0].Latest.ID != "d1" {
		t.Fatalf("unexpected latest: %+v", list.Groups[0].Latest)
	}
}

func TestSetLatestUsesPut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.EscapedPath() != "/admin/documents/d%2F1/set-latest" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.EscapedPath())
		}
		_, _ = w.Write([]byte(`{"message":"지정되었습니다"}`))
	}))
	defer server.Close()

	result, err := New(server.URL, Options{}).WithToken("t").SetLatestDocument(context.Background(), "d/1")
	if err != nil {
		t.Fatalf("SetLatestDocument() error = %v", err)
	}
	if result.Message != "지정되었습니다" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestUploadFilesSendsMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/upload_client" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		if r.FormValue("store_type") != "primary" || r.FormValue("version_group") != "manual" {
			t.Errorf("unexpected fields: %v", r.MultipartForm.Value)
		}
		files := r.MultipartForm.File["files"]
		if len(files) != 2 || files[0].Filename != "a.txt" || files[1].Filename != "b.txt" {
			t.Errorf("unexpected files: %+v", files)
		}
		f, _ := files[0].Open()
		data, _ := io.ReadAll(f)
		if string(data) != "alpha" {
			t.Errorf("unexpected content %q", data)
		}
		_, _ = w.Write([]byte(`{"message":"2/2개 파일 업로드 완료","results":[{"success":true,"file":"a.txt"},{"success":true,"file":"b.txt"}]}`))
	}))
	defer server.Close()

	result, err := New(server.URL, Options{}).WithToken("t").UploadFiles(context.Background(), []domain.UploadFile{
		{Name: "a.txt", Content: strings.NewReader("alpha")},
		{Name: "b.txt", Content: strings.NewReader("beta")},
	}, domain.StorePrimary, "manual")
	if err != nil {
		t.Fatalf("UploadFiles() error = %v", err)
	}
	if len(result.Results) != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestCallsAreObservedThroughExecutor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"session_id":"s9"}`))
	}))
	defer server.Close()

	observer := &fakeObserver{}
	client := New(server.URL, Options{
		Observer:           observer,
		ResilienceExecutor: resilience.NewExecutor(resilience.Config{RetryMaxAttempts: 1, BreakerEnabled: true}),
	})
	api := client.WithToken("t")
	if id, err := api.CreateSession(context.Background()); err != nil || id != "s9" {
		t.Fatalf("CreateSession() = %q, %v", id, err)
	}
	if err := api.DeleteSession(context.Background(), "s9"); err == nil {
		t.Fatalf("expected error")
	}

	want := []recordedCall{{"create_session", "ok"}, {"delete_session", "server_error"}}
	if len(observer.calls) != len(want) {
		t.Fatalf("observed %+v, want %+v", observer.calls, want)
	}
	for i := range want {
		if observer.calls[i] != want[i] {
			t.Fatalf("observed %+v, want %+v", observer.calls, want)
		}
	}
}
