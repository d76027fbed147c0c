package ports

import (
	"context"
	"io"

	"github.com/gkisanet/2026.gemini-file-search/internal/core/domain"
)

// Backend is the entry point to the chat backend. Login is the only
// unauthenticated call; everything else goes through an authorized BackendAPI.
type Backend interface {
	Login(ctx context.Context, username, password string) (*domain.LoginResult, error)
	WithToken(token string) BackendAPI
}

// BackendAPI is the bearer-authorized backend surface.
type BackendAPI interface {
	SessionAPI
	FeedbackAPI
	AdminAPI
}

// SessionAPI serves the chat screen.
type SessionAPI interface {
	ListSessions(ctx context.Context) ([]domain.Session, error)
	CreateSession(ctx context.Context) (string, error)
	GetSession(ctx context.Context, sessionID string) (*domain.SessionDetail, error)
	DeleteSession(ctx context.Context, sessionID string) error
	Chat(ctx context.Context, sessionID, message string) (*domain.ChatReply, error)
}

// FeedbackAPI accepts user corrections for assistant answers.
type FeedbackAPI interface {
	SubmitFeedback(ctx context.Context, submission domain.FeedbackSubmission) (*domain.FeedbackReceipt, error)
}

// AdminAPI serves the admin dashboard.
type AdminAPI interface {
	ListFeedbacks(ctx context.Context, status domain.CorrectionStatus) (*domain.FeedbackList, error)
	ApproveFeedback(ctx context.Context, correctionID string) (*domain.ActionResult, error)
	RejectFeedback(ctx context.Context, correctionID, reason string) (*domain.ActionResult, error)

	ListDocuments(ctx context.Context, search string) (*domain.DocumentList, error)
	GetDocumentGroup(ctx context.Context, versionGroup string) (*domain.DocumentGroupDetail, error)
	SetLatestDocument(ctx context.Context, documentID string) (*domain.ActionResult, error)

	ListStoreFiles(ctx context.Context, query domain.StoreFileQuery) (*domain.StoreFilePage, error)
	ListStores(ctx context.Context) ([]domain.Store, error)

	UploadPath(ctx context.Context, req domain.UploadPathRequest) (*domain.UploadResult, error)
	UploadFiles(ctx context.Context, files []domain.UploadFile, storeType domain.StoreType, versionGroup string) (*domain.UploadResult, error)
}

// CredentialStore durably keeps a browser's token/user pair across console restarts.
type CredentialStore interface {
	Load(ctx context.Context, browserID string) (*domain.Credentials, error)
	Save(ctx context.Context, browserID string, creds domain.Credentials) error
	Delete(ctx context.Context, browserID string) error
}

// FileStaging holds browser-selected files until they are uploaded.
type FileStaging interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// ActivityPublisher announces admin actions taken in the console.
type ActivityPublisher interface {
	PublishActivity(ctx context.Context, event domain.ActivityEvent) error
}

// TokenInspector reports whether a stored bearer token is already expired.
type TokenInspector interface {
	Expired(token string) bool
}
