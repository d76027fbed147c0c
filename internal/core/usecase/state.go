package usecase

import (
	"strconv"
	"time"

	"github.com/gkisanet/2026.gemini-file-search/internal/core/domain"
)

// State is everything one browser sees. It is owned by a Workspace and only
// mutated under the workspace lock; views receive copies.
type State struct {
	Auth  AuthState
	Chat  ChatState
	Admin AdminState
}

type AuthState struct {
	Token      string
	User       *domain.User
	LoginError string
}

func (a AuthState) LoggedIn() bool {
	return a.Token != "" && a.User != nil
}

func (a AuthState) IsAdmin() bool {
	return a.LoggedIn() && a.User.IsAdmin()
}

type ChatState struct {
	Sessions         []domain.Session
	CurrentSessionID string
	Messages         []domain.Message
	// Pending counts chat requests whose reply will land on this transcript.
	Pending  int
	Feedback FeedbackModal

	// generation changes whenever the active transcript is replaced; responses
	// carrying an older generation are dropped.
	generation uint64
	// selecting identifies the latest SelectSession call; only its history
	// may be installed.
	selecting uint64
}

type FeedbackModal struct {
	Open        bool
	TargetIndex int
}

type AdminState struct {
	FeedbackFilter domain.CorrectionStatus
	Feedback       *domain.FeedbackList
	Reject         RejectModal

	DocSearch string
	Documents *domain.DocumentList
	Group     *domain.DocumentGroupDetail

	Store  StoreBrowser
	Stores []domain.Store

	Upload UploadState
}

type RejectModal struct {
	Open     bool
	TargetID string
}

type StoreBrowser struct {
	Query      domain.StoreFileQuery
	Result     *domain.StoreFilePage
	Categories []domain.CategoryCount

	categoriesLoaded bool
}

type UploadStatusKind string

const (
	UploadIdle    UploadStatusKind = "idle"
	UploadRunning UploadStatusKind = "running"
	UploadFailed  UploadStatusKind = "failed"
)

type UploadState struct {
	Path         string
	StoreType    domain.StoreType
	VersionGroup string
	Selected     []domain.StagedFile

	Busy      bool
	StartedAt time.Time
	Elapsed   time.Duration
	Status    UploadStatusKind
	Message   string
}

// TotalSelected is the staged file count label, "?" for server paths.
func (u UploadState) TotalSelected() string {
	if len(u.Selected) == 0 {
		return "?"
	}
	return strconv.Itoa(len(u.Selected))
}

func (s State) clone() State {
	out := s
	if s.Auth.User != nil {
		user := *s.Auth.User
		out.Auth.User = &user
	}
	out.Chat.Sessions = append([]domain.Session(nil), s.Chat.Sessions...)
	out.Chat.Messages = make([]domain.Message, len(s.Chat.Messages))
	for i, msg := range s.Chat.Messages {
		msg.Citations = append([]domain.Citation(nil), msg.Citations...)
		out.Chat.Messages[i] = msg
	}
	out.Admin.Store.Categories = append([]domain.CategoryCount(nil), s.Admin.Store.Categories...)
	out.Admin.Stores = append([]domain.Store(nil), s.Admin.Stores...)
	out.Admin.Upload.Selected = append([]domain.StagedFile(nil), s.Admin.Upload.Selected...)
	// Response payloads are replaced wholesale, never mutated in place, so the
	// pointers can be shared.
	return out
}
