// Package view turns workspace snapshots into view-models and renders them.
package view

import (
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"time"

	"github.com/gkisanet/2026.gemini-file-search/internal/core/domain"
	"github.com/gkisanet/2026.gemini-file-search/internal/core/usecase"
)

// Seconds between no-script reloads while an answer or upload is pending.
const pendingRefreshSeconds = 2

type Page struct {
	Title   string
	User    *UserView
	Toasts  []ToastView
	Refresh int
}

type UserView struct {
	Username string
	Role     string
	Admin    bool
}

type ToastView struct {
	Kind      string
	Message   string
	TTLMillis int64
}

type LoginView struct {
	Page
	Error string
}

type ChatView struct {
	Page
	Sidebar    SidebarView
	Transcript TranscriptView
	Feedback   FeedbackModalView
}

type SidebarView struct {
	Groups []SessionGroupView
	Empty  bool
}

type SessionGroupView struct {
	Label    string
	Sessions []SessionItemView
}

type SessionItemView struct {
	ID     string
	Title  string
	Active bool
}

type TranscriptView struct {
	SessionID string
	Messages  []MessageView
	Empty     bool
	Typing    bool
}

type MessageView struct {
	Index      int
	Role       string
	HTML       template.HTML
	Citations  []string
	Reportable bool
}

type FeedbackModalView struct {
	Open        bool
	TargetIndex int
}

func newPage(title string, snap usecase.Snapshot) Page {
	page := Page{Title: title}
	if user := snap.State.Auth.User; user != nil && snap.State.Auth.LoggedIn() {
		page.User = &UserView{Username: user.Username, Role: user.Role, Admin: user.IsAdmin()}
	}
	page.Toasts = NewToasts(snap.Toasts, snap.Now)
	return page
}

// NewToasts converts drained toasts; TTLMillis is what is left of each
// toast's lifetime at now.
func NewToasts(toasts []usecase.Toast, now time.Time) []ToastView {
	out := make([]ToastView, 0, len(toasts))
	for _, toast := range toasts {
		out = append(out, ToastView{
			Kind:      string(toast.Kind),
			Message:   toast.Message,
			TTLMillis: toast.Remaining(now).Milliseconds(),
		})
	}
	return out
}

func NewLoginView(snap usecase.Snapshot) LoginView {
	return LoginView{
		Page:  newPage("로그인", snap),
		Error: snap.State.Auth.LoginError,
	}
}

func NewChatView(snap usecase.Snapshot) ChatView {
	chat := snap.State.Chat
	view := ChatView{
		Page:       newPage("문서 검색 챗봇", snap),
		Sidebar:    newSidebar(chat, snap.Now, snap.Location),
		Transcript: NewTranscript(chat),
		Feedback:   FeedbackModalView{Open: chat.Feedback.Open, TargetIndex: chat.Feedback.TargetIndex},
	}
	if chat.Pending > 0 {
		view.Refresh = pendingRefreshSeconds
	}
	return view
}

func newSidebar(chat usecase.ChatState, now time.Time, loc *time.Location) SidebarView {
	if len(chat.Sessions) == 0 {
		return SidebarView{Empty: true}
	}
	groups := usecase.GroupSessions(chat.Sessions, now, loc)
	out := SidebarView{Groups: make([]SessionGroupView, 0, len(groups))}
	for _, group := range groups {
		items := make([]SessionItemView, 0, len(group.Sessions))
		for _, s := range group.Sessions {
			items = append(items, SessionItemView{
				ID:     s.ID,
				Title:  s.DisplayTitle(),
				Active: s.ID == chat.CurrentSessionID,
			})
		}
		out.Groups = append(out.Groups, SessionGroupView{Label: group.Bucket.Label(), Sessions: items})
	}
	return out
}

// NewTranscript is the message list with its typing indicator.
func NewTranscript(chat usecase.ChatState) TranscriptView {
	view := TranscriptView{
		SessionID: chat.CurrentSessionID,
		Typing:    chat.Pending > 0,
		Empty:     chat.CurrentSessionID == "" || len(chat.Messages) == 0,
	}
	for i, msg := range chat.Messages {
		labels := make([]string, 0, len(msg.Citations))
		for _, c := range msg.Citations {
			labels = append(labels, c.Label())
		}
		view.Messages = append(view.Messages, MessageView{
			Index:      i,
			Role:       string(msg.Role),
			HTML:       Markdown(msg.Content),
			Citations:  labels,
			Reportable: msg.Role == domain.RoleAssistant,
		})
	}
	return view
}

type AdminView struct {
	Page
	Feedback  FeedbackPanel
	Reject    RejectModalView
	Documents DocumentPanel
	Store     StorePanel
	Stores    []StoreCard
	Upload    UploadPanel
}

type FeedbackPanel struct {
	Filters []LinkView
	Stats   domain.FeedbackStats
	Cards   []CorrectionCard
	Empty   bool
}

type LinkView struct {
	Label  string
	URL    string
	Active bool
}

type CorrectionCard struct {
	ID               string
	StatusClass      string
	StatusLabel      string
	SubmittedBy      string
	SubmittedOn      string
	OriginalQuestion string
	AIWrongAnswer    string
	UserCorrection   string
	ExtractedFact    string
	ConfidencePct    int
	Pending          bool
	RejectReason     string
}

type RejectModalView struct {
	Open     bool
	TargetID string
}

type DocumentPanel struct {
	Search         string
	TotalGroups    int
	TotalDocuments int
	Groups         []GroupCard
	Empty          bool
	Detail         *GroupDetailView
}

type GroupCard struct {
	Name         string
	DetailURL    string
	VersionCount int
	Latest       string
	Versions     []VersionRow
}

type VersionRow struct {
	ID       string
	FileName string
	Date     string
	Uploader string
	IsLatest bool
}

type GroupDetailView struct {
	Name     string
	Versions []VersionRow
}

type StorePanel struct {
	Search     string
	Categories []OptionView
	StoreTypes []OptionView
	Summary    string
	Rows       []StoreFileRow
	Empty      bool
	Pages      []PageLinkView
}

type OptionView struct {
	Value    string
	Label    string
	Selected bool
}

type StoreFileRow struct {
	Number     int
	FileName   string
	Category   string
	StoreLabel string
	StoreClass string
	Size       string
	Date       string
}

type PageLinkView struct {
	Label    string
	URL      string
	Active   bool
	Ellipsis bool
}

type StoreCard struct {
	Name          string
	DocumentCount int
	Documents     []string
}

type UploadPanel struct {
	Path           string
	VersionGroup   string
	StoreTypes     []OptionView
	Files          []StagedFileView
	SelectionLabel string
	Busy           bool
	Failed         bool
	Status         string
	ButtonLabel    string
}

type StagedFileView struct {
	Name string
	Size string
}

var feedbackFilters = []struct {
	status domain.CorrectionStatus
	label  string
}{
	{"", "전체"},
	{domain.CorrectionPending, "대기"},
	{domain.CorrectionApproved, "승인"},
	{domain.CorrectionRejected, "거절"},
}

func NewAdminView(snap usecase.Snapshot) AdminView {
	admin := snap.State.Admin
	view := AdminView{
		Page:      newPage("관리자 대시보드", snap),
		Feedback:  NewFeedbackPanel(admin, snap.Location),
		Reject:    RejectModalView{Open: admin.Reject.Open, TargetID: admin.Reject.TargetID},
		Documents: NewDocumentPanel(admin),
		Store:     NewStorePanel(admin.Store),
		Upload:    NewUploadPanel(admin.Upload),
	}
	for _, store := range admin.Stores {
		card := StoreCard{Name: firstNonEmpty(store.DisplayName, store.Name), DocumentCount: store.DocumentCount}
		for _, doc := range store.Documents {
			card.Documents = append(card.Documents, firstNonEmpty(doc.DisplayName, doc.Name))
		}
		view.Stores = append(view.Stores, card)
	}
	if admin.Upload.Busy {
		view.Refresh = pendingRefreshSeconds
	}
	return view
}

func NewFeedbackPanel(admin usecase.AdminState, loc *time.Location) FeedbackPanel {
	panel := FeedbackPanel{}
	for _, f := range feedbackFilters {
		target := "/admin/feedbacks"
		if f.status != "" {
			target += "?status=" + url.QueryEscape(string(f.status))
		}
		panel.Filters = append(panel.Filters, LinkView{
			Label:  f.label,
			URL:    target,
			Active: f.status == admin.FeedbackFilter,
		})
	}
	if admin.Feedback == nil {
		panel.Empty = true
		return panel
	}
	panel.Stats = admin.Feedback.Stats
	panel.Empty = len(admin.Feedback.Corrections) == 0
	for _, c := range admin.Feedback.Corrections {
		card := CorrectionCard{
			ID:               c.ID,
			StatusClass:      string(c.Status),
			StatusLabel:      correctionStatusLabel(c.Status),
			SubmittedBy:      c.SubmittedUsername,
			SubmittedOn:      localDate(c.CreatedAt, loc),
			OriginalQuestion: c.OriginalQuestion,
			AIWrongAnswer:    c.AIWrongAnswer,
			UserCorrection:   c.UserCorrection,
			ExtractedFact:    c.ExtractedFact,
			ConfidencePct:    domain.ConfidencePercent(c.Confidence),
			Pending:          c.Status == domain.CorrectionPending,
		}
		if c.Status == domain.CorrectionRejected {
			card.RejectReason = c.RejectReason
		}
		panel.Cards = append(panel.Cards, card)
	}
	return panel
}

func correctionStatusLabel(status domain.CorrectionStatus) string {
	switch status {
	case domain.CorrectionPending:
		return "⏳ 대기"
	case domain.CorrectionApproved:
		return "✅ 승인"
	default:
		return "❌ 거절"
	}
}

func NewDocumentPanel(admin usecase.AdminState) DocumentPanel {
	panel := DocumentPanel{Search: admin.DocSearch, Empty: true}
	if list := admin.Documents; list != nil {
		panel.TotalGroups = list.TotalGroups
		panel.TotalDocuments = list.TotalDocuments
		panel.Empty = len(list.Groups) == 0
		for _, group := range list.Groups {
			card := GroupCard{
				Name:         group.VersionGroup,
				DetailURL:    "/admin/documents/group/" + url.PathEscape(group.VersionGroup),
				VersionCount: len(group.Documents),
				Versions:     versionRows(group.Documents),
			}
			if group.Latest != nil {
				card.Latest = group.Latest.FileName
			}
			panel.Groups = append(panel.Groups, card)
		}
	}
	if detail := admin.Group; detail != nil {
		panel.Detail = &GroupDetailView{Name: detail.VersionGroup, Versions: versionRows(detail.Documents)}
	}
	return panel
}

func versionRows(docs []domain.Document) []VersionRow {
	rows := make([]VersionRow, 0, len(docs))
	for _, d := range docs {
		rows = append(rows, VersionRow{
			ID:       d.ID,
			FileName: d.FileName,
			Date:     d.VersionDateLabel(),
			Uploader: firstNonEmpty(d.UploadedUsername, "-"),
			IsLatest: bool(d.IsLatest),
		})
	}
	return rows
}

var storeTypeOptions = []OptionView{
	{Value: "", Label: "전체 Store"},
	{Value: string(domain.StorePrimary), Label: "원본"},
	{Value: string(domain.StoreCorrection), Label: "교정"},
}

func NewStorePanel(store usecase.StoreBrowser) StorePanel {
	query := store.Query
	panel := StorePanel{
		Search:     query.Search,
		StoreTypes: options(storeTypeOptions, string(query.StoreType)),
		Empty:      true,
	}

	categories := []OptionView{{Value: "", Label: "전체 카테고리"}}
	for _, c := range store.Categories {
		categories = append(categories, OptionView{
			Value: c.FilterValue(),
			Label: fmt.Sprintf("%s (%d)", c.Name, c.Count),
		})
	}
	panel.Categories = options(categories, query.Category)

	result := store.Result
	if result == nil {
		return panel
	}
	panel.Summary = fmt.Sprintf("총 %d개 파일 · %d/%d 페이지", result.Total, result.Page, result.TotalPages)
	panel.Empty = len(result.Files) == 0
	start := (result.Page - 1) * result.Limit
	for i, f := range result.Files {
		row := StoreFileRow{
			Number:   start + i + 1,
			FileName: f.FileName,
			Category: firstNonEmpty(f.Category, domain.Uncategorized),
			Size:     "-",
			Date:     f.CreatedAt.DatePart(),
		}
		if f.FileSize > 0 {
			row.Size = domain.FormatFileSize(f.FileSize)
		}
		if f.StoreType == domain.StorePrimary {
			row.StoreLabel, row.StoreClass = "원본", "primary"
		} else {
			row.StoreLabel, row.StoreClass = "교정", "correction"
		}
		panel.Rows = append(panel.Rows, row)
	}
	panel.Pages = pageLinks(result.Page, result.TotalPages)
	return panel
}

func pageLinks(current, total int) []PageLinkView {
	items := domain.PageWindow(current, total)
	links := make([]PageLinkView, 0, len(items))
	for _, item := range items {
		link := PageLinkView{URL: "/admin/store_files?page=" + strconv.Itoa(item.Page), Active: item.Active}
		switch item.Kind {
		case domain.PageItemPrev:
			link.Label = "◀"
		case domain.PageItemNext:
			link.Label = "▶"
		case domain.PageItemEllipsis:
			link = PageLinkView{Label: "…", Ellipsis: true}
		default:
			link.Label = strconv.Itoa(item.Page)
		}
		links = append(links, link)
	}
	return links
}

const noSelection = "선택된 파일이 없습니다. (버튼 선택 또는 우측 경로 입력)"

func NewUploadPanel(upload usecase.UploadState) UploadPanel {
	panel := UploadPanel{
		Path:         upload.Path,
		VersionGroup: upload.VersionGroup,
		StoreTypes:   options(storeTypeOptions[1:], string(upload.StoreType)),
		Busy:         upload.Busy,
		Failed:       upload.Status == usecase.UploadFailed,
		Status:       upload.Message,
		ButtonLabel:  "🚀 업로드",
	}
	if upload.Busy {
		panel.ButtonLabel = "⏳ 업로드 중..."
	}
	for _, f := range upload.Selected {
		panel.Files = append(panel.Files, StagedFileView{Name: f.Name, Size: domain.FormatFileSize(f.Size)})
	}
	if len(upload.Selected) == 0 {
		panel.SelectionLabel = noSelection
	} else {
		panel.SelectionLabel = fmt.Sprintf("%d개 파일이 선택됨", len(upload.Selected))
	}
	return panel
}

// options marks the first option carrying value as selected.
func options(base []OptionView, value string) []OptionView {
	out := make([]OptionView, len(base))
	copy(out, base)
	for i := range out {
		if out[i].Value == value {
			out[i].Selected = true
			break
		}
	}
	return out
}

func localDate(ts domain.Timestamp, loc *time.Location) string {
	t, ok := ts.In(loc)
	if !ok {
		return ts.DatePart()
	}
	return t.Format("2006. 1. 2.")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
