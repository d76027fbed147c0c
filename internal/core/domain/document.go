package domain

import (
	"io"
	"strings"
)

type StoreType string

const (
	StorePrimary    StoreType = "primary"
	StoreCorrection StoreType = "correction"

	// Uncategorized is the backend's bucket name for files without a category.
	Uncategorized = "미분류"
)

func ParseStoreType(raw string) (StoreType, error) {
	switch st := StoreType(strings.TrimSpace(raw)); st {
	case StorePrimary, StoreCorrection:
		return st, nil
	case "":
		return StorePrimary, nil
	default:
		return "", NewInputError("store_type", "알 수 없는 Store 유형입니다: "+raw)
	}
}

type Document struct {
	ID               string    `json:"id"`
	FileName         string    `json:"file_name"`
	DisplayName      string    `json:"display_name,omitempty"`
	VersionGroup     string    `json:"version_group"`
	VersionDate      string    `json:"version_date,omitempty"`
	IsLatest         Flag      `json:"is_latest"`
	StoreType        StoreType `json:"store_type,omitempty"`
	UploadedUsername string    `json:"uploaded_username,omitempty"`
	CreatedAt        Timestamp `json:"created_at"`
}

// VersionDateLabel renders YYYYMMDD as YYYY-MM-DD.
func (d Document) VersionDateLabel() string {
	date := strings.TrimSpace(d.VersionDate)
	if date == "" {
		return "날짜 없음"
	}
	if len(date) != 8 {
		return date
	}
	return date[:4] + "-" + date[4:6] + "-" + date[6:8]
}

// VersionGroup is one logical document. The backend keeps at most one latest
// version per group; the console does not enforce it.
type VersionGroup struct {
	VersionGroup string     `json:"version_group"`
	Documents    []Document `json:"documents"`
	Latest       *Document  `json:"latest"`
}

type DocumentList struct {
	Groups         []VersionGroup `json:"groups"`
	TotalDocuments int            `json:"total_documents"`
	TotalGroups    int            `json:"total_groups"`
}

type DocumentGroupDetail struct {
	VersionGroup string     `json:"version_group"`
	Documents    []Document `json:"documents"`
}

type StoreFile struct {
	FileName  string    `json:"file_name"`
	Category  string    `json:"category,omitempty"`
	StoreType StoreType `json:"store_type"`
	FileSize  int64     `json:"file_size,omitempty"`
	CreatedAt Timestamp `json:"created_at"`
}

type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// FilterValue is the query value selecting this category.
func (c CategoryCount) FilterValue() string {
	if c.Name == Uncategorized {
		return ""
	}
	return c.Name
}

type StoreFileQuery struct {
	Page      int
	Limit     int
	Search    string
	Category  string
	StoreType StoreType
}

type StoreFilePage struct {
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
	Categories []CategoryCount `json:"categories"`
	Files      []StoreFile     `json:"files"`
}

type StoreDocument struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

type Store struct {
	Name          string          `json:"name"`
	DisplayName   string          `json:"display_name"`
	DocumentCount int             `json:"document_count"`
	Documents     []StoreDocument `json:"documents"`
}

type UploadPathRequest struct {
	Path         string    `json:"path"`
	StoreType    StoreType `json:"store_type"`
	VersionGroup string    `json:"version_group"`
}

// UploadFile is one browser-selected file streamed to the backend.
type UploadFile struct {
	Name    string
	Content io.Reader
}

type UploadFileResult struct {
	Success bool   `json:"success"`
	File    string `json:"file"`
	Error   string `json:"error,omitempty"`
}

type UploadResult struct {
	Message string             `json:"message"`
	Results []UploadFileResult `json:"results"`
}

// StagedFile is a browser-selected file held by the console until upload.
type StagedFile struct {
	Key  string
	Name string
	Size int64
}
