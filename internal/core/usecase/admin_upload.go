package usecase

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gkisanet/2026.gemini-file-search/internal/core/domain"
)

// IncomingFile is a browser-selected file before it is staged.
type IncomingFile struct {
	Name    string
	Content io.Reader
}

// UploadForm carries the upload inputs submitted with the button.
type UploadForm struct {
	Path         string
	StoreType    string
	VersionGroup string
}

// StageFiles replaces the current selection with files. Selecting files
// clears the server path input.
func (w *Workspace) StageFiles(ctx context.Context, files []IncomingFile) error {
	if err := w.requireAdmin("usecase.stage_files"); err != nil {
		return err
	}
	if w.uploadBusy() {
		return w.reject("files", "업로드가 진행 중입니다")
	}

	staged := make([]domain.StagedFile, 0, len(files))
	for _, file := range files {
		name := path.Base(strings.ReplaceAll(file.Name, "\\", "/"))
		if name == "" || name == "." || name == "/" {
			continue
		}
		key := w.id + "/" + uuid.NewString()
		counter := &countingReader{r: file.Content}
		if err := w.deps.Staging.Save(ctx, key, counter); err != nil {
			w.releaseStaged(ctx, staged)
			w.opts.Logger.Error("stage_file_failed", "workspace", w.id, "file", name, "error", err)
			w.toasts.Show(ToastError, "파일 준비 실패: "+name)
			return domain.WrapError(domain.ErrTemporary, "usecase.stage_files", err)
		}
		staged = append(staged, domain.StagedFile{Key: key, Name: name, Size: counter.n})
	}

	w.mu.Lock()
	previous := w.state.Admin.Upload.Selected
	w.state.Admin.Upload.Selected = staged
	if len(staged) > 0 {
		w.state.Admin.Upload.Path = ""
	}
	w.mu.Unlock()

	w.releaseStaged(ctx, previous)
	return nil
}

// ClearStagedFiles drops the selection and its staged bytes.
func (w *Workspace) ClearStagedFiles(ctx context.Context) {
	if w.uploadBusy() {
		return
	}
	w.mu.Lock()
	previous := w.state.Admin.Upload.Selected
	w.state.Admin.Upload.Selected = nil
	w.mu.Unlock()
	w.releaseStaged(ctx, previous)
}

// Upload sends the staged files, or the server path when nothing is staged,
// and waits for the backend.
func (w *Workspace) Upload(ctx context.Context, form UploadForm) error {
	pending, err := w.BeginUpload(ctx, form)
	if err != nil {
		return err
	}
	return pending.Run(ctx)
}

// PendingUpload is an upload marked busy whose request has not been sent.
type PendingUpload struct {
	ws           *Workspace
	files        []domain.StagedFile
	serverPath   string
	storeType    domain.StoreType
	versionGroup string
	stopTicker   func()
}

// BeginUpload validates the form, marks the upload busy and starts the
// elapsed-time display. Run must be called on the result.
func (w *Workspace) BeginUpload(ctx context.Context, form UploadForm) (*PendingUpload, error) {
	if err := w.requireAdmin("usecase.upload"); err != nil {
		return nil, err
	}
	storeType, err := domain.ParseStoreType(form.StoreType)
	if err != nil {
		w.toasts.Show(ToastError, domain.UserMessage(err))
		return nil, err
	}
	serverPath := strings.TrimSpace(form.Path)
	versionGroup := strings.TrimSpace(form.VersionGroup)

	w.mu.Lock()
	upload := &w.state.Admin.Upload
	if upload.Busy {
		w.mu.Unlock()
		return nil, w.reject("upload", "업로드가 진행 중입니다")
	}
	files := append([]domain.StagedFile(nil), upload.Selected...)
	if len(files) == 0 && serverPath == "" {
		w.mu.Unlock()
		return nil, w.reject("path", "파일/폴더를 선택하거나 서버 경로를 입력하세요")
	}
	if len(files) > 0 {
		serverPath = ""
	}
	upload.Path = serverPath
	upload.StoreType = storeType
	upload.VersionGroup = versionGroup
	upload.Busy = true
	upload.StartedAt = w.opts.Now()
	upload.Elapsed = 0
	upload.Status = UploadRunning
	upload.Message = runningMessage(*upload)
	w.mu.Unlock()

	stop := Ticker(w.opts.UploadTick, func(elapsed time.Duration) {
		w.mu.Lock()
		defer w.mu.Unlock()
		upload := &w.state.Admin.Upload
		if upload.Busy {
			upload.Elapsed = elapsed
			upload.Message = runningMessage(*upload)
		}
	})

	return &PendingUpload{
		ws:           w,
		files:        files,
		serverPath:   serverPath,
		storeType:    storeType,
		versionGroup: versionGroup,
		stopTicker:   stop,
	}, nil
}

// FromFiles reports whether staged files, rather than a server path, are sent.
func (p *PendingUpload) FromFiles() bool { return len(p.files) > 0 }

// Run sends the upload. The ticker and busy flag are released however the
// request ends; the selection is kept on failure so it can be retried.
func (p *PendingUpload) Run(ctx context.Context) error {
	w := p.ws
	defer func() {
		p.stopTicker()
		w.mu.Lock()
		w.state.Admin.Upload.Busy = false
		w.mu.Unlock()
	}()

	var (
		result *domain.UploadResult
		err    error
	)
	if len(p.files) > 0 {
		result, err = w.uploadStaged(ctx, p.files, p.storeType, p.versionGroup)
	} else {
		result, err = w.api().UploadPath(ctx, domain.UploadPathRequest{
			Path:         p.serverPath,
			StoreType:    p.storeType,
			VersionGroup: p.versionGroup,
		})
	}
	if err != nil {
		w.mu.Lock()
		w.state.Admin.Upload.Status = UploadFailed
		w.state.Admin.Upload.Message = "업로드 실패: " + domain.UserMessage(err)
		w.mu.Unlock()
		return w.fail(ctx, "upload", "업로드 실패: ", err)
	}

	message := "업로드 완료"
	if result != nil && result.Message != "" {
		message = result.Message
	} else if result != nil && len(result.Results) > 0 {
		message = fmt.Sprintf("%d/%d개 파일 업로드 완료", succeeded(result.Results), len(result.Results))
	}
	w.toasts.Show(ToastSuccess, message)

	w.mu.Lock()
	upload := &w.state.Admin.Upload
	upload.Path = ""
	upload.VersionGroup = ""
	upload.Selected = nil
	upload.Status = UploadIdle
	upload.Message = ""
	w.mu.Unlock()
	w.releaseStaged(ctx, p.files)

	target := p.serverPath
	if target == "" {
		target = fmt.Sprintf("%d files", len(p.files))
	}
	w.publish(ctx, domain.ActivityUpload, p.versionGroup, target)

	_ = w.reloadDocuments(ctx)
	_ = w.LoadStoreFiles(ctx, 1)
	return nil
}

func (w *Workspace) uploadStaged(ctx context.Context, files []domain.StagedFile, storeType domain.StoreType, versionGroup string) (*domain.UploadResult, error) {
	uploads := make([]domain.UploadFile, 0, len(files))
	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()
	for _, file := range files {
		rc, err := w.deps.Staging.Open(ctx, file.Key)
		if err != nil {
			return nil, domain.WrapError(domain.ErrTemporary, "usecase.upload_staged", err)
		}
		closers = append(closers, rc)
		uploads = append(uploads, domain.UploadFile{Name: file.Name, Content: rc})
	}
	return w.api().UploadFiles(ctx, uploads, storeType, versionGroup)
}

func (w *Workspace) uploadBusy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Admin.Upload.Busy
}

func (w *Workspace) releaseStaged(ctx context.Context, files []domain.StagedFile) {
	for _, file := range files {
		if err := w.deps.Staging.Remove(ctx, file.Key); err != nil {
			w.opts.Logger.Warn("staged_file_remove_failed", "workspace", w.id, "key", file.Key, "error", err)
		}
	}
}

func runningMessage(u UploadState) string {
	return fmt.Sprintf("%s개 파일 업로드 + AI 인덱싱 진행 중... (%s 경과)", u.TotalSelected(), domain.FormatElapsed(u.Elapsed))
}

func succeeded(results []domain.UploadFileResult) int {
	n := 0
	for _, r := range results {
		if r.Success {
			n++
		}
	}
	return n
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
