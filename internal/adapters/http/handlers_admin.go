package httpadapter

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gkisanet/2026.gemini-file-search/internal/core/usecase"
	"github.com/gkisanet/2026.gemini-file-search/internal/view"
)

const (
	adminFeedback  = "/admin#feedback"
	adminDocuments = "/admin#documents"
	adminStore     = "/admin#store"
	adminUpload    = "/admin#upload"

	// Multipart bodies above this size spill to temporary files.
	multipartMemory = 32 << 20
)

func (rt *Router) adminDashboard(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFromContext(r.Context())
	if ws.State().Admin.Feedback == nil || r.URL.Query().Get("refresh") == "1" {
		if err := ws.OpenDashboard(r.Context()); leavesPage(err) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	}
	rt.page(w, view.PageAdmin, view.NewAdminView(ws.Snapshot()))
}

func (rt *Router) filterFeedbacks(w http.ResponseWriter, r *http.Request) {
	err := workspaceFromContext(r.Context()).LoadFeedbacks(r.Context(), r.URL.Query().Get("status"))
	rt.finish(w, r, adminFeedback, err)
}

func (rt *Router) approveFeedback(w http.ResponseWriter, r *http.Request) {
	err := workspaceFromContext(r.Context()).ApproveFeedback(r.Context(), chi.URLParam(r, "correctionID"))
	rt.finish(w, r, adminFeedback, err)
}

func (rt *Router) openReject(w http.ResponseWriter, r *http.Request) {
	workspaceFromContext(r.Context()).OpenReject(chi.URLParam(r, "correctionID"))
	http.Redirect(w, r, adminFeedback, http.StatusSeeOther)
}

func (rt *Router) confirmReject(w http.ResponseWriter, r *http.Request) {
	err := workspaceFromContext(r.Context()).ConfirmReject(r.Context(), r.PostFormValue("reason"))
	rt.finish(w, r, adminFeedback, err)
}

func (rt *Router) closeReject(w http.ResponseWriter, r *http.Request) {
	workspaceFromContext(r.Context()).CloseReject()
	http.Redirect(w, r, adminFeedback, http.StatusSeeOther)
}

// searchDocuments serves both the live search box, which is debounced and
// answered with the document list, and the plain form submit.
func (rt *Router) searchDocuments(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFromContext(r.Context())
	search := r.URL.Query().Get("search")
	if !isPartial(r) {
		rt.finish(w, r, adminDocuments, ws.LoadDocuments(r.Context(), search))
		return
	}
	err := ws.SearchDocuments(r.Context(), search)
	rt.fragment(w, view.FragmentDocuments, view.NewDocumentPanel(ws.State().Admin), err)
}

func (rt *Router) setLatest(w http.ResponseWriter, r *http.Request) {
	err := workspaceFromContext(r.Context()).SetLatest(r.Context(), chi.URLParam(r, "documentID"))
	rt.finish(w, r, adminDocuments, err)
}

func (rt *Router) openGroup(w http.ResponseWriter, r *http.Request) {
	group, err := url.PathUnescape(chi.URLParam(r, "group"))
	if err != nil {
		http.Error(w, "잘못된 버전 그룹", http.StatusBadRequest)
		return
	}
	err = workspaceFromContext(r.Context()).OpenGroup(r.Context(), group)
	rt.finish(w, r, adminDocuments, err)
}

func (rt *Router) closeGroup(w http.ResponseWriter, r *http.Request) {
	workspaceFromContext(r.Context()).CloseGroup()
	http.Redirect(w, r, adminDocuments, http.StatusSeeOther)
}

func (rt *Router) storeFilesPage(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		page = 1
	}
	rt.storeFiles(w, r, workspaceFromContext(r.Context()).LoadStoreFiles(r.Context(), page))
}

func (rt *Router) searchStoreFiles(w http.ResponseWriter, r *http.Request) {
	err := workspaceFromContext(r.Context()).SearchStoreFiles(r.Context(), r.URL.Query().Get("search"))
	rt.storeFiles(w, r, err)
}

func (rt *Router) filterStoreFiles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	err := workspaceFromContext(r.Context()).FilterStoreFiles(r.Context(), query.Get("category"), query.Get("store_type"))
	rt.storeFiles(w, r, err)
}

func (rt *Router) storeFiles(w http.ResponseWriter, r *http.Request, err error) {
	if !isPartial(r) {
		rt.finish(w, r, adminStore, err)
		return
	}
	store := workspaceFromContext(r.Context()).State().Admin.Store
	rt.fragment(w, view.FragmentStoreFiles, view.NewStorePanel(store), err)
}

// stageFiles keeps the browser-selected files on local disk until the
// upload button is pressed.
func (rt *Router) stageFiles(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "업로드 용량 초과", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "잘못된 업로드 요청", http.StatusBadRequest)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["files"]
	incoming := make([]usecase.IncomingFile, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			http.Error(w, "잘못된 업로드 요청", http.StatusBadRequest)
			return
		}
		defer file.Close()
		incoming = append(incoming, usecase.IncomingFile{Name: header.Filename, Content: file})
	}

	var err error
	if len(incoming) > 0 {
		err = workspaceFromContext(r.Context()).StageFiles(r.Context(), incoming)
	}
	rt.finish(w, r, adminUpload, err)
}

func (rt *Router) clearStaged(w http.ResponseWriter, r *http.Request) {
	workspaceFromContext(r.Context()).ClearStagedFiles(r.Context())
	http.Redirect(w, r, adminUpload, http.StatusSeeOther)
}

// upload marks the upload busy and sends it in the background; the upload
// panel polls its status until it is done.
func (rt *Router) upload(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFromContext(r.Context())
	pending, err := ws.BeginUpload(r.Context(), usecase.UploadForm{
		Path:         r.PostFormValue("path"),
		StoreType:    r.PostFormValue("store_type"),
		VersionGroup: r.PostFormValue("version_group"),
	})
	if err == nil {
		source := "path"
		if pending.FromFiles() {
			source = "files"
		}
		rt.goBackground(r, "upload", func(ctx context.Context) error {
			err := pending.Run(ctx)
			if rt.metrics != nil {
				rt.metrics.RecordUpload(source, err)
			}
			return err
		})
	}
	rt.finish(w, r, adminUpload, err)
}

func (rt *Router) uploadStatus(w http.ResponseWriter, r *http.Request) {
	upload := workspaceFromContext(r.Context()).State().Admin.Upload
	rt.fragment(w, view.FragmentUpload, view.NewUploadPanel(upload), nil)
}
