package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/meridianwm/backoffice/internal/api/errors"
	"github.com/meridianwm/backoffice/internal/models"
	"github.com/meridianwm/backoffice/internal/services"
)

// Upload handles POST /documents/upload. The multipart form carries the file
// under "file" and the uploader identity under "uploader".
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	localPath, fileName, cleanup, err := h.receiveUpload(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	defer cleanup()

	uploader := r.FormValue("uploader")
	fileID, tags, err := h.documents.Upload(r.Context(), localPath, fileName, uploader)
	if err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, models.UploadResponse{Success: true, FileID: fileID, AITags: tags})
}

// List handles GET /documents/list with optional q, tag, status, category,
// fromDate, and toDate query parameters.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	docs, err := h.documents.List(r.Context(), filter)
	if err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, models.ListDocumentsResponse{Success: true, Documents: docs})
}

// Get handles GET /documents/{id}.
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.documents.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, models.DocumentResponse{Success: true, Document: doc})
}

// Patch handles PATCH /documents/{id}. Absent fields stay untouched.
func (h *Handlers) Patch(w http.ResponseWriter, r *http.Request) {
	var patch services.DocumentPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		apierrors.ValidationError(w, "invalid JSON body")
		return
	}

	if err := h.documents.Patch(r.Context(), chi.URLParam(r, "id"), patch); err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, models.SuccessResponse{Success: true})
}

// Move handles POST /documents/move/{id}.
func (h *Handlers) Move(w http.ResponseWriter, r *http.Request) {
	var req models.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "invalid JSON body")
		return
	}

	if err := h.documents.Move(r.Context(), chi.URLParam(r, "id"), req.Category, req.FolderID); err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, models.SuccessResponse{Success: true})
}

// CreateFolder handles POST /documents/create-folder.
func (h *Handlers) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "invalid JSON body")
		return
	}

	folderID, err := h.documents.CreateFolder(r.Context(), req.Name, req.ParentID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, models.CreateFolderResponse{Success: true, FolderID: folderID})
}

// UploadVersion handles POST /documents/{id}/version, a multipart form in
// the same shape as Upload.
func (h *Handlers) UploadVersion(w http.ResponseWriter, r *http.Request) {
	localPath, fileName, cleanup, err := h.receiveUpload(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	defer cleanup()

	uploader := r.FormValue("uploader")
	version, err := h.documents.UploadVersion(r.Context(), chi.URLParam(r, "id"), localPath, fileName, uploader)
	if err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, models.VersionResponse{Success: true, Version: version})
}

// Versions handles GET /documents/{id}/versions.
func (h *Handlers) Versions(w http.ResponseWriter, r *http.Request) {
	versions, err := h.documents.Versions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, models.VersionsResponse{Success: true, Versions: versions})
}

// Restore handles POST /documents/{id}/restore.
func (h *Handlers) Restore(w http.ResponseWriter, r *http.Request) {
	var req models.RestoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "invalid JSON body")
		return
	}

	if err := h.documents.Restore(r.Context(), chi.URLParam(r, "id"), req.Version); err != nil {
		h.respondError(w, err)
		return
	}

	respondJSON(w, models.SuccessResponse{Success: true})
}

// receiveUpload spools the multipart "file" part to a temp file whose name
// keeps the original extension, so format detection still works downstream.
// The caller must invoke cleanup once the file is processed. Malformed client
// input carries ErrValidation; a server-side spool failure does not.
func (h *Handlers) receiveUpload(r *http.Request) (localPath, fileName string, cleanup func(), err error) {
	r.Body = http.MaxBytesReader(nil, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		return "", "", nil, fmt.Errorf("%w: expected multipart form upload: %v", services.ErrValidation, err)
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: multipart form is missing the file field: %v", services.ErrValidation, err)
	}
	defer part.Close()

	fileName = filepath.Base(header.Filename)
	if fileName == "" || fileName == "." {
		return "", "", nil, fmt.Errorf("%w: uploaded file has no name", services.ErrValidation)
	}

	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(fileName))
	if err != nil {
		return "", "", nil, fmt.Errorf("spool upload to disk: %w", err)
	}
	if _, err := io.Copy(tmp, part); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", "", nil, fmt.Errorf("spool upload to disk: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", "", nil, fmt.Errorf("spool upload to disk: %w", err)
	}

	return tmp.Name(), fileName, func() { os.Remove(tmp.Name()) }, nil
}

// parseListFilter reads the list query parameters. Dates are RFC 3339.
func parseListFilter(r *http.Request) (models.ListFilter, error) {
	q := r.URL.Query()
	filter := models.ListFilter{
		Query:    q.Get("q"),
		Tag:      q.Get("tag"),
		Status:   q.Get("status"),
		Category: q.Get("category"),
	}

	if raw := q.Get("fromDate"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return models.ListFilter{}, fmt.Errorf("fromDate must be RFC 3339: %w", err)
		}
		filter.FromDate = &t
	}
	if raw := q.Get("toDate"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return models.ListFilter{}, fmt.Errorf("toDate must be RFC 3339: %w", err)
		}
		filter.ToDate = &t
	}

	return filter, nil
}
