package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/akozlovs/filestash/internal/server/models"
)

// FileManager is the slice of the file service the handlers need.
type FileManager interface {
	Upload(ctx context.Context, userID string, folderID *string, name, contentType string, data []byte) (*models.File, error)
	Get(ctx context.Context, userID, fileID string) (*models.File, error)
	DownloadURL(ctx context.Context, userID, fileID string) (string, error)
	Delete(ctx context.Context, userID, fileID string) error
}

// allowedExtensions is the upload allowlist; anything else is rejected with
// a 400 before touching the object store.
var allowedExtensions = map[string]bool{
	".jpeg": true, ".jpg": true, ".png": true, ".gif": true,
	".pdf": true, ".doc": true, ".docx": true, ".txt": true,
	".zip": true, ".rar": true,
	".mp4": true, ".mp3": true, ".mov": true,
}

// FileHandler handles uploaded-file API endpoints.
type FileHandler struct {
	files          FileManager
	maxUploadBytes int64
}

// NewFileHandler creates a new FileHandler. maxUploadBytes caps the size of a
// single upload request.
func NewFileHandler(files FileManager, maxUploadBytes int64) *FileHandler {
	return &FileHandler{files: files, maxUploadBytes: maxUploadBytes}
}

// FileResponse is the response body for file endpoints.
type FileResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	URL         string    `json:"url"`
	FolderID    *string   `json:"folder_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// DownloadURLResponse carries a short-lived download URL.
type DownloadURLResponse struct {
	URL string `json:"url"`
}

func fileToResponse(f *models.File) FileResponse {
	return FileResponse{
		ID:          f.ID,
		Name:        f.Name,
		Size:        f.Size,
		ContentType: f.ContentType,
		URL:         f.URL,
		FolderID:    f.FolderID,
		CreatedAt:   f.CreatedAt,
	}
}

// Upload handles POST /api/v1/files. The request is multipart/form-data with
// the content in the "file" part and an optional "folder_id" field.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// MaxBytesReader truncates the stream, which makes the multipart parser
	// fail with an unrelated syntax error. Reject on the declared length
	// first so oversized uploads get a 413 instead of a 400.
	if r.ContentLength > h.maxUploadBytes {
		RequestEntityTooLarge(w, "Upload exceeds the size limit")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			RequestEntityTooLarge(w, "Upload exceeds the size limit")
			return
		}
		BadRequest(w, "Invalid multipart request")
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		BadRequest(w, "Missing file part")
		return
	}
	defer part.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		BadRequest(w, "File type not allowed")
		return
	}

	data, err := io.ReadAll(part)
	if err != nil {
		BadRequest(w, "Unreadable file part")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var folderID *string
	if v := r.FormValue("folder_id"); v != "" {
		folderID = &v
	}

	file, err := h.files.Upload(r.Context(), UserIDFromContext(r.Context()), folderID, header.Filename, contentType, data)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSONCreated(w, fileToResponse(file))
}

// Get handles GET /api/v1/files/{id}.
func (h *FileHandler) Get(w http.ResponseWriter, r *http.Request) {
	file, err := h.files.Get(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSONOK(w, fileToResponse(file))
}

// DownloadURL handles GET /api/v1/files/{id}/download-url.
func (h *FileHandler) DownloadURL(w http.ResponseWriter, r *http.Request) {
	url, err := h.files.DownloadURL(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSONOK(w, DownloadURLResponse{URL: url})
}

// Delete handles DELETE /api/v1/files/{id}.
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.files.Delete(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteNoContent(w)
}
