package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/akozlovs/filestash/internal/server/models"
)

// FolderManager is the slice of the folder service the handlers need.
type FolderManager interface {
	Create(ctx context.Context, userID, name string, parentID *string) (*models.Folder, error)
	Rename(ctx context.Context, userID, folderID, name string) (*models.Folder, error)
	List(ctx context.Context, userID string, parentID *string) ([]*models.Folder, []*models.File, error)
	Breadcrumbs(ctx context.Context, userID, folderID string) ([]models.Breadcrumb, error)
	Delete(ctx context.Context, userID, folderID string) error
}

// FolderHandler handles the folder tree API endpoints.
type FolderHandler struct {
	folders FolderManager
}

// NewFolderHandler creates a new FolderHandler.
func NewFolderHandler(folders FolderManager) *FolderHandler {
	return &FolderHandler{folders: folders}
}

// CreateFolderRequest is the request body for POST /api/v1/folders.
type CreateFolderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"`
}

// RenameFolderRequest is the request body for PATCH /api/v1/folders/{id}.
type RenameFolderRequest struct {
	Name string `json:"name"`
}

// FolderResponse is the response body for folder endpoints.
type FolderResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  *string   `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// BreadcrumbResponse is one segment of a folder's ancestor chain.
type BreadcrumbResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FolderContentsResponse is the response body for folder content listings.
type FolderContentsResponse struct {
	Folders []FolderResponse `json:"folders"`
	Files   []FileResponse   `json:"files"`
}

func folderToResponse(f *models.Folder) FolderResponse {
	return FolderResponse{ID: f.ID, Name: f.Name, ParentID: f.ParentID, CreatedAt: f.CreatedAt}
}

// Create handles POST /api/v1/folders.
func (h *FolderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateFolderRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	folder, err := h.folders.Create(r.Context(), UserIDFromContext(r.Context()), req.Name, req.ParentID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSONCreated(w, folderToResponse(folder))
}

// Rename handles PATCH /api/v1/folders/{id}.
func (h *FolderHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req RenameFolderRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	folder, err := h.folders.Rename(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSONOK(w, folderToResponse(folder))
}

// List handles GET /api/v1/folders and GET /api/v1/folders/{id}/contents.
// Without an id it lists the root level.
func (h *FolderHandler) List(w http.ResponseWriter, r *http.Request) {
	var parentID *string
	if id := chi.URLParam(r, "id"); id != "" {
		parentID = &id
	}

	subfolders, files, err := h.folders.List(r.Context(), UserIDFromContext(r.Context()), parentID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := FolderContentsResponse{
		Folders: make([]FolderResponse, 0, len(subfolders)),
		Files:   make([]FileResponse, 0, len(files)),
	}
	for _, f := range subfolders {
		resp.Folders = append(resp.Folders, folderToResponse(f))
	}
	for _, f := range files {
		resp.Files = append(resp.Files, fileToResponse(f))
	}

	WriteJSONOK(w, resp)
}

// Breadcrumbs handles GET /api/v1/folders/{id}/breadcrumbs.
func (h *FolderHandler) Breadcrumbs(w http.ResponseWriter, r *http.Request) {
	chain, err := h.folders.Breadcrumbs(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]BreadcrumbResponse, 0, len(chain))
	for _, b := range chain {
		resp = append(resp, BreadcrumbResponse{ID: b.ID, Name: b.Name})
	}

	WriteJSONOK(w, resp)
}

// Delete handles DELETE /api/v1/folders/{id}.
func (h *FolderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.folders.Delete(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteNoContent(w)
}
