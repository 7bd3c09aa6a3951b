package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/akozlovs/filestash/internal/server/models"
	"github.com/akozlovs/filestash/internal/server/services"
)

// ShareManager is the slice of the share service the handlers need.
type ShareManager interface {
	Issue(ctx context.Context, userID, folderID, duration string) (*models.SharedLink, error)
	Resolve(ctx context.Context, token string) (*services.SharedView, error)
	Revoke(ctx context.Context, userID, linkID string) error
	ListForFolder(ctx context.Context, userID, folderID string) ([]*models.SharedLink, error)
}

// ShareHandler handles share-link management and the anonymous share view.
type ShareHandler struct {
	shares        ShareManager
	publicBaseURL string
}

// NewShareHandler creates a new ShareHandler. publicBaseURL is the
// externally visible server address used to build share URLs.
func NewShareHandler(shares ShareManager, publicBaseURL string) *ShareHandler {
	return &ShareHandler{shares: shares, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

// IssueShareRequest is the request body for POST /api/v1/shares/{folderID}.
type IssueShareRequest struct {
	// Duration is a day count with a "d" suffix, e.g. "7d". Between 1 and 365 days.
	Duration string `json:"duration"`
}

// ShareLinkResponse is the response body for share-link endpoints.
type ShareLinkResponse struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	FolderID  string    `json:"folder_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// SharedViewResponse is what an anonymous token bearer receives: the shared
// folder and every file in its subtree.
type SharedViewResponse struct {
	Folder    FolderResponse `json:"folder"`
	Files     []FileResponse `json:"files"`
	ExpiresAt time.Time      `json:"expires_at"`
}

func (h *ShareHandler) linkToResponse(l *models.SharedLink) ShareLinkResponse {
	return ShareLinkResponse{
		ID:        l.ID,
		URL:       h.publicBaseURL + "/share/" + l.Token,
		FolderID:  l.FolderID,
		ExpiresAt: l.ExpiresAt,
		CreatedAt: l.CreatedAt,
	}
}

// Issue handles POST /api/v1/shares/{folderID}.
func (h *ShareHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req IssueShareRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	link, err := h.shares.Issue(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "folderID"), req.Duration)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSONCreated(w, h.linkToResponse(link))
}

// ListForFolder handles GET /api/v1/folders/{id}/links.
func (h *ShareHandler) ListForFolder(w http.ResponseWriter, r *http.Request) {
	links, err := h.shares.ListForFolder(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]ShareLinkResponse, 0, len(links))
	for _, l := range links {
		resp = append(resp, h.linkToResponse(l))
	}
	WriteJSONOK(w, resp)
}

// Revoke handles DELETE /api/v1/shares/{id}.
func (h *ShareHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	if err := h.shares.Revoke(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteNoContent(w)
}

// View handles GET /share/{token}, the unauthenticated share view. Expired
// links answer 410, unknown tokens 404.
func (h *ShareHandler) View(w http.ResponseWriter, r *http.Request) {
	view, err := h.shares.Resolve(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := SharedViewResponse{
		Folder:    folderToResponse(view.Folder),
		Files:     make([]FileResponse, 0, len(view.Files)),
		ExpiresAt: view.ExpiresAt,
	}
	for _, f := range view.Files {
		resp.Files = append(resp.Files, fileToResponse(f))
	}
	WriteJSONOK(w, resp)
}
