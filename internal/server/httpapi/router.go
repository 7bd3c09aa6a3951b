package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/akozlovs/filestash/internal/logging"
	"github.com/akozlovs/filestash/internal/server/config"
)

// NewRouter creates and configures the chi router with all middleware and routes.
//
// Routes:
//   - GET  /health - liveness probe
//   - POST /api/v1/auth/register - account creation
//   - POST /api/v1/auth/login - credential exchange for a token pair
//   - POST /api/v1/auth/refresh - refresh token rotation
//   - GET  /api/v1/folders - root-level listing (authenticated)
//   - POST /api/v1/folders - folder creation (authenticated)
//   - GET  /api/v1/folders/{id}/contents - folder listing (authenticated)
//   - GET  /api/v1/folders/{id}/breadcrumbs - ancestor chain (authenticated)
//   - GET  /api/v1/folders/{id}/links - share links of a folder (authenticated)
//   - PATCH  /api/v1/folders/{id} - rename (authenticated)
//   - DELETE /api/v1/folders/{id} - recursive delete (authenticated)
//   - POST /api/v1/files - multipart upload (authenticated)
//   - GET  /api/v1/files/{id} - file metadata (authenticated)
//   - GET  /api/v1/files/{id}/download-url - presigned download (authenticated)
//   - DELETE /api/v1/files/{id} - delete (authenticated)
//   - POST /api/v1/shares/{folderID} - issue a share link (authenticated)
//   - DELETE /api/v1/shares/{id} - revoke a share link (authenticated)
//   - GET  /share/{token} - anonymous share view
func NewRouter(cfg *config.Config, logger logging.Logger,
	accounts AccountService, folders FolderManager, files FileManager, shares ShareManager) http.Handler {

	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	authHandler := NewAuthHandler(accounts)
	folderHandler := NewFolderHandler(folders)
	fileHandler := NewFileHandler(files, cfg.MaxUploadBytes)
	shareHandler := NewShareHandler(shares, cfg.PublicBaseURL)

	// Anonymous share view
	r.Get("/share/{token}", shareHandler.View)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
		})

		// Everything below requires a valid access token
		r.Group(func(r chi.Router) {
			r.Use(JWTAuth([]byte(cfg.SecretKey)))

			r.Route("/folders", func(r chi.Router) {
				r.Get("/", folderHandler.List)
				r.Post("/", folderHandler.Create)
				r.Get("/{id}/contents", folderHandler.List)
				r.Get("/{id}/breadcrumbs", folderHandler.Breadcrumbs)
				r.Get("/{id}/links", shareHandler.ListForFolder)
				r.Patch("/{id}", folderHandler.Rename)
				r.Delete("/{id}", folderHandler.Delete)
			})

			r.Route("/files", func(r chi.Router) {
				r.Post("/", fileHandler.Upload)
				r.Get("/{id}", fileHandler.Get)
				r.Get("/{id}/download-url", fileHandler.DownloadURL)
				r.Delete("/{id}", fileHandler.Delete)
			})

			r.Route("/shares", func(r chi.Router) {
				r.Post("/{folderID}", shareHandler.Issue)
				r.Delete("/{id}", shareHandler.Revoke)
			})
		})
	})

	return r
}

// requestLogger logs one line per request with method, path, status, and
// duration.
func requestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).String(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
