package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/akozlovs/filestash/internal/common"
	"github.com/akozlovs/filestash/internal/logging"
	"github.com/akozlovs/filestash/internal/server/models"
	"github.com/akozlovs/filestash/internal/server/repositories/repomanager"
)

// FileService handles uploaded-file metadata and the coupled object-storage
// side effects. Uploads are fatal on storage failure (a metadata row without
// content is useless); deletes treat storage failure as non-fatal and only
// log it.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       BlobStore
	logger      logging.Logger
}

// NewFileService constructs a FileService.
func NewFileService(db *sql.DB, m repomanager.RepositoryManager, store BlobStore, logger logging.Logger) *FileService {
	return &FileService{db: db, repomanager: m, store: store, logger: logger}
}

// Upload stores data in the blob store and records the file's metadata for
// userID. folderID, when given, must reference a folder owned by the same
// user; otherwise common.ErrorNotFound is returned. A storage failure aborts
// the upload with common.ErrorExternalStore.
func (s *FileService) Upload(ctx context.Context, userID string, folderID *string, name, contentType string, data []byte) (*models.File, error) {
	if folderID != nil {
		if _, err := s.repomanager.Folders(s.db).GetByIDAndUser(ctx, *folderID, userID); err != nil {
			return nil, err
		}
	}

	url, key, err := s.store.Store(ctx, data, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorExternalStore, err)
	}

	file := &models.File{
		Name:        name,
		Size:        int64(len(data)),
		ContentType: contentType,
		URL:         url,
		StorageKey:  key,
		UserID:      userID,
		FolderID:    folderID,
	}
	return s.repomanager.Files(s.db).Create(ctx, file)
}

// Get returns an owned file's metadata.
func (s *FileService) Get(ctx context.Context, userID, fileID string) (*models.File, error) {
	return s.repomanager.Files(s.db).GetByIDAndUser(ctx, fileID, userID)
}

// DownloadURL returns a short-lived URL that serves the file's content as an
// attachment under its display name.
func (s *FileService) DownloadURL(ctx context.Context, userID, fileID string) (string, error) {
	file, err := s.repomanager.Files(s.db).GetByIDAndUser(ctx, fileID, userID)
	if err != nil {
		return "", err
	}

	return s.store.DownloadURL(ctx, file.StorageKey, file.Name, true)
}

// Delete removes an owned file's metadata after attempting to delete its
// stored object. The object-store deletion is best-effort: a failure is
// logged and the metadata row is removed regardless.
func (s *FileService) Delete(ctx context.Context, userID, fileID string) error {
	repo := s.repomanager.Files(s.db)

	file, err := repo.GetByIDAndUser(ctx, fileID, userID)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, file.StorageKey); err != nil {
		s.logger.Warn(ctx, "failed to delete object from storage", "key", file.StorageKey, "error", err.Error())
	}

	return repo.Delete(ctx, fileID, userID)
}
