// Package services contains server-side business logic: account management,
// the folder tree, uploaded-file handling, and share links. Services own the
// authorization policy: owner-scoped lookups make absent and foreign
// resources both surface as common.ErrorNotFound, so existence never leaks
// across owners.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/akozlovs/filestash/internal/common"
	"github.com/akozlovs/filestash/internal/dbx"
	"github.com/akozlovs/filestash/internal/logging"
	"github.com/akozlovs/filestash/internal/server/models"
	"github.com/akozlovs/filestash/internal/server/repositories/folders"
	"github.com/akozlovs/filestash/internal/server/repositories/repomanager"
)

// BlobStore is the object-storage contract the services depend on. Implemented
// by ObjectStore; tests substitute fakes.
type BlobStore interface {
	// Store uploads data and returns the object's retrieval URL and storage key.
	Store(ctx context.Context, data []byte, contentType string) (url, key string, err error)
	// Delete removes the object stored under key.
	Delete(ctx context.Context, key string) error
	// DownloadURL builds a short-lived retrieval URL for key.
	DownloadURL(ctx context.Context, key, filename string, asAttachment bool) (string, error)
}

// FolderService implements the folder tree: creation, rename, listing,
// breadcrumb resolution, and recursive deletion.
type FolderService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       BlobStore
	logger      logging.Logger
}

// NewFolderService constructs a FolderService.
func NewFolderService(db *sql.DB, m repomanager.RepositoryManager, store BlobStore, logger logging.Logger) *FolderService {
	return &FolderService{db: db, repomanager: m, store: store, logger: logger}
}

// Create adds a folder for userID. parentID, when given, must reference a
// folder owned by the same user; otherwise common.ErrorNotFound is returned.
// An empty name (after trimming) yields common.ErrorValidation.
func (s *FolderService) Create(ctx context.Context, userID, name string, parentID *string) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.ErrorValidation
	}

	repo := s.repomanager.Folders(s.db)

	if parentID != nil {
		if _, err := repo.GetByIDAndUser(ctx, *parentID, userID); err != nil {
			return nil, err
		}
	}

	folder := &models.Folder{Name: name, UserID: userID, ParentID: parentID}
	return repo.Create(ctx, folder)
}

// Rename changes the name of an owned folder.
func (s *FolderService) Rename(ctx context.Context, userID, folderID, name string) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.ErrorValidation
	}

	repo := s.repomanager.Folders(s.db)
	return repo.UpdateName(ctx, folderID, userID, name)
}

// List returns the folders and files directly under parentID (nil means root
// level) for userID, each most recently created first. When parentID is given
// it must be an owned folder, otherwise common.ErrorNotFound is returned.
func (s *FolderService) List(ctx context.Context, userID string, parentID *string) ([]*models.Folder, []*models.File, error) {
	folderRepo := s.repomanager.Folders(s.db)

	if parentID != nil {
		if _, err := folderRepo.GetByIDAndUser(ctx, *parentID, userID); err != nil {
			return nil, nil, err
		}
	}

	subfolders, err := folderRepo.ListByParent(ctx, userID, parentID)
	if err != nil {
		return nil, nil, err
	}

	files, err := s.repomanager.Files(s.db).ListByFolder(ctx, userID, parentID)
	if err != nil {
		return nil, nil, err
	}

	return subfolders, files, nil
}

// Breadcrumbs resolves the ancestor chain of folderID, tree root first and
// folderID last. The upward walk is bounded by the owner's folder count so a
// corrupted parent chain cannot loop forever; exceeding the bound yields
// common.ErrorInternal.
func (s *FolderService) Breadcrumbs(ctx context.Context, userID, folderID string) ([]models.Breadcrumb, error) {
	repo := s.repomanager.Folders(s.db)

	folder, err := repo.GetByIDAndUser(ctx, folderID, userID)
	if err != nil {
		return nil, err
	}

	limit, err := repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	chain := []models.Breadcrumb{{ID: folder.ID, Name: folder.Name}}
	var steps int64 = 1
	for folder.ParentID != nil {
		steps++
		if steps > limit {
			s.logger.Error(ctx, "folder hierarchy is corrupted: parent chain exceeds folder count",
				"folder_id", folderID, "user_id", userID)
			return nil, common.ErrorInternal
		}
		folder, err = repo.GetByID(ctx, *folder.ParentID)
		if err != nil {
			return nil, err
		}
		chain = append(chain, models.Breadcrumb{ID: folder.ID, Name: folder.Name})
	}

	// reverse: root first
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// Delete removes an owned folder together with every descendant folder, every
// contained file, and every share link rooted inside the subtree. Metadata
// removal is a single transactional delete backed by the schema's cascades;
// the contained objects are then deleted from the blob store best-effort,
// outside the transaction, so an object-store failure never rolls back or
// fails the metadata deletion.
func (s *FolderService) Delete(ctx context.Context, userID, folderID string) error {
	folderRepo := s.repomanager.Folders(s.db)

	root, err := folderRepo.GetByIDAndUser(ctx, folderID, userID)
	if err != nil {
		return err
	}

	limit, err := folderRepo.CountByUser(ctx, userID)
	if err != nil {
		return err
	}

	subtree, err := collectSubtree(ctx, folderRepo, root.ID, limit)
	if err != nil {
		if err == common.ErrorInternal {
			s.logger.Error(ctx, "folder hierarchy is corrupted: subtree exceeds folder count",
				"folder_id", folderID, "user_id", userID)
		}
		return err
	}

	fileRepo := s.repomanager.Files(s.db)
	var storageKeys []string
	for _, id := range subtree {
		contained, err := fileRepo.ListByFolderID(ctx, id)
		if err != nil {
			return err
		}
		for _, f := range contained {
			storageKeys = append(storageKeys, f.StorageKey)
		}
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Folders(tx).Delete(ctx, folderID, userID)
	})
	if err != nil {
		return err
	}

	for _, key := range storageKeys {
		if err := s.store.Delete(ctx, key); err != nil {
			s.logger.Warn(ctx, "failed to delete object from storage", "key", key, "error", err.Error())
		}
	}

	return nil
}

// collectSubtree walks the folder tree down from rootID with an explicit
// queue, returning ids in parent-before-children order. Visiting more folders
// than limit means the tree references itself; that returns
// common.ErrorInternal instead of looping.
func collectSubtree(ctx context.Context, repo folders.Repository, rootID string, limit int64) ([]string, error) {
	order := []string{}
	visited := map[string]struct{}{rootID: {}}
	queue := []string{rootID}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		children, err := repo.ListChildren(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("listing children of %s: %w", id, err)
		}
		for _, child := range children {
			if _, seen := visited[child.ID]; seen {
				return nil, common.ErrorInternal
			}
			visited[child.ID] = struct{}{}
			if int64(len(visited)) > limit {
				return nil, common.ErrorInternal
			}
			queue = append(queue, child.ID)
		}
	}

	return order, nil
}
