package services

import (
	"context"
	"database/sql"
	"regexp"
	"strconv"
	"time"

	"github.com/akozlovs/filestash/internal/common"
	"github.com/akozlovs/filestash/internal/logging"
	"github.com/akozlovs/filestash/internal/server/models"
	"github.com/akozlovs/filestash/internal/server/repositories/repomanager"
)

// durationPattern is the only accepted share-duration shape: a positive
// integer number of days with a "d" suffix, e.g. "7d".
var durationPattern = regexp.MustCompile(`^(\d+)d$`)

const (
	minShareDays = 1
	maxShareDays = 365

	// shareTokenBytes gives 256 bits of entropy (64 hex characters).
	shareTokenBytes = 32
)

// SharedView is what an anonymous token bearer sees: the share root folder
// and every file transitively contained in its subtree.
type SharedView struct {
	Folder    *models.Folder
	Files     []*models.File
	ExpiresAt time.Time
}

// ShareService issues, resolves, and revokes expiring share links scoped to
// folder subtrees.
type ShareService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

// NewShareService constructs a ShareService.
func NewShareService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *ShareService {
	return &ShareService{db: db, repomanager: m, logger: logger}
}

// ParseShareDuration validates a duration string of the form "<days>d" and
// returns the number of days. Any other shape, or a value outside [1, 365],
// yields common.ErrorValidation.
func ParseShareDuration(duration string) (int, error) {
	m := durationPattern.FindStringSubmatch(duration)
	if m == nil {
		return 0, common.ErrorValidation
	}
	days, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, common.ErrorValidation
	}
	if days < minShareDays || days > maxShareDays {
		return 0, common.ErrorValidation
	}
	return days, nil
}

// Issue creates a share link for an owned folder, valid for the given
// duration ("7d" style). The token is generated server-side and is never
// derived from user input.
func (s *ShareService) Issue(ctx context.Context, userID, folderID, duration string) (*models.SharedLink, error) {
	if _, err := s.repomanager.Folders(s.db).GetByIDAndUser(ctx, folderID, userID); err != nil {
		return nil, err
	}

	days, err := ParseShareDuration(duration)
	if err != nil {
		return nil, err
	}

	token, err := common.MakeRandHexString(shareTokenBytes)
	if err != nil {
		return nil, common.ErrorInternal
	}

	link := &models.SharedLink{
		Token:     token,
		FolderID:  folderID,
		ExpiresAt: time.Now().Add(time.Duration(days) * 24 * time.Hour),
	}
	return s.repomanager.SharedLinks(s.db).Create(ctx, link)
}

// Resolve looks up a link by its opaque token for anonymous viewing. Unknown
// tokens yield common.ErrorNotFound; a link past its expiration yields
// common.ErrorLinkExpired, which the boundary maps to 410 rather than 404.
// On success the whole subtree under the share root is aggregated: folders
// are visited breadth-first, parents before children, each folder's direct
// files collected in listing order, so the result is deterministic for
// identical input.
func (s *ShareService) Resolve(ctx context.Context, token string) (*SharedView, error) {
	link, err := s.repomanager.SharedLinks(s.db).GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if link.Expired(time.Now()) {
		return nil, common.ErrorLinkExpired
	}

	folderRepo := s.repomanager.Folders(s.db)
	folder, err := folderRepo.GetByID(ctx, link.FolderID)
	if err != nil {
		return nil, err
	}

	limit, err := folderRepo.CountByUser(ctx, folder.UserID)
	if err != nil {
		return nil, err
	}

	subtree, err := collectSubtree(ctx, folderRepo, folder.ID, limit)
	if err != nil {
		if err == common.ErrorInternal {
			s.logger.Error(ctx, "folder hierarchy is corrupted: subtree exceeds folder count",
				"folder_id", folder.ID, "user_id", folder.UserID)
		}
		return nil, err
	}

	fileRepo := s.repomanager.Files(s.db)
	var all []*models.File
	for _, id := range subtree {
		contained, err := fileRepo.ListByFolderID(ctx, id)
		if err != nil {
			return nil, err
		}
		all = append(all, contained...)
	}

	return &SharedView{Folder: folder, Files: all, ExpiresAt: link.ExpiresAt}, nil
}

// Revoke deletes a share link. Authorization is transitive: the link's folder
// is resolved and its owner must equal userID, otherwise
// common.ErrorForbidden is returned. Absent links yield common.ErrorNotFound.
func (s *ShareService) Revoke(ctx context.Context, userID, linkID string) error {
	linkRepo := s.repomanager.SharedLinks(s.db)

	link, err := linkRepo.GetByID(ctx, linkID)
	if err != nil {
		return err
	}

	folder, err := s.repomanager.Folders(s.db).GetByID(ctx, link.FolderID)
	if err != nil {
		return err
	}
	if folder.UserID != userID {
		return common.ErrorForbidden
	}

	return linkRepo.Delete(ctx, linkID)
}

// ListForFolder returns the share links rooted at an owned folder, most
// recent first.
func (s *ShareService) ListForFolder(ctx context.Context, userID, folderID string) ([]*models.SharedLink, error) {
	if _, err := s.repomanager.Folders(s.db).GetByIDAndUser(ctx, folderID, userID); err != nil {
		return nil, err
	}

	return s.repomanager.SharedLinks(s.db).ListByFolder(ctx, folderID)
}
