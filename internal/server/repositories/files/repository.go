package files

import (
	"context"

	"github.com/akozlovs/filestash/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.File) (*models.File, error)
	GetByIDAndUser(ctx context.Context, id, userID string) (*models.File, error)
	ListByFolder(ctx context.Context, userID string, folderID *string) ([]*models.File, error)
	ListByFolderID(ctx context.Context, folderID string) ([]*models.File, error)
	Delete(ctx context.Context, id, userID string) error
}
