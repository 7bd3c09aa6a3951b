package folders

import (
	"context"

	"github.com/akozlovs/filestash/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, folder *models.Folder) (*models.Folder, error)
	GetByIDAndUser(ctx context.Context, id, userID string) (*models.Folder, error)
	GetByID(ctx context.Context, id string) (*models.Folder, error)
	UpdateName(ctx context.Context, id, userID, name string) (*models.Folder, error)
	ListByParent(ctx context.Context, userID string, parentID *string) ([]*models.Folder, error)
	ListChildren(ctx context.Context, parentID string) ([]*models.Folder, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, id, userID string) error
}
