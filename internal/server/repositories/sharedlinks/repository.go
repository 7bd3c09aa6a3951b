package sharedlinks

import (
	"context"

	"github.com/akozlovs/filestash/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, link *models.SharedLink) (*models.SharedLink, error)
	GetByToken(ctx context.Context, token string) (*models.SharedLink, error)
	GetByID(ctx context.Context, id string) (*models.SharedLink, error)
	ListByFolder(ctx context.Context, folderID string) ([]*models.SharedLink, error)
	Delete(ctx context.Context, id string) error
}
