// Package sharedlinks provides a PostgreSQL-backed repository for expiring
// share links. Links are never owner-scoped directly: ownership is derived
// transitively through the referenced folder.
package sharedlinks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akozlovs/filestash/internal/common"
	"github.com/akozlovs/filestash/internal/dbx"
	"github.com/akozlovs/filestash/internal/server/models"
)

// PostgresRepository implements shared-link storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new shared link and returns it with the server-assigned id
// and creation time.
func (r *PostgresRepository) Create(ctx context.Context, link *models.SharedLink) (*models.SharedLink, error) {

	query :=
		`INSERT INTO shared_links (token, folder_id, expires_at)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		link.Token, link.FolderID, link.ExpiresAt).Scan(&link.ID, &link.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return link, nil
}

// GetByToken returns the link carrying the given opaque token.
// Unknown tokens yield common.ErrorNotFound.
func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*models.SharedLink, error) {
	query :=
		`SELECT id, token, folder_id, expires_at, created_at FROM shared_links
		 WHERE token = $1
		 `

	return r.scanOne(r.db.QueryRowContext(ctx, query, token))
}

// GetByID returns the link with the given id. Absent links yield
// common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.SharedLink, error) {
	query :=
		`SELECT id, token, folder_id, expires_at, created_at FROM shared_links
		 WHERE id = $1
		 `

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// ListByFolder returns the links rooted at folderID, most recently created
// first with id as the tie-break.
func (r *PostgresRepository) ListByFolder(ctx context.Context, folderID string) ([]*models.SharedLink, error) {
	query :=
		`SELECT id, token, folder_id, expires_at, created_at FROM shared_links
		 WHERE folder_id = $1
		 ORDER BY created_at DESC, id DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, folderID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.SharedLink
	for rows.Next() {
		var item models.SharedLink
		if err := rows.Scan(&item.ID, &item.Token, &item.FolderID, &item.ExpiresAt, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes a link by id. Absent links yield common.ErrorNotFound.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query :=
		`DELETE FROM shared_links
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.SharedLink, error) {
	link := &models.SharedLink{}
	err := row.Scan(&link.ID, &link.Token, &link.FolderID, &link.ExpiresAt, &link.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return link, nil
}
