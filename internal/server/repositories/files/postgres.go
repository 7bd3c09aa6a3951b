// Package files provides a PostgreSQL-backed repository for uploaded-file
// metadata. The binary content itself lives in object storage; rows here only
// carry the storage key and retrieval URL.
package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akozlovs/filestash/internal/common"
	"github.com/akozlovs/filestash/internal/dbx"
	"github.com/akozlovs/filestash/internal/server/models"
)

// PostgresRepository implements file-metadata storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new file row and returns it with the server-assigned id
// and creation time.
func (r *PostgresRepository) Create(ctx context.Context, file *models.File) (*models.File, error) {

	query :=
		`INSERT INTO files (name, size, content_type, url, storage_key, user_id, folder_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		file.Name, file.Size, file.ContentType, file.URL, file.StorageKey,
		file.UserID, file.FolderID).Scan(&file.ID, &file.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return file, nil
}

// GetByIDAndUser returns the file with the given id owned by userID.
// Absent or foreign files yield common.ErrorNotFound.
func (r *PostgresRepository) GetByIDAndUser(ctx context.Context, id, userID string) (*models.File, error) {
	query :=
		`SELECT id, name, size, content_type, url, storage_key, user_id, folder_id, created_at
		 FROM files
		 WHERE id = $1 AND user_id = $2
		 `

	file := &models.File{}
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&file.ID, &file.Name, &file.Size, &file.ContentType, &file.URL,
		&file.StorageKey, &file.UserID, &file.FolderID, &file.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return file, nil
}

// ListByFolder returns userID's files directly in folderID (nil means root
// level), most recently created first with id as the tie-break.
func (r *PostgresRepository) ListByFolder(ctx context.Context, userID string, folderID *string) ([]*models.File, error) {
	query :=
		`SELECT id, name, size, content_type, url, storage_key, user_id, folder_id, created_at
		 FROM files
		 WHERE user_id = $1 AND folder_id IS NOT DISTINCT FROM $2
		 ORDER BY created_at DESC, id DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, userID, folderID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	return r.scanMany(rows)
}

// ListByFolderID returns every file directly in folderID regardless of owner,
// in the same deterministic order as ListByFolder. Used by subtree walks
// whose root ownership is already established.
func (r *PostgresRepository) ListByFolderID(ctx context.Context, folderID string) ([]*models.File, error) {
	query :=
		`SELECT id, name, size, content_type, url, storage_key, user_id, folder_id, created_at
		 FROM files
		 WHERE folder_id = $1
		 ORDER BY created_at DESC, id DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, folderID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	return r.scanMany(rows)
}

// Delete removes an owned file row. Absent or foreign files yield
// common.ErrorNotFound.
func (r *PostgresRepository) Delete(ctx context.Context, id, userID string) error {
	query :=
		`DELETE FROM files
		 WHERE id = $1 AND user_id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, id, userID)
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

func (r *PostgresRepository) scanMany(rows *sql.Rows) ([]*models.File, error) {
	var result []*models.File
	for rows.Next() {
		var item models.File
		if err := rows.Scan(&item.ID, &item.Name, &item.Size, &item.ContentType, &item.URL,
			&item.StorageKey, &item.UserID, &item.FolderID, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
