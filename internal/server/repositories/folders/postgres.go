// Package folders provides a PostgreSQL-backed repository for the per-user
// folder tree. Owner-scoped lookups keep absent and foreign rows
// indistinguishable: both come back as common.ErrorNotFound.
package folders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akozlovs/filestash/internal/common"
	"github.com/akozlovs/filestash/internal/dbx"
	"github.com/akozlovs/filestash/internal/server/models"
)

// PostgresRepository implements folder storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new folder and returns it with the server-assigned id and
// creation time.
func (r *PostgresRepository) Create(ctx context.Context, folder *models.Folder) (*models.Folder, error) {

	query :=
		`INSERT INTO folders (name, user_id, parent_id)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		folder.Name, folder.UserID, folder.ParentID).Scan(&folder.ID, &folder.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return folder, nil
}

// GetByIDAndUser returns the folder with the given id owned by userID.
// Absent or foreign folders yield common.ErrorNotFound.
func (r *PostgresRepository) GetByIDAndUser(ctx context.Context, id, userID string) (*models.Folder, error) {
	query :=
		`SELECT id, name, user_id, parent_id, created_at FROM folders
		 WHERE id = $1 AND user_id = $2
		 `

	return r.scanOne(r.db.QueryRowContext(ctx, query, id, userID))
}

// GetByID returns a folder without owner scoping. Used by the upward
// breadcrumb walk and by share resolution, where ownership has already been
// established through the chain root.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	query :=
		`SELECT id, name, user_id, parent_id, created_at FROM folders
		 WHERE id = $1
		 `

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// UpdateName renames an owned folder and returns the updated row.
// Absent or foreign folders yield common.ErrorNotFound.
func (r *PostgresRepository) UpdateName(ctx context.Context, id, userID, name string) (*models.Folder, error) {
	query :=
		`UPDATE folders SET name = $3
		 WHERE id = $1 AND user_id = $2
		 RETURNING id, name, user_id, parent_id, created_at
		 `

	return r.scanOne(r.db.QueryRowContext(ctx, query, id, userID, name))
}

// ListByParent returns userID's folders whose parent equals parentID
// (nil means root level), most recently created first with id as the
// tie-break for equal timestamps.
func (r *PostgresRepository) ListByParent(ctx context.Context, userID string, parentID *string) ([]*models.Folder, error) {
	query :=
		`SELECT id, name, user_id, parent_id, created_at FROM folders
		 WHERE user_id = $1 AND parent_id IS NOT DISTINCT FROM $2
		 ORDER BY created_at DESC, id DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, userID, parentID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	return r.scanMany(rows)
}

// ListChildren returns the direct children of parentID regardless of owner,
// in the same deterministic order as ListByParent. Callers establish
// ownership through the subtree root before descending.
func (r *PostgresRepository) ListChildren(ctx context.Context, parentID string) ([]*models.Folder, error) {
	query :=
		`SELECT id, name, user_id, parent_id, created_at FROM folders
		 WHERE parent_id = $1
		 ORDER BY created_at DESC, id DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	return r.scanMany(rows)
}

// CountByUser returns the total number of folders owned by userID. Traversals
// use it as the upper bound when guarding against a corrupted parent chain.
func (r *PostgresRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	query :=
		`SELECT COUNT(*) FROM folders
		 WHERE user_id = $1
		 `

	var n int64
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// Delete removes an owned folder. The schema's ON DELETE CASCADE constraints
// remove descendant folders, contained files, and shared links in the same
// statement. Absent or foreign folders yield common.ErrorNotFound.
func (r *PostgresRepository) Delete(ctx context.Context, id, userID string) error {
	query :=
		`DELETE FROM folders
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

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Folder, error) {
	folder := &models.Folder{}
	err := row.Scan(&folder.ID, &folder.Name, &folder.UserID, &folder.ParentID, &folder.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return folder, nil
}

func (r *PostgresRepository) scanMany(rows *sql.Rows) ([]*models.Folder, error) {
	var result []*models.Folder
	for rows.Next() {
		var item models.Folder
		if err := rows.Scan(&item.ID, &item.Name, &item.UserID, &item.ParentID, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
