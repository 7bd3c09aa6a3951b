package repomanager

import (
	"context"
	"database/sql"

	"github.com/akozlovs/filestash/internal/dbx"
	"github.com/akozlovs/filestash/internal/server/repositories/files"
	"github.com/akozlovs/filestash/internal/server/repositories/folders"
	"github.com/akozlovs/filestash/internal/server/repositories/refreshtokens"
	"github.com/akozlovs/filestash/internal/server/repositories/sharedlinks"
	"github.com/akozlovs/filestash/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Folders(db dbx.DBTX) folders.Repository
	Files(db dbx.DBTX) files.Repository
	SharedLinks(db dbx.DBTX) sharedlinks.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
