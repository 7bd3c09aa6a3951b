package services

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/akozlovs/filestash/internal/common"
	"github.com/akozlovs/filestash/internal/dbx"
	"github.com/akozlovs/filestash/internal/logging"
	"github.com/akozlovs/filestash/internal/server/models"
	filesrepo "github.com/akozlovs/filestash/internal/server/repositories/files"
	foldersrepo "github.com/akozlovs/filestash/internal/server/repositories/folders"
	refreshtokensrepo "github.com/akozlovs/filestash/internal/server/repositories/refreshtokens"
	"github.com/akozlovs/filestash/internal/server/repositories/repomanager"
	sharedlinksrepo "github.com/akozlovs/filestash/internal/server/repositories/sharedlinks"
	usersrepo "github.com/akozlovs/filestash/internal/server/repositories/users"
)

// --- shared helpers ---

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

type noopLogger struct{}

func (noopLogger) Debug(context.Context, string, ...any) {}
func (noopLogger) Info(context.Context, string, ...any)  {}
func (noopLogger) Warn(context.Context, string, ...any)  {}
func (noopLogger) Error(context.Context, string, ...any) {}
func (l noopLogger) With(...any) logging.Logger          { return l }

func strPtr(s string) *string { return &s }

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// --- in-memory folders repository ---

// memFoldersRepo keeps folders in creation order; listings return newest
// first, matching the SQL repositories.
type memFoldersRepo struct {
	seq   int
	order []string
	byID  map[string]*models.Folder
	err   error
}

func newMemFoldersRepo() *memFoldersRepo {
	return &memFoldersRepo{byID: map[string]*models.Folder{}}
}

func (r *memFoldersRepo) add(f *models.Folder) *models.Folder {
	if f.ID == "" {
		r.seq++
		f.ID = fmt.Sprintf("f%d", r.seq)
	}
	r.order = append(r.order, f.ID)
	r.byID[f.ID] = f
	return f
}

func (r *memFoldersRepo) Create(ctx context.Context, f *models.Folder) (*models.Folder, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.add(f), nil
}

func (r *memFoldersRepo) GetByIDAndUser(ctx context.Context, id, userID string) (*models.Folder, error) {
	if r.err != nil {
		return nil, r.err
	}
	f, ok := r.byID[id]
	if !ok || f.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return f, nil
}

func (r *memFoldersRepo) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	if r.err != nil {
		return nil, r.err
	}
	f, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return f, nil
}

func (r *memFoldersRepo) UpdateName(ctx context.Context, id, userID, name string) (*models.Folder, error) {
	f, err := r.GetByIDAndUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	f.Name = name
	return f, nil
}

func (r *memFoldersRepo) ListByParent(ctx context.Context, userID string, parentID *string) ([]*models.Folder, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []*models.Folder
	for i := len(r.order) - 1; i >= 0; i-- {
		f, ok := r.byID[r.order[i]]
		if ok && f.UserID == userID && sameParent(f.ParentID, parentID) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *memFoldersRepo) ListChildren(ctx context.Context, parentID string) ([]*models.Folder, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []*models.Folder
	for i := len(r.order) - 1; i >= 0; i-- {
		f, ok := r.byID[r.order[i]]
		if ok && f.ParentID != nil && *f.ParentID == parentID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *memFoldersRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	var n int64
	for _, f := range r.byID {
		if f.UserID == userID {
			n++
		}
	}
	return n, nil
}

// Delete emulates the schema's ON DELETE CASCADE over the folder subtree.
func (r *memFoldersRepo) Delete(ctx context.Context, id, userID string) error {
	if r.err != nil {
		return r.err
	}
	f, ok := r.byID[id]
	if !ok || f.UserID != userID {
		return common.ErrorNotFound
	}
	doomed := map[string]struct{}{id: {}}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range r.byID {
			if child.ParentID != nil && *child.ParentID == cur {
				if _, seen := doomed[child.ID]; !seen {
					doomed[child.ID] = struct{}{}
					queue = append(queue, child.ID)
				}
			}
		}
	}
	for did := range doomed {
		delete(r.byID, did)
	}
	return nil
}

// --- in-memory files repository ---

type memFilesRepo struct {
	seq   int
	order []string
	byID  map[string]*models.File
	err   error
}

func newMemFilesRepo() *memFilesRepo {
	return &memFilesRepo{byID: map[string]*models.File{}}
}

func (r *memFilesRepo) add(f *models.File) *models.File {
	if f.ID == "" {
		r.seq++
		f.ID = fmt.Sprintf("fl%d", r.seq)
	}
	r.order = append(r.order, f.ID)
	r.byID[f.ID] = f
	return f
}

func (r *memFilesRepo) Create(ctx context.Context, f *models.File) (*models.File, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.add(f), nil
}

func (r *memFilesRepo) GetByIDAndUser(ctx context.Context, id, userID string) (*models.File, error) {
	if r.err != nil {
		return nil, r.err
	}
	f, ok := r.byID[id]
	if !ok || f.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return f, nil
}

func (r *memFilesRepo) ListByFolder(ctx context.Context, userID string, folderID *string) ([]*models.File, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []*models.File
	for i := len(r.order) - 1; i >= 0; i-- {
		f, ok := r.byID[r.order[i]]
		if ok && f.UserID == userID && sameParent(f.FolderID, folderID) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *memFilesRepo) ListByFolderID(ctx context.Context, folderID string) ([]*models.File, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []*models.File
	for i := len(r.order) - 1; i >= 0; i-- {
		f, ok := r.byID[r.order[i]]
		if ok && f.FolderID != nil && *f.FolderID == folderID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *memFilesRepo) Delete(ctx context.Context, id, userID string) error {
	if r.err != nil {
		return r.err
	}
	f, ok := r.byID[id]
	if !ok || f.UserID != userID {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	return nil
}

// --- in-memory shared links repository ---

type memLinksRepo struct {
	seq   int
	order []string
	byID  map[string]*models.SharedLink
	err   error
}

func newMemLinksRepo() *memLinksRepo {
	return &memLinksRepo{byID: map[string]*models.SharedLink{}}
}

func (r *memLinksRepo) Create(ctx context.Context, l *models.SharedLink) (*models.SharedLink, error) {
	if r.err != nil {
		return nil, r.err
	}
	if l.ID == "" {
		r.seq++
		l.ID = fmt.Sprintf("ln%d", r.seq)
	}
	r.order = append(r.order, l.ID)
	r.byID[l.ID] = l
	return l, nil
}

func (r *memLinksRepo) GetByToken(ctx context.Context, token string) (*models.SharedLink, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, l := range r.byID {
		if l.Token == token {
			return l, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memLinksRepo) GetByID(ctx context.Context, id string) (*models.SharedLink, error) {
	if r.err != nil {
		return nil, r.err
	}
	l, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return l, nil
}

func (r *memLinksRepo) ListByFolder(ctx context.Context, folderID string) ([]*models.SharedLink, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []*models.SharedLink
	for i := len(r.order) - 1; i >= 0; i-- {
		l, ok := r.byID[r.order[i]]
		if ok && l.FolderID == folderID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *memLinksRepo) Delete(ctx context.Context, id string) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	return nil
}

// --- scripted users / refresh token repositories ---

type fakeUsersRepo struct {
	createOut *models.User
	createErr error
	createIn  *models.User

	getOut *models.User
	getErr error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.createIn = u
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	return u, nil
}

func (f *fakeUsersRepo) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

type fakeRefreshRepo struct {
	findOut   *models.RefreshToken
	findErr   error
	delErr    error
	createErr error
}

func (f *fakeRefreshRepo) Create(ctx context.Context, userID, token string, validity time.Duration) error {
	return f.createErr
}

func (f *fakeRefreshRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}

func (f *fakeRefreshRepo) Delete(ctx context.Context, token string) error {
	return f.delErr
}

// --- repository manager over the fakes ---

type fakeRepoManager struct {
	u  *fakeUsersRepo
	rt *fakeRefreshRepo
	fo *memFoldersRepo
	fi *memFilesRepo
	li *memLinksRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		u:  &fakeUsersRepo{},
		rt: &fakeRefreshRepo{},
		fo: newMemFoldersRepo(),
		fi: newMemFilesRepo(),
		li: newMemLinksRepo(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error               { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository                     { return m.u }
func (m *fakeRepoManager) Folders(db dbx.DBTX) foldersrepo.Repository                 { return m.fo }
func (m *fakeRepoManager) Files(db dbx.DBTX) filesrepo.Repository                     { return m.fi }
func (m *fakeRepoManager) SharedLinks(db dbx.DBTX) sharedlinksrepo.Repository         { return m.li }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokensrepo.Repository     { return m.rt }

var _ repomanager.RepositoryManager = (*fakeRepoManager)(nil)

// --- blob store fake ---

type fakeBlobStore struct {
	seq      int
	stored   []string
	deleted  []string
	failKeys map[string]bool
	storeErr error
}

func (s *fakeBlobStore) Store(ctx context.Context, data []byte, contentType string) (string, string, error) {
	if s.storeErr != nil {
		return "", "", s.storeErr
	}
	s.seq++
	key := fmt.Sprintf("users/2026/08/31/obj%d", s.seq)
	s.stored = append(s.stored, key)
	return "http://storage.test/filestash/" + key, key, nil
}

func (s *fakeBlobStore) Delete(ctx context.Context, key string) error {
	if s.failKeys[key] {
		return errBoom{}
	}
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeBlobStore) DownloadURL(ctx context.Context, key, filename string, asAttachment bool) (string, error) {
	return fmt.Sprintf("http://storage.test/presigned/%s?filename=%s&attachment=%t", key, filename, asAttachment), nil
}
