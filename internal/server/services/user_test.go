package services

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/akozlovs/filestash/internal/common"
	"github.com/akozlovs/filestash/internal/server/auth"
	"github.com/akozlovs/filestash/internal/server/config"
	"github.com/akozlovs/filestash/internal/server/models"
	"github.com/akozlovs/filestash/internal/server/repositories/repomanager"
)

func newTestUserService(t *testing.T, db *sql.DB, rm repomanager.RepositoryManager) *UserService {
	t.Helper()
	cfg := &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
	return NewUserService(db, rm, cfg)
}

func TestRegister_Validation(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	s := newTestUserService(t, db, newFakeRepoManager())

	cases := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"short username", "al", "al@example.com", "secret1"},
		{"bad email", "alice", "not-an-email", "secret1"},
		{"short password", "alice", "alice@example.com", "12345"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.Register(context.Background(), tc.username, tc.email, tc.password); !errors.Is(err, common.ErrorValidation) {
				t.Fatalf("want ErrorValidation, got %v", err)
			}
		})
	}
}

func TestRegister_Success(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := newFakeRepoManager()
	s := newTestUserService(t, db, rm)

	u, err := s.Register(context.Background(), "alice", "Alice@Example.COM", "secret1")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %q", u.Email)
	}
	if rm.u.createIn == nil || rm.u.createIn.PasswordHash == "secret1" {
		t.Fatalf("password stored unhashed")
	}
	if !auth.CheckPassword(rm.u.createIn.PasswordHash, "secret1") {
		t.Fatalf("stored hash does not verify")
	}
}

func TestRegister_Duplicate(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := newFakeRepoManager()
	rm.u.createErr = common.ErrorAlreadyExists
	s := newTestUserService(t, db, rm)

	if _, err := s.Register(context.Background(), "alice", "alice@example.com", "secret1"); !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("want ErrorAlreadyExists, got %v", err)
	}
}

func TestRegister_RepoError(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := newFakeRepoManager()
	rm.u.createErr = errBoom{}
	s := newTestUserService(t, db, rm)

	_, err := s.Register(context.Background(), "alice", "alice@example.com", "secret1")
	if err == nil || !regexp.MustCompile(`error creating user: .*boom`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestLogin_Flows(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	hash, err := auth.HashPassword("right-password")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	// not found → unauthorized
	rmNF := newFakeRepoManager()
	rmNF.u.getErr = common.ErrorNotFound
	if _, err := newTestUserService(t, db, rmNF).Login(context.Background(), "ghost", "x"); !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("notfound → unauthorized, got %v", err)
	}

	// repository failure → internal
	rmIE := newFakeRepoManager()
	rmIE.u.getErr = errBoom{}
	if _, err := newTestUserService(t, db, rmIE).Login(context.Background(), "alice", "x"); !errors.Is(err, common.ErrorInternal) {
		t.Fatalf("internal → ErrorInternal, got %v", err)
	}

	// wrong password → unauthorized
	rmWP := newFakeRepoManager()
	rmWP.u.getOut = &models.User{ID: "u1", PasswordHash: hash}
	if _, err := newTestUserService(t, db, rmWP).Login(context.Background(), "alice", "wrong"); !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("wrong password → unauthorized, got %v", err)
	}

	// success
	rmOK := newFakeRepoManager()
	rmOK.u.getOut = &models.User{ID: "u1", PasswordHash: hash}
	pair, err := newTestUserService(t, db, rmOK).Login(context.Background(), "alice", "right-password")
	if err != nil || pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("Login success: pair=%+v err=%v", pair, err)
	}
}

func TestRefreshToken_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := newFakeRepoManager()
	rm.rt.findOut = &models.RefreshToken{UserID: "u1", Expires: time.Now().Add(10 * time.Minute)}
	s := newTestUserService(t, db, rm)

	pair, err := s.RefreshToken(context.Background(), "refresh-xyz")
	if err != nil {
		t.Fatalf("RefreshToken error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("empty tokens: %+v", pair)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestRefreshToken_Expired(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := newFakeRepoManager()
	rm.rt.findOut = &models.RefreshToken{UserID: "u1", Expires: time.Now().Add(-1 * time.Minute)}
	s := newTestUserService(t, db, rm)

	if _, err := s.RefreshToken(context.Background(), "r"); !errors.Is(err, common.ErrRefreshTokenExpired) {
		t.Fatalf("want ErrRefreshTokenExpired, got %v", err)
	}
}

func TestRefreshToken_Unknown(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := newFakeRepoManager()
	rm.rt.findErr = common.ErrorNotFound
	s := newTestUserService(t, db, rm)

	if _, err := s.RefreshToken(context.Background(), "r"); !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("want ErrorUnauthorized, got %v", err)
	}
}

func TestRefreshToken_FindErr(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := newFakeRepoManager()
	rm.rt.findErr = errBoom{}
	s := newTestUserService(t, db, rm)

	_, err := s.RefreshToken(context.Background(), "r")
	if err == nil || !regexp.MustCompile(`error searching refresh token: .*boom`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped find error, got %v", err)
	}
}

func TestRefreshToken_DeleteErr(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := newFakeRepoManager()
	rm.rt.findOut = &models.RefreshToken{UserID: "u1", Expires: time.Now().Add(10 * time.Minute)}
	rm.rt.delErr = errBoom{}
	s := newTestUserService(t, db, rm)

	_, err := s.RefreshToken(context.Background(), "r")
	if err == nil || !regexp.MustCompile(`error deleting refresh token: .*boom`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped delete error, got %v", err)
	}
}

func TestRefreshToken_CreateErr(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := newFakeRepoManager()
	rm.rt.findOut = &models.RefreshToken{UserID: "u1", Expires: time.Now().Add(10 * time.Minute)}
	rm.rt.createErr = errBoom{}
	s := newTestUserService(t, db, rm)

	if _, err := s.RefreshToken(context.Background(), "r"); !errors.Is(err, common.ErrorInternal) {
		t.Fatalf("want ErrorInternal, got %v", err)
	}
}
