package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/hitoshi/blog/internal/model"
)

var userColumnNames = []string{"id", "username", "email", "password_hash", "created_at", "updated_at"}

// PostgresUserRepoはUserRepositoryインターフェースを満たすことを検証
func TestPostgresUserRepo_ImplementsInterface(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
}

// PostgresSessionRepoはSessionRepositoryインターフェースを満たすことを検証
func TestPostgresSessionRepo_ImplementsInterface(t *testing.T) {
	var _ SessionRepository = (*PostgresSessionRepo)(nil)
}

func TestPostgresUserRepo_FindByUsername_ExactMatch(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE username = $1")).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userColumnNames).
			AddRow("u-1", "alice", "alice@example.com", "hash", now, now))

	user, err := repo.FindByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user == nil || user.ID != "u-1" {
		t.Fatalf("user = %+v, want ID u-1", user)
	}
}

func TestPostgresUserRepo_FindByUsernameFold_UsesLower(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE lower(username) = lower($1)")).
		WithArgs("ALICE").
		WillReturnRows(sqlmock.NewRows(userColumnNames).
			AddRow("u-1", "alice", "", "", now, now))

	user, err := repo.FindByUsernameFold(context.Background(), "ALICE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user == nil || user.Username != "alice" {
		t.Fatalf("user = %+v, want username alice", user)
	}
}

func TestPostgresUserRepo_FindByID_NotFound_ReturnsNil(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(userColumnNames))

	user, err := repo.FindByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user != nil {
		t.Errorf("expected nil user, got %+v", user)
	}
}

func TestPostgresUserRepo_Create_DuplicateUsername(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.Create(context.Background(), &model.User{ID: "u-2", Username: "Alice"})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != model.ErrCodeDuplicateUsername {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeDuplicateUsername)
	}
}

func TestPostgresUserRepo_Create_OtherErrorIsWrapped(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)

	dbErr := errors.New("connection reset")
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).WillReturnError(dbErr)

	err := repo.Create(context.Background(), &model.User{ID: "u-3", Username: "bob"})
	if !errors.Is(err, dbErr) {
		t.Errorf("expected wrapped db error, got %v", err)
	}
}

func TestPostgresUserRepo_ListPublishedAuthors(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("COUNT(p.id) AS published_count")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "published_count"}).
			AddRow("u-1", "alice", 3).
			AddRow("u-2", "bob", 1))

	authors, err := repo.ListPublishedAuthors(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(authors) != 2 {
		t.Fatalf("len(authors) = %d, want 2", len(authors))
	}
	if authors[0].Username != "alice" || authors[0].PublishedCount != 3 {
		t.Errorf("authors[0] = %+v", authors[0])
	}
	if authors[1].Username != "bob" || authors[1].PublishedCount != 1 {
		t.Errorf("authors[1] = %+v", authors[1])
	}
}

func TestPostgresSessionRepo_FindByID_ExpiredReturnsNil(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresSessionRepo(db)

	// 期限切れセッションはSQL側の expires_at > now() で除外される
	mock.ExpectQuery(regexp.QuoteMeta("expires_at > now()")).
		WithArgs("expired").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "expires_at", "created_at"}))

	session, err := repo.FindByID(context.Background(), "expired")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session != nil {
		t.Errorf("expected nil session, got %+v", session)
	}
}

func TestPostgresSessionRepo_CreateAndDelete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresSessionRepo(db)

	now := time.Now()
	session := &model.Session{ID: "s-1", UserID: "u-1", ExpiresAt: now.Add(time.Hour), CreatedAt: now}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions")).
		WithArgs("s-1", "u-1", session.ExpiresAt, session.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE id = $1")).
		WithArgs("s-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), session); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.DeleteByID(context.Background(), "s-1"); err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
}
