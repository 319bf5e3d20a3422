package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPostgresSessionRepo_FindByID_ExcludesExpired(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresSessionRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND expires_at > now()")).
		WithArgs("expired-session").
		WillReturnError(sql.ErrNoRows)

	session, err := repo.FindByID(context.Background(), "expired-session")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session != nil {
		t.Errorf("session = %+v, want nil", session)
	}
}

func TestPostgresSessionRepo_FindByID_Found(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresSessionRepo(db)

	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	created := time.Date(2029, 12, 18, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions")).
		WithArgs("s-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "expires_at", "created_at"}).
			AddRow("s-1", "u-1", expires, created))

	session, err := repo.FindByID(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session == nil || session.UserID != "u-1" || !session.ExpiresAt.Equal(expires) {
		t.Errorf("session = %+v", session)
	}
}

func TestPostgresSessionRepo_DeleteExpired_ReturnsCount(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresSessionRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE expires_at <= now()")).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteExpired(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("deleted = %d, want 3", n)
	}
}

func TestPostgresSessionRepo_DeleteExpired_WrapsError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresSessionRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions")).
		WillReturnError(sql.ErrConnDone)

	_, err := repo.DeleteExpired(context.Background())
	if !errors.Is(err, sql.ErrConnDone) {
		t.Errorf("err = %v, want wrapped sql.ErrConnDone", err)
	}
}
