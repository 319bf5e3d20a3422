package handler

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/blog/internal/middleware"
	"github.com/hitoshi/blog/internal/model"
	"github.com/hitoshi/blog/internal/post"
)

// --- モック定義 ---

type mockPostService struct {
	listPublishedFn func(ctx context.Context, author string) (*post.ListResult, error)
	getFn           func(ctx context.Context, id int64) (*model.Post, error)
	createFn        func(ctx context.Context, requesterID string, raw url.Values) (*model.Post, model.PostInput, error)
	editFn          func(ctx context.Context, id int64, requesterID string, raw url.Values) (*model.Post, model.PostInput, error)
	byAuthorFn      func(ctx context.Context, username string) (*post.ListResult, error)
	authorsFn       func(ctx context.Context) (*post.AuthorsResult, error)
	latestFn        func(ctx context.Context, limit int) ([]*model.Post, error)
}

var _ PostServiceInterface = (*mockPostService)(nil)

func (m *mockPostService) ListPublished(ctx context.Context, author string) (*post.ListResult, error) {
	if m.listPublishedFn != nil {
		return m.listPublishedFn(ctx, author)
	}
	return &post.ListResult{}, nil
}

func (m *mockPostService) Get(ctx context.Context, id int64) (*model.Post, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, model.NewPostNotFoundError(id)
}

func (m *mockPostService) Create(ctx context.Context, requesterID string, raw url.Values) (*model.Post, model.PostInput, error) {
	if m.createFn != nil {
		return m.createFn(ctx, requesterID, raw)
	}
	return nil, model.PostInput{}, nil
}

func (m *mockPostService) Edit(ctx context.Context, id int64, requesterID string, raw url.Values) (*model.Post, model.PostInput, error) {
	if m.editFn != nil {
		return m.editFn(ctx, id, requesterID, raw)
	}
	return nil, model.PostInput{}, nil
}

func (m *mockPostService) ByAuthor(ctx context.Context, username string) (*post.ListResult, error) {
	if m.byAuthorFn != nil {
		return m.byAuthorFn(ctx, username)
	}
	return nil, model.NewAuthorNotFoundError(username)
}

func (m *mockPostService) Authors(ctx context.Context) (*post.AuthorsResult, error) {
	if m.authorsFn != nil {
		return m.authorsFn(ctx)
	}
	return &post.AuthorsResult{}, nil
}

func (m *mockPostService) Latest(ctx context.Context, limit int) ([]*model.Post, error) {
	if m.latestFn != nil {
		return m.latestFn(ctx, limit)
	}
	return nil, nil
}

type mockAuthService struct {
	loginFn  func(ctx context.Context, username, password string) (*model.Session, *model.User, error)
	logoutFn func(ctx context.Context, sessionID string) error
}

var _ AuthServiceInterface = (*mockAuthService)(nil)

func (m *mockAuthService) Login(ctx context.Context, username, password string) (*model.Session, *model.User, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, username, password)
	}
	return nil, nil, model.NewInvalidCredentialsError()
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

// stubRenderer は描画を行わず、呼び出された内容を記録する。
type stubRenderer struct {
	calls  int
	status int
	page   string
	data   any
	err    error
}

var _ Renderer = (*stubRenderer)(nil)

func (s *stubRenderer) Render(w http.ResponseWriter, status int, page string, data any) error {
	s.calls++
	s.status = status
	s.page = page
	s.data = data
	if s.err != nil {
		return s.err
	}
	w.WriteHeader(status)
	return nil
}

// --- ヘルパー ---

// withChiURLParam はchiのURLパラメータをリクエストに設定するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withUser はログインユーザーをリクエストコンテキストに設定するヘルパー。
func withUser(r *http.Request, user *model.User) *http.Request {
	return r.WithContext(middleware.ContextWithUser(r.Context(), user))
}
