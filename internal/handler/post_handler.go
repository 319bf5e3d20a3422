package handler

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/blog/internal/middleware"
	"github.com/hitoshi/blog/internal/model"
	"github.com/hitoshi/blog/internal/post"
	"github.com/hitoshi/blog/internal/view"
)

// PostServiceInterface は記事ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	// ListPublished は公開記事を新しい順に返す。authorが空でなければ著者名の完全一致で絞り込む。
	ListPublished(ctx context.Context, author string) (*post.ListResult, error)
	// Get は記事を公開状態に関わらず返す。存在しない場合はNotFoundのエラーを返す。
	Get(ctx context.Context, id int64) (*model.Post, error)
	// Create はフォーム値から記事を作成する。検証失敗時は*model.ValidationErrorを返す。
	Create(ctx context.Context, requesterID string, raw url.Values) (*model.Post, model.PostInput, error)
	// Edit はフォーム値で記事を更新する。検証失敗時は*model.ValidationErrorを返す。
	Edit(ctx context.Context, id int64, requesterID string, raw url.Values) (*model.Post, model.PostInput, error)
	ByAuthor(ctx context.Context, username string) (*post.ListResult, error)
	Authors(ctx context.Context) (*post.AuthorsResult, error)
	Latest(ctx context.Context, limit int) ([]*model.Post, error)
}

// PostHandler は記事の閲覧・作成・編集のHTTPハンドラー。
type PostHandler struct {
	service  PostServiceInterface
	renderer Renderer
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(service PostServiceInterface, renderer Renderer) *PostHandler {
	return &PostHandler{
		service:  service,
		renderer: renderer,
	}
}

// List は公開記事の一覧を表示する。
// GET /?author=xxx
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ListPublished(r.Context(), r.URL.Query().Get("author"))
	if err != nil {
		handleServiceError(w, r, h.renderer, err)
		return
	}

	h.renderList(w, r, result)
}

// Detail は記事の詳細を表示する。
// GET /post/{id}
func (h *PostHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, ok := postIDParam(r)
	if !ok {
		renderError(w, r, h.renderer, http.StatusNotFound)
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, h.renderer, err)
		return
	}

	render(w, r, h.renderer, http.StatusOK, view.PagePostDetail, view.PostDetailPage{
		Base: newBase(r),
		Post: p,
	})
}

// New は空の記事作成フォームを表示する。
// GET /post/new
func (h *PostHandler) New(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, 0, model.PostInput{}, nil)
}

// Create は記事を作成して詳細ページへリダイレクトする。
// POST /post/new
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		renderError(w, r, h.renderer, http.StatusBadRequest)
		return
	}

	p, input, err := h.service.Create(r.Context(), userID, r.PostForm)
	if err != nil {
		if vErr, ok := model.AsValidationError(err); ok {
			h.renderForm(w, r, 0, input, vErr.Fields)
			return
		}
		handleServiceError(w, r, h.renderer, err)
		return
	}

	http.Redirect(w, r, postPath(p.ID), http.StatusSeeOther)
}

// Edit は既存記事の値を埋めた編集フォームを表示する。
// GET /post/{id}/edit
func (h *PostHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := postIDParam(r)
	if !ok {
		renderError(w, r, h.renderer, http.StatusNotFound)
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, h.renderer, err)
		return
	}

	h.renderForm(w, r, p.ID, model.PostInput{Title: p.Title, Content: p.Content}, nil)
}

// Update は記事を更新して詳細ページへリダイレクトする。
// POST /post/{id}/edit
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := postIDParam(r)
	if !ok {
		renderError(w, r, h.renderer, http.StatusNotFound)
		return
	}
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		renderError(w, r, h.renderer, http.StatusBadRequest)
		return
	}

	p, input, err := h.service.Edit(r.Context(), id, userID, r.PostForm)
	if err != nil {
		if vErr, ok := model.AsValidationError(err); ok {
			h.renderForm(w, r, id, input, vErr.Fields)
			return
		}
		handleServiceError(w, r, h.renderer, err)
		return
	}

	http.Redirect(w, r, postPath(p.ID), http.StatusSeeOther)
}

// ByAuthor は指定著者の公開記事の一覧を表示する。
// GET /author/{username}
func (h *PostHandler) ByAuthor(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ByAuthor(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		handleServiceError(w, r, h.renderer, err)
		return
	}

	h.renderList(w, r, result)
}

// Authors は公開記事を持つ著者の一覧を表示する。
// GET /authors
func (h *PostHandler) Authors(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Authors(r.Context())
	if err != nil {
		handleServiceError(w, r, h.renderer, err)
		return
	}

	render(w, r, h.renderer, http.StatusOK, view.PageAuthorsList, view.AuthorsPage{
		Base:            newBase(r),
		Authors:         result.Authors,
		AuthorUsernames: result.AuthorUsernames,
	})
}

func (h *PostHandler) renderList(w http.ResponseWriter, r *http.Request, result *post.ListResult) {
	render(w, r, h.renderer, http.StatusOK, view.PagePostList, view.PostListPage{
		Base:           newBase(r),
		Posts:          result.Posts,
		Authors:        result.Authors,
		SelectedAuthor: result.SelectedAuthor,
	})
}

// renderForm は作成・編集フォームを描画する。検証エラーがあっても200で再表示する。
func (h *PostHandler) renderForm(w http.ResponseWriter, r *http.Request, postID int64, input model.PostInput, errs model.FieldErrors) {
	render(w, r, h.renderer, http.StatusOK, view.PagePostEdit, view.PostEditPage{
		Base:    newBase(r),
		PostID:  postID,
		Title:   input.Title,
		Content: input.Content,
		Errors:  errs,
	})
}

// postIDParam はURLパラメータの記事IDを解析する。正の整数でなければfalseを返す。
func postIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func postPath(id int64) string {
	return "/post/" + strconv.FormatInt(id, 10)
}
