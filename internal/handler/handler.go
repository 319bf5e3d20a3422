// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"log/slog"
	"net/http"

	"github.com/hitoshi/blog/internal/middleware"
	"github.com/hitoshi/blog/internal/model"
	"github.com/hitoshi/blog/internal/view"
)

// Renderer はHTMLページを描画するインターフェース。
type Renderer interface {
	Render(w http.ResponseWriter, status int, page string, data any) error
}

// newBase はリクエストから全ページ共通のテンプレートデータを組み立てる。
func newBase(r *http.Request) view.Base {
	user, _ := middleware.UserFromContext(r.Context())
	return view.Base{
		CurrentUser: user,
		CSRFToken:   middleware.CSRFTokenFromContext(r.Context()),
		Path:        r.URL.RequestURI(),
	}
}

// render はページを描画する。描画に失敗した場合はログに記録して500を返す。
func render(w http.ResponseWriter, r *http.Request, renderer Renderer, status int, page string, data any) {
	if err := renderer.Render(w, status, page, data); err != nil {
		slog.Error("failed to render page",
			slog.String("page", page),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// renderError はエラーページを描画する。
func renderError(w http.ResponseWriter, r *http.Request, renderer Renderer, status int) {
	render(w, r, renderer, status, view.PageError, view.ErrorPage{
		Base:    newBase(r),
		Status:  status,
		Message: http.StatusText(status),
	})
}

// handleServiceError はサービス層のエラーをエラーページに変換する。
// 未検出は404、それ以外はログに記録して500とする。
func handleServiceError(w http.ResponseWriter, r *http.Request, renderer Renderer, err error) {
	if model.IsNotFound(err) {
		renderError(w, r, renderer, http.StatusNotFound)
		return
	}

	slog.Error("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	renderError(w, r, renderer, http.StatusInternalServerError)
}
